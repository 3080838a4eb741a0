package routes

import "movienight-server/internal/deps"

// Deps holds the dependencies required by the route handlers.
type Deps = deps.ServerDeps
