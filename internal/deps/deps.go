package deps

import (
	"time"

	"movienight-server/internal/storage"
	"movienight-server/internal/voting"
	"movienight-server/pkg/cache"
	"movienight-server/pkg/session"
)

// ServerDeps holds the dependencies required by handlers and server.
type ServerDeps struct {
	Store     storage.Store
	Cache     cache.Cache
	Sessions  session.Store
	Resolver  *voting.Resolver
	AdminHash []byte
	Name      string
	StartedAt time.Time
}
