package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movienight-server/internal/deps"
	"movienight-server/internal/routes"
	pkghttpx "movienight-server/pkg/httpx"
)

type Server struct {
	deps.ServerDeps
	corsOrigins []string
}

func New(sd deps.ServerDeps, corsOrigins []string) *Server {
	return &Server{ServerDeps: sd, corsOrigins: corsOrigins}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	sd := s.ServerDeps

	// Endpoints declared here for easy scanning
	mux.HandleFunc("GET /health", routes.Health(sd))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /admin/login", routes.AdminLogin(sd))
	mux.HandleFunc("POST /admin/logout", routes.AdminLogout(sd))

	mux.HandleFunc("GET /movies", routes.MoviesList(sd))
	mux.HandleFunc("POST /movies", s.requireAdmin(routes.MovieCreate(sd)))
	mux.HandleFunc("GET /movies/{id}", routes.MovieGet(sd))
	mux.HandleFunc("PATCH /movies/{id}", s.requireAdmin(routes.MoviePatch(sd)))
	mux.HandleFunc("DELETE /movies/{id}", s.requireAdmin(routes.MovieDelete(sd)))
	mux.HandleFunc("GET /movies/{id}/reviews", routes.ReviewsList(sd))
	mux.HandleFunc("POST /movies/{id}/reviews", routes.ReviewCreate(sd))

	mux.HandleFunc("GET /meetings", routes.MeetingsList(sd))
	mux.HandleFunc("POST /meetings", s.requireAdmin(routes.MeetingCreate(sd)))
	mux.HandleFunc("GET /meetings/{id}", routes.MeetingGet(sd))
	mux.HandleFunc("PATCH /meetings/{id}", s.requireAdmin(routes.MeetingPatch(sd)))
	mux.HandleFunc("DELETE /meetings/{id}", s.requireAdmin(routes.MeetingDelete(sd)))

	mux.HandleFunc("POST /ballots", routes.BallotSubmit(sd))
	mux.HandleFunc("GET /results", routes.Results(sd))

	return withCorrelationID(withLogging(withCORS(s.corsOrigins)(withSecurityHeaders(mux))))
}

// requireAdmin rejects requests without a valid admin session before the
// lifecycle logic ever runs.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := adminToken(r)
		if token == "" || s.Sessions == nil || !s.Sessions.Validate(r.Context(), token) {
			pkghttpx.WriteError(w, r, pkghttpx.Unauthorized("admin session required", nil))
			return
		}
		next(w, r)
	}
}

func adminToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		return auth[7:]
	}
	return r.Header.Get("X-Admin-Token")
}
