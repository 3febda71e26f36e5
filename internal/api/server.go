// Package api exposes the aggregated transit data as a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/galwaybus/galway-bus-api/internal/transit"
)

// Server holds the HTTP handlers.
type Server struct {
	svc       *transit.Service
	staticDir string
}

// NewServer creates the API server. staticDir may be empty, in which
// case the index page falls back to a built-in document.
func NewServer(svc *transit.Service, staticDir string) *Server {
	return &Server{
		svc:       svc,
		staticDir: staticDir,
	}
}

// Router creates and returns the HTTP router.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/index.html", s.handleIndex).Methods("GET")
	r.HandleFunc("/routes.json", s.handleRoutes).Methods("GET")
	r.HandleFunc("/routes/{id}.json", s.handleRoute).Methods("GET")
	r.HandleFunc("/stops.json", s.handleStops).Methods("GET")
	// Registered before the {ref} route so "nearby" is not taken for
	// a stop reference.
	r.HandleFunc("/stops/nearby.json", s.handleNearby).Methods("GET")
	r.HandleFunc("/stops/{ref}.json", s.handleStop).Methods("GET")
	r.HandleFunc("/schedules.json", s.handleSchedules).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	return s.corsMiddleware(r)
}

// corsMiddleware adds CORS headers to all responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.sendError(w, http.StatusNotFound, "Not found.")
}
