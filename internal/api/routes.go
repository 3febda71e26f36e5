package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleRoutes handles the route table endpoint.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.svc.Routes())
}

// handleRoute handles the route detail endpoint.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.sendError(w, http.StatusNotFound, "Not found.")
		return
	}

	detail, err := s.svc.RouteDetail(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	s.sendJSON(w, detail)
}
