package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleStops handles the stop list endpoint.
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	stops, err := s.svc.Stops(r.Context())
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	s.sendJSON(w, stops)
}

// handleStop handles the stop detail endpoint.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.StopByRef(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	s.sendJSON(w, st)
}

// handleNearby handles the ranked nearest-stops endpoint.
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid latitude.")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid longitude.")
		return
	}

	nearby, err := s.svc.Nearby(r.Context(), lat, lon, q.Get("route"))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	s.sendJSON(w, nearby)
}
