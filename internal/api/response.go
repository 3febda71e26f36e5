package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/galwaybus/galway-bus-api/internal/transit"
)

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// sendJSON writes v as a JSON response body.
func (s *Server) sendJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling JSON: %v", err)
		s.sendError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

// sendError writes the uniform error payload with the given status.
func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	data, err := json.Marshal(errorResponse{Error: message, Code: code})
	if err != nil {
		log.Printf("Error marshaling JSON error response: %v", err)
		return
	}
	w.Write(data)
}

// sendServiceError maps aggregation errors onto the error payload.
// Upstream failures of any flavor collapse to a 500.
func (s *Server) sendServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, transit.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "Not found.")
		return
	}
	log.Printf("Request failed: %v", err)
	s.sendError(w, http.StatusInternalServerError, "An error occurred.")
}
