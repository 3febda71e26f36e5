package api

import "net/http"

// handleSchedules handles the schedule-links endpoint. The payload is
// pure configuration data and never touches the caches.
func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.svc.Schedules())
}
