package api

import (
	"net/http"
	"path/filepath"
)

const fallbackIndex = `<!DOCTYPE html>
<html>
<head><title>Galway Bus API</title></head>
<body>
<h1>Galway Bus API</h1>
<ul>
<li><a href="/routes.json">/routes.json</a></li>
<li><a href="/stops.json">/stops.json</a></li>
<li><a href="/schedules.json">/schedules.json</a></li>
</ul>
</body>
</html>
`

// handleIndex serves the static index page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.staticDir != "" {
		http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(fallbackIndex))
}
