package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/galwaybus/galway-bus-api/internal/config"
	"github.com/galwaybus/galway-bus-api/internal/refdata"
	"github.com/galwaybus/galway-bus-api/internal/rtpi"
	"github.com/galwaybus/galway-bus-api/internal/transit"
)

// newTestServer builds a server backed by a fake upstream.
func newTestServer(t *testing.T, upstream http.Handler) *Server {
	t.Helper()

	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		RTPIBaseURL:     ts.URL,
		Operator:        "be",
		HubName:         "Eyre Square",
		IrishHubName:    "An Fhaiche Mhór",
		ServiceAreaMode: "routes",
		StopSource:      "rtpi",
		CacheTTL:        24 * time.Hour,
		FetchTimeout:    5 * time.Second,
		FanoutTimeout:   2 * time.Second,
	}

	tables, err := refdata.Load("")
	if err != nil {
		t.Fatalf("refdata load failed: %v", err)
	}

	client := rtpi.NewClient(cfg.RTPIBaseURL, cfg.Operator, cfg.FetchTimeout)
	return NewServer(transit.NewService(cfg, tables, client, nil), "")
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestRoutesEndpoint(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("route table must not touch the upstream")
	}))

	rr := get(t, s, "/routes.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("wrong content type: %q", ct)
	}

	var routes map[string]struct {
		TimetableID int    `json:"timetable_id"`
		LongName    string `json:"long_name"`
		ShortName   string `json:"short_name"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &routes); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if r, ok := routes["401"]; !ok || r.ShortName != "Salthill" {
		t.Errorf("route 401 missing or wrong: %+v", routes)
	}
}

func TestRouteDetailUnknown(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown route must not touch the upstream")
	}))

	rr := get(t, s, "/routes/999.json")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}

	var payload struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if payload.Code != 404 || payload.Error == "" {
		t.Errorf("unexpected error payload: %+v", payload)
	}
}

func TestRouteDetailUpstreamFailure(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := get(t, s, "/routes/401.json")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusInternalServerError)
	}

	var payload struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if payload.Code != 500 {
		t.Errorf("unexpected error payload: %+v", payload)
	}
}

func TestStopsEndpoint(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"errorcode": "0",
			"results": [{"stopid": "301", "shortname": "Eyre Square", "fullname": "Eyre Square North", "latitude": "53.2743", "longitude": "-9.0514", "operators": [{"name": "be", "routes": ["401"]}]}]
		}`))
	}))

	rr := get(t, s, "/stops.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var stops []struct {
		StopRef string `json:"stop_ref"`
		StopID  int    `json:"stop_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stops); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if len(stops) != 1 || stops[0].StopRef != "301" || stops[0].StopID != 301 {
		t.Errorf("unexpected stops payload: %+v", stops)
	}
}

func TestNearbyBadCoordinates(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("bad coordinates must not touch the upstream")
	}))

	for _, path := range []string{
		"/stops/nearby.json",
		"/stops/nearby.json?latitude=abc&longitude=-9.05",
		"/stops/nearby.json?latitude=53.27",
	} {
		rr := get(t, s, path)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: wrong status code: got %v want %v", path, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestNearbyNotShadowedByStopRoute(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/busstopinformation":
			w.Write([]byte(`{
				"errorcode": "0",
				"results": [{"stopid": "301", "shortname": "Eyre Square", "fullname": "Eyre Square North", "latitude": "53.2743", "longitude": "-9.0514", "operators": [{"name": "be", "routes": ["401"]}]}]
			}`))
		case "/realtimebusinformation":
			w.Write([]byte(`{"errorcode": "1", "results": []}`))
		}
	}))

	rr := get(t, s, "/stops/nearby.json?latitude=53.2743&longitude=-9.0514")
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status code: got %v want %v (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var nearby []struct {
		StopRef  string  `json:"stop_ref"`
		Distance float64 `json:"distance"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &nearby); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if len(nearby) != 1 || nearby[0].StopRef != "301" {
		t.Errorf("unexpected nearby payload: %+v", nearby)
	}
}

func TestStopNotFound(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorcode": "0", "results": []}`))
	}))

	rr := get(t, s, "/stops/12345.json")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
}

func TestSchedulesEndpoint(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("schedules must not touch the upstream")
	}))

	rr := get(t, s, "/schedules.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	// Each link marshals as a single-pair {name: url} object.
	var schedules map[string][]map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &schedules); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	links, ok := schedules["401"]
	if !ok || len(links) != 1 {
		t.Fatalf("schedule links for 401 missing: %+v", schedules)
	}
	for name, url := range links[0] {
		if name == "" || !strings.Contains(url, "401") {
			t.Errorf("unexpected schedule link: %q -> %q", name, url)
		}
	}
}

func TestUnknownPathPayload(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := get(t, s, "/no/such/path")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("wrong content type: %q", ct)
	}

	var payload struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error parsing response: %v", err)
	}
	if payload.Code != 404 {
		t.Errorf("unexpected error payload: %+v", payload)
	}
}

func TestIndexServesHTML(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := get(t, s, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("wrong content type: %q", ct)
	}
}
