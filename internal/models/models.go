package models

import "encoding/json"

// Stop represents a bus stop as served to clients. StopRef is the
// upstream-issued identifier and the only durable key; StopID is an
// integer projection of it and is not guaranteed unique across
// upstream updates.
type Stop struct {
	StopRef        string   `json:"stop_ref"`
	StopID         int      `json:"stop_id"`
	ShortName      string   `json:"short_name"`
	LongName       string   `json:"long_name"`
	IrishShortName string   `json:"irish_short_name"`
	IrishLongName  string   `json:"irish_long_name"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Routes         []string `json:"routes,omitempty"`

	// Direction context inherited from the route direction the stop
	// was last seen in. Set during route aggregation only.
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	IrishFrom string `json:"irish_from,omitempty"`
	IrishTo   string `json:"irish_to,omitempty"`

	// Distance in meters from the reference point of a nearby query.
	// Per-request annotation, never cached.
	Distance float64 `json:"distance,omitempty"`
}

// HasRoute reports whether the stop is served by the given route.
func (s *Stop) HasRoute(route string) bool {
	for _, r := range s.Routes {
		if r == route {
			return true
		}
	}
	return false
}

// Route represents a bus route. Routes are static reference data,
// never refreshed from upstream.
type Route struct {
	TimetableID int    `json:"timetable_id"`
	LongName    string `json:"long_name"`
	ShortName   string `json:"short_name"`
}

// Departure represents a single live departure from a stop. Departures
// are produced per query and never stored.
type Departure struct {
	DisplayName      string `json:"display_name"`
	IrishDisplayName string `json:"irish_display_name,omitempty"`
	TimetableID      string `json:"timetable_id"`
	LowFloor         bool   `json:"low_floor"`
	DepartTimestamp  string `json:"depart_timestamp,omitempty"`
}

// RouteDetail is the /routes/{id}.json response: the route plus its
// stops merged into inbound and outbound lists.
type RouteDetail struct {
	Route Route     `json:"route"`
	Stops [][]*Stop `json:"stops"`
}

// StopTimes is the /stops/{ref}.json response.
type StopTimes struct {
	Stop  *Stop       `json:"stop"`
	Times []Departure `json:"times"`
}

// NearbyStop is a ranked stop with best-effort live departures
// attached. Times is omitted when the departure fetch failed.
type NearbyStop struct {
	Stop
	Times []Departure `json:"times,omitempty"`
}

// ScheduleLink is a named link to a schedule PDF. It marshals as a
// single-pair object, `{"Salthill - Eyre Square": "http://..."}`.
type ScheduleLink struct {
	Name string
	URL  string
}

func (l ScheduleLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{l.Name: l.URL})
}
