// Package refdata holds the static route and schedule tables. These
// are deployment configuration, not cached upstream data: they are
// loaded once at startup and never refreshed.
package refdata

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/galwaybus/galway-bus-api/internal/models"
)

// Tables is the static reference data for a deployment.
type Tables struct {
	Routes    map[int]models.Route
	Schedules map[int][]models.ScheduleLink
}

// RouteIDs returns the timetable ids in ascending order.
func (t *Tables) RouteIDs() []int {
	ids := make([]int, 0, len(t.Routes))
	for id := range t.Routes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasRoute reports whether the timetable id is part of this
// deployment's service area.
func (t *Tables) HasRoute(id int) bool {
	_, ok := t.Routes[id]
	return ok
}

type routeEntry struct {
	TimetableID int    `yaml:"timetable_id" validate:"gt=0"`
	LongName    string `yaml:"long_name" validate:"required"`
	ShortName   string `yaml:"short_name" validate:"required"`
}

type scheduleEntry struct {
	TimetableID int    `yaml:"timetable_id" validate:"gt=0"`
	Name        string `yaml:"name" validate:"required"`
	URL         string `yaml:"url" validate:"required,url"`
}

type tablesFile struct {
	Routes    []routeEntry    `yaml:"routes"`
	Schedules []scheduleEntry `yaml:"schedules"`
}

// Load returns the built-in tables, or tables read from the YAML file
// at path when path is non-empty. A missing override file is an
// error; fix the path or unset it.
func Load(path string) (*Tables, error) {
	if path == "" {
		return defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}

	v := validator.New()
	for _, r := range file.Routes {
		if err := v.Struct(r); err != nil {
			return nil, fmt.Errorf("invalid route entry: %w", err)
		}
	}
	for _, s := range file.Schedules {
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("invalid schedule entry: %w", err)
		}
	}

	tables := &Tables{
		Routes:    make(map[int]models.Route, len(file.Routes)),
		Schedules: make(map[int][]models.ScheduleLink),
	}
	for _, r := range file.Routes {
		tables.Routes[r.TimetableID] = models.Route{
			TimetableID: r.TimetableID,
			LongName:    r.LongName,
			ShortName:   r.ShortName,
		}
	}
	for _, s := range file.Schedules {
		tables.Schedules[s.TimetableID] = append(tables.Schedules[s.TimetableID], models.ScheduleLink{
			Name: s.Name,
			URL:  s.URL,
		})
	}
	return tables, nil
}

func defaults() *Tables {
	routes := []models.Route{
		{TimetableID: 401, LongName: "Salthill - Eyre Square", ShortName: "Salthill"},
		{TimetableID: 402, LongName: "Merlin Park - Eyre Square - Seacrest", ShortName: "Merlin Park - Seacrest"},
		{TimetableID: 403, LongName: "Eyre Square - Castlepark", ShortName: "Castlepark"},
		{TimetableID: 404, LongName: "Newcastle - Eyre Square - Oranmore", ShortName: "Newcastle - Oranmore"},
		{TimetableID: 405, LongName: "Rahoon - Eyre Square - Ballybane", ShortName: "Rahoon - Ballybane"},
		{TimetableID: 407, LongName: "Eyre Square - Bóthar an Chóiste", ShortName: "Bóthar an Chóiste"},
		{TimetableID: 409, LongName: "Eyre Square - GMIT - Parkmore", ShortName: "Parkmore / GMIT"},
	}

	schedules := map[int][]models.ScheduleLink{
		401: {{Name: "Salthill - Eyre Square", URL: "http://www.buseireann.ie/timetables/1425472464-401.pdf"}},
		402: {{Name: "Merlin Park - Eyre Square - Seacrest", URL: "http://www.buseireann.ie/timetables/1464192900-402.pdf"}},
		403: {{Name: "Eyre Square - Castlepark", URL: "http://www.buseireann.ie/timetables/1464193090-403.pdf"}},
		404: {{Name: "Newcastle - Eyre Square - Oranmore", URL: "http://www.buseireann.ie/timetables/1475580187-404.pdf"}},
		405: {{Name: "Rahoon - Eyre Square - Ballybane", URL: "http://www.buseireann.ie/timetables/1475580263-405.pdf"}},
		407: {{Name: "Eyre Square - Bóthar an Chóiste and return", URL: "http://www.buseireann.ie/timetables/1425472732-407.pdf"}},
		409: {{Name: "Eyre Square - GMIT - Parkmore", URL: "http://www.buseireann.ie/timetables/1475580323-409.pdf"}},
	}

	tables := &Tables{
		Routes:    make(map[int]models.Route, len(routes)),
		Schedules: schedules,
	}
	for _, r := range routes {
		tables.Routes[r.TimetableID] = r
	}
	return tables
}
