// Package webdisplay parses live departures from the legacy text
// display, an HTML page carrying one table row per departure. It is
// an alternate upstream to the structured real-time API.
package webdisplay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/galwaybus/galway-bus-api/internal/models"
)

// TranslateFunc resolves the Irish localization of a destination
// display name, returning "" when unknown.
type TranslateFunc func(name string) string

// Client fetches the display page for a stop.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchDepartures downloads and parses the display page for stopRef.
func (c *Client) FetchDepartures(ctx context.Context, stopRef string, now time.Time, translate TranslateFunc) ([]models.Departure, error) {
	u := fmt.Sprintf("%s?stopRef=%s", c.baseURL, url.QueryEscape(stopRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "galway-bus-api/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch display page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch display page: unexpected status %d", resp.StatusCode)
	}

	return ParseDepartures(resp.Body, now, translate)
}

// ParseDepartures extracts departures from a display document. Each
// table row with at least four cells yields one departure: route id,
// destination, time of day, low-floor flag. Rows with fewer cells are
// skipped.
func ParseDepartures(r io.Reader, now time.Time, translate TranslateFunc) ([]models.Departure, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse display page: %w", err)
	}

	var times []models.Departure

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		route := strings.TrimSpace(cells.Eq(0).Text())
		destination := strings.TrimSpace(cells.Eq(1).Text())
		timeText := strings.TrimSpace(cells.Eq(2).Text())
		lowFloorText := strings.TrimSpace(cells.Eq(3).Text())

		dep := models.Departure{
			DisplayName: destination,
			TimetableID: route,
			LowFloor:    strings.EqualFold(lowFloorText, "yes"),
		}
		if translate != nil {
			dep.IrishDisplayName = translate(destination)
		}
		if t, ok := resolveDisplayTime(timeText, now); ok {
			dep.DepartTimestamp = t.UTC().Format(time.RFC3339)
		}

		times = append(times, dep)
	})

	return times, nil
}

// resolveDisplayTime maps the display's three time encodings to an
// absolute instant: "Due" is now, "N Min(s)" is now plus N minutes,
// and "HH:mm" is today at that clock time. Clock strings get no
// day-rollover handling; a departure just after midnight resolves to
// the wrong day, a known limitation of this source.
func resolveDisplayTime(s string, now time.Time) (time.Time, bool) {
	if strings.EqualFold(s, "Due") {
		return now, true
	}

	if strings.Contains(s, "Min") {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return time.Time{}, false
		}
		mins, err := strconv.Atoi(fields[0])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(time.Duration(mins) * time.Minute), true
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), true
}
