// Package rtpi fetches stops, route directions and live departures
// from the structured real-time passenger information API and
// normalizes them into the internal schema.
package rtpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/galwaybus/galway-bus-api/internal/models"
)

var (
	// ErrUnavailable covers network failures and non-200 upstream
	// responses.
	ErrUnavailable = errors.New("rtpi: upstream unavailable")

	// ErrMalformed covers bodies that fail to decode and failing
	// error-code checks.
	ErrMalformed = errors.New("rtpi: upstream response malformed")
)

const maxAttempts = 3

// Direction is one origin→destination stop sequence of a route.
type Direction struct {
	Origin           string
	IrishOrigin      string
	Destination      string
	IrishDestination string
	Stops            []*models.Stop
}

// Client talks to the RTPI API for a single operator.
type Client struct {
	baseURL    string
	operator   string
	httpClient *http.Client
	loc        *time.Location

	// now is replaceable in tests; it fixes the instant used for DST
	// resolution.
	now func() time.Time

	// retryDelay scales the backoff between attempts.
	retryDelay time.Duration
}

// NewClient creates a client for the given base URL and operator code.
func NewClient(baseURL, operator string, timeout time.Duration) *Client {
	loc, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		loc = time.UTC
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		operator:   operator,
		httpClient: &http.Client{Timeout: timeout},
		loc:        loc,
		now:        time.Now,
		retryDelay: time.Second,
	}
}

// FetchStops returns every stop the operator serves, normalized but
// unfiltered.
func (c *Client) FetchStops(ctx context.Context) ([]*models.Stop, error) {
	u := fmt.Sprintf("%s/busstopinformation?operator=%s", c.baseURL, url.QueryEscape(c.operator))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp stopInformationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode stop information: %v", ErrMalformed, err)
	}
	if err := checkErrorCode(resp.ErrorCode, false); err != nil {
		return nil, err
	}

	stops := make([]*models.Stop, 0, len(resp.Results))
	for _, r := range resp.Results {
		stops = append(stops, c.normalizeStop(r))
	}
	return stops, nil
}

// FetchRouteDirections returns the direction stop lists for a route.
func (c *Client) FetchRouteDirections(ctx context.Context, routeID int) ([]Direction, error) {
	u := fmt.Sprintf("%s/routeinformation?operator=%s&routeid=%d", c.baseURL, url.QueryEscape(c.operator), routeID)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp routeInformationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode route information: %v", ErrMalformed, err)
	}
	if err := checkErrorCode(resp.ErrorCode, false); err != nil {
		return nil, err
	}

	directions := make([]Direction, 0, len(resp.Results))
	for _, d := range resp.Results {
		dir := Direction{
			Origin:           d.Origin,
			IrishOrigin:      d.OriginLocalized,
			Destination:      d.Destination,
			IrishDestination: d.DestinationLocalized,
			Stops:            make([]*models.Stop, 0, len(d.Stops)),
		}
		for _, s := range d.Stops {
			dir.Stops = append(dir.Stops, c.normalizeStop(s))
		}
		directions = append(directions, dir)
	}
	return directions, nil
}

// FetchDepartures returns the live departures for a stop. An upstream
// errorcode of 1 (no results) is success with an empty list.
func (c *Client) FetchDepartures(ctx context.Context, stopRef string) ([]models.Departure, error) {
	u := fmt.Sprintf("%s/realtimebusinformation?operator=%s&stopid=%s", c.baseURL, url.QueryEscape(c.operator), url.QueryEscape(stopRef))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp realtimeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode real-time information: %v", ErrMalformed, err)
	}
	if err := checkErrorCode(resp.ErrorCode, true); err != nil {
		return nil, err
	}

	dst := c.now().In(c.loc).IsDST()

	times := make([]models.Departure, 0, len(resp.Results))
	for _, r := range resp.Results {
		dep := models.Departure{
			DisplayName:      r.Destination,
			IrishDisplayName: r.DestinationLocalized,
			TimetableID:      r.Route,
			LowFloor:         r.LowFloorStatus == "yes",
		}
		if r.DepartureDateTime != "" {
			if t, err := ResolveDepartureTime(r.DepartureDateTime, dst); err == nil {
				dep.DepartTimestamp = t.UTC().Format(time.RFC3339)
			}
		}
		times = append(times, dep)
	}
	return times, nil
}

// ResolveDepartureTime parses the upstream's zone-less
// "DD/MM/YYYY HH:mm:ss" local time. The upstream omits a UTC offset,
// so the caller decides whether the query instant is in Irish summer
// time and the matching fixed offset is appended before parsing.
func ResolveDepartureTime(s string, dst bool) (time.Time, error) {
	offset := "+0000"
	if dst {
		offset = "+0100"
	}
	return time.Parse("02/01/2006 15:04:05-0700", s+offset)
}

func (c *Client) normalizeStop(r stopResult) *models.Stop {
	stopID, _ := strconv.Atoi(r.StopID)
	lat, _ := strconv.ParseFloat(r.Latitude, 64)
	lon, _ := strconv.ParseFloat(r.Longitude, 64)

	irishShort := r.ShortNameLocalized
	irishLong := r.FullNameLocalized
	// If only one language variant is present, both take its value.
	if irishShort != "" && irishLong == "" {
		irishLong = irishShort
	} else if irishLong != "" && irishShort == "" {
		irishShort = irishLong
	}

	return &models.Stop{
		StopRef:        r.StopID,
		StopID:         stopID,
		ShortName:      r.ShortName,
		LongName:       r.FullName,
		IrishShortName: irishShort,
		IrishLongName:  irishLong,
		Latitude:       lat,
		Longitude:      lon,
		Routes:         c.routesFor(r),
	}
}

// routesFor picks the route list of the client's operator, falling
// back to the first operator listed.
func (c *Client) routesFor(r stopResult) []string {
	for _, op := range r.Operators {
		if strings.EqualFold(op.Name, c.operator) {
			return op.Routes
		}
	}
	if len(r.Operators) > 0 {
		return r.Operators[0].Routes
	}
	return nil
}

func checkErrorCode(code string, acceptNoResults bool) error {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("%w: bad errorcode %q", ErrMalformed, code)
	}
	if n == 0 || (acceptNoResults && n == 1) {
		return nil
	}
	return fmt.Errorf("%w: errorcode %d", ErrMalformed, n)
}

// get performs a GET with bounded retry on network errors and
// transient status codes.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		req.Header.Set("User-Agent", "galway-bus-api/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
			}
			return body, nil
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			resp.Body.Close()
			lastErr = fmt.Errorf("transient status %d", resp.StatusCode)
			continue
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("%w: giving up after %d attempts: %v", ErrUnavailable, maxAttempts, lastErr)
}
