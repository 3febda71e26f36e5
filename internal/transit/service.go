// Package transit aggregates upstream transit data behind the TTL
// caches: it merges route directions into inbound/outbound stop
// lists, maintains the in-service stop list, and attaches live
// departures.
package transit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/galwaybus/galway-bus-api/internal/cache"
	"github.com/galwaybus/galway-bus-api/internal/config"
	"github.com/galwaybus/galway-bus-api/internal/geo"
	"github.com/galwaybus/galway-bus-api/internal/models"
	"github.com/galwaybus/galway-bus-api/internal/refdata"
	"github.com/galwaybus/galway-bus-api/internal/rtpi"
	"github.com/galwaybus/galway-bus-api/internal/webdisplay"
)

// ErrNotFound marks a requested route or stop id that is not present.
var ErrNotFound = errors.New("transit: not found")

// stopListKey is the single key of the whole-stop-list cache domain.
const stopListKey = "stops"

// Service orchestrates fetching, normalization, caching and ranking.
// One Service is constructed at startup and shared by all handlers.
type Service struct {
	cfg     *config.Config
	tables  *refdata.Tables
	rtpi    *rtpi.Client
	display *webdisplay.Client

	stopCache  *cache.Store[[]*models.Stop]
	routeCache *cache.Store[*models.RouteDetail]

	translations *Translations

	now func() time.Time
}

// NewService creates the aggregator. display may be nil; when set it
// replaces the structured real-time API as the departure source.
func NewService(cfg *config.Config, tables *refdata.Tables, client *rtpi.Client, display *webdisplay.Client) *Service {
	s := &Service{
		cfg:          cfg,
		tables:       tables,
		rtpi:         client,
		display:      display,
		stopCache:    cache.New[[]*models.Stop](cfg.CacheTTL),
		routeCache:   cache.New[*models.RouteDetail](cfg.CacheTTL),
		translations: NewTranslations(),
		now:          time.Now,
	}
	s.translations.Put(cfg.HubName, cfg.IrishHubName)
	return s
}

// Routes returns the static route table.
func (s *Service) Routes() map[int]models.Route {
	return s.tables.Routes
}

// Schedules returns the static schedule-link table.
func (s *Service) Schedules() map[int][]models.ScheduleLink {
	return s.tables.Schedules
}

// RouteDetail returns the route with its stops merged into inbound
// and outbound lists, served from the per-route cache when fresh.
func (s *Service) RouteDetail(ctx context.Context, id int) (*models.RouteDetail, error) {
	route, ok := s.tables.Routes[id]
	if !ok {
		return nil, fmt.Errorf("%w: route %d", ErrNotFound, id)
	}

	key := strconv.Itoa(id)
	if detail, ok := s.routeCache.Get(key); ok {
		log.Printf("Route %d hitting cache", id)
		return detail, nil
	}

	directions, err := s.rtpi.FetchRouteDirections(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch directions for route %d: %w", id, err)
	}

	inbound, outbound := s.mergeDirections(directions)
	detail := &models.RouteDetail{
		Route: route,
		Stops: [][]*models.Stop{inbound, outbound},
	}

	s.routeCache.Set(key, detail)
	log.Printf("Updated cache for route %d (%d inbound, %d outbound stops)", id, len(inbound), len(outbound))
	return detail, nil
}

// mergeDirections buckets direction stop lists into inbound (heading
// to the hub) and outbound (leaving the hub), records
// origin/destination translations, and stamps each stop with its
// direction context.
func (s *Service) mergeDirections(directions []rtpi.Direction) (inbound, outbound []*models.Stop) {
	hub := s.cfg.HubName

	// Heuristic: when no direction touches the configured hub, the
	// destination of the first unmatched direction becomes the hub
	// for this merge. Order-dependent and not guaranteed stable
	// across upstream updates.
	matched := false
	for _, d := range directions {
		if d.Origin == hub || d.Destination == hub {
			matched = true
			break
		}
	}
	if !matched && len(directions) > 0 {
		hub = directions[0].Destination
	}

	inbound = make([]*models.Stop, 0)
	outbound = make([]*models.Stop, 0)

	for _, d := range directions {
		s.translations.Put(d.Origin, d.IrishOrigin)
		s.translations.Put(d.Destination, d.IrishDestination)

		for _, stop := range d.Stops {
			stop.From = d.Origin
			stop.To = d.Destination
			stop.IrishFrom = d.IrishOrigin
			stop.IrishTo = d.IrishDestination
		}

		switch {
		case d.Destination == hub:
			inbound = append(inbound, d.Stops...)
		case d.Origin == hub:
			outbound = append(outbound, d.Stops...)
		}
	}
	return inbound, outbound
}

// Stops returns the in-service stop list, served from the global
// cache when fresh.
func (s *Service) Stops(ctx context.Context) ([]*models.Stop, error) {
	if stops, ok := s.stopCache.Get(stopListKey); ok {
		log.Println("Stop list hitting cache")
		return stops, nil
	}

	var stops []*models.Stop
	var err error
	if s.cfg.StopSource == "clustered" {
		stops, err = s.clusteredStops(ctx)
	} else {
		stops, err = s.bulkStops(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.stopCache.Set(stopListKey, stops)
	log.Printf("Updated cache for stops (%d in service area)", len(stops))
	return stops, nil
}

// bulkStops fetches the operator's full stop list and retains only
// stops inside the service area.
func (s *Service) bulkStops(ctx context.Context) ([]*models.Stop, error) {
	raw, err := s.rtpi.FetchStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stops: %w", err)
	}

	stops := make([]*models.Stop, 0, len(raw))
	for _, stop := range raw {
		if s.inServiceArea(stop) {
			stops = append(stops, stop)
		}
	}
	return stops, nil
}

// inServiceArea applies the deployment's membership rule: a known
// route number, or proximity to the reference coordinate.
func (s *Service) inServiceArea(stop *models.Stop) bool {
	if s.cfg.ServiceAreaMode == "distance" {
		d := geo.Haversine(s.cfg.ServiceAreaLat, s.cfg.ServiceAreaLon, stop.Latitude, stop.Longitude)
		return d < s.cfg.ServiceAreaRadius
	}

	for _, r := range stop.Routes {
		if id, err := strconv.Atoi(r); err == nil && s.tables.HasRoute(id) {
			return true
		}
	}
	return false
}

// clusteredStops assembles the stop list by fanning out one direction
// fetch per known route and merging the results. Sub-fetches that
// fail contribute no stops; the merge happens once every sub-fetch
// has completed or the deadline has expired.
func (s *Service) clusteredStops(ctx context.Context) ([]*models.Stop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FanoutTimeout)
	defer cancel()

	routeIDs := s.tables.RouteIDs()
	results := make(chan []*models.Stop, len(routeIDs))

	var succeeded int32
	var wg sync.WaitGroup
	for _, id := range routeIDs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			directions, err := s.rtpi.FetchRouteDirections(ctx, id)
			if err != nil {
				log.Printf("Stop fetch for route %d failed: %v", id, err)
				return
			}
			atomic.AddInt32(&succeeded, 1)

			route := strconv.Itoa(id)
			var stops []*models.Stop
			for _, d := range directions {
				for _, stop := range d.Stops {
					copied := *stop
					copied.Routes = []string{route}
					stops = append(stops, &copied)
				}
			}
			results <- stops
		}(id)
	}
	wg.Wait()
	close(results)

	// Zero successes is an outage, not an empty service area. It must
	// surface as an error so the empty list is never cached.
	if atomic.LoadInt32(&succeeded) == 0 && len(routeIDs) > 0 {
		return nil, fmt.Errorf("%w: every per-route stop fetch failed", rtpi.ErrUnavailable)
	}

	// Merge by stop_ref, unioning the route sets of duplicates.
	merged := make(map[string]*models.Stop)
	for batch := range results {
		for _, stop := range batch {
			existing, ok := merged[stop.StopRef]
			if !ok {
				merged[stop.StopRef] = stop
				continue
			}
			for _, r := range stop.Routes {
				if !existing.HasRoute(r) {
					existing.Routes = append(existing.Routes, r)
				}
			}
		}
	}

	stops := make([]*models.Stop, 0, len(merged))
	for _, stop := range merged {
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].StopRef < stops[j].StopRef })
	return stops, nil
}

// StopByRef returns the stop with the given stop_ref plus its live
// departures.
func (s *Service) StopByRef(ctx context.Context, ref string) (*models.StopTimes, error) {
	stops, err := s.Stops(ctx)
	if err != nil {
		return nil, err
	}

	var stop *models.Stop
	for _, candidate := range stops {
		if candidate.StopRef == ref {
			stop = candidate
			break
		}
	}
	if stop == nil {
		return nil, fmt.Errorf("%w: stop %s", ErrNotFound, ref)
	}

	times, err := s.Departures(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &models.StopTimes{Stop: stop, Times: times}, nil
}

// Departures returns the live departures for a stop from whichever
// upstream this deployment uses.
func (s *Service) Departures(ctx context.Context, ref string) ([]models.Departure, error) {
	if s.display != nil {
		return s.display.FetchDepartures(ctx, ref, s.now(), s.translations.Lookup)
	}

	times, err := s.rtpi.FetchDepartures(ctx, ref)
	if err != nil {
		return nil, err
	}
	for i := range times {
		if times[i].IrishDisplayName == "" {
			times[i].IrishDisplayName = s.translations.Lookup(times[i].DisplayName)
		}
	}
	return times, nil
}

// Nearby returns the ranked nearest stops with best-effort live
// departures: per-stop fetches run in parallel under a deadline, and
// a stop whose fetch fails or times out simply carries no times.
func (s *Service) Nearby(ctx context.Context, lat, lon float64, route string) ([]*models.NearbyStop, error) {
	stops, err := s.Stops(ctx)
	if err != nil {
		return nil, err
	}

	ranked := geo.Rank(lat, lon, stops, route)

	fanCtx, cancel := context.WithTimeout(ctx, s.cfg.FanoutTimeout)
	defer cancel()

	nearby := make([]*models.NearbyStop, len(ranked))
	var wg sync.WaitGroup
	for i, stop := range ranked {
		nearby[i] = &models.NearbyStop{Stop: *stop}

		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			times, err := s.Departures(fanCtx, ref)
			if err != nil {
				log.Printf("Departures for stop %s unavailable: %v", ref, err)
				return
			}
			nearby[i].Times = times
		}(i, stop.StopRef)
	}
	wg.Wait()

	return nearby, nil
}

// Warm populates the stop and per-route caches. It runs in the
// background at startup; the serving path never waits on it.
func (s *Service) Warm(ctx context.Context) {
	log.Println("Warming caches")

	if _, err := s.Stops(ctx); err != nil {
		log.Printf("Stop cache warm-up failed: %v", err)
	}
	for _, id := range s.tables.RouteIDs() {
		if _, err := s.RouteDetail(ctx, id); err != nil {
			log.Printf("Route %d cache warm-up failed: %v", id, err)
		}
	}

	log.Printf("Cache warm-up complete (%d routes, %d translations)", len(s.tables.Routes), s.translations.Len())
}
