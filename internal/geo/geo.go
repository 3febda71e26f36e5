// Package geo ranks stops by great-circle distance from a reference
// point.
package geo

import (
	"math"
	"sort"

	"github.com/galwaybus/galway-bus-api/internal/models"
)

// MaxNearbyStops caps the result of a nearby ranking.
const MaxNearbyStops = 10

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dPhi := (lat2 - lat1) * math.Pi / 180.0
	dLambda := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Rank returns up to MaxNearbyStops stops ordered by ascending
// distance from (lat, lon). If route is non-empty, stops not serving
// that route are removed before truncation. Ties keep the input
// order. The returned stops are copies with Distance populated; the
// input slice is not mutated.
func Rank(lat, lon float64, stops []*models.Stop, route string) []*models.Stop {
	if route != "" {
		stops = filter(stops, func(s *models.Stop) bool {
			return s.HasRoute(route)
		})
	}

	ranked := make([]*models.Stop, len(stops))
	for i, s := range stops {
		copied := *s
		copied.Distance = Haversine(lat, lon, s.Latitude, s.Longitude)
		ranked[i] = &copied
	}

	// Equal distances are possible for colocated stops; the sort must
	// be stable so ties keep the input order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	if len(ranked) > MaxNearbyStops {
		ranked = ranked[:MaxNearbyStops]
	}
	return ranked
}

func filter[T any](items []T, fn func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}
