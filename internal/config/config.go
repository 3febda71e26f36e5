// Package config loads process configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `validate:"required"`

	// RTPIBaseURL is the base URL of the structured real-time
	// passenger information API.
	RTPIBaseURL string `validate:"required,url"`

	// Operator is the RTPI operator code used on every upstream call.
	Operator string `validate:"required"`

	// WebDisplayURL, when set, enables the scraped legacy text-display
	// departure source instead of the RTPI real-time endpoint.
	WebDisplayURL string `validate:"omitempty,url"`

	// HubName is the interchange used to bucket route directions into
	// inbound and outbound.
	HubName      string `validate:"required"`
	IrishHubName string

	// ServiceAreaMode selects how in-service stops are retained:
	// "routes" keeps stops serving a known timetable id, "distance"
	// keeps stops within ServiceAreaRadius meters of the reference
	// coordinate.
	ServiceAreaMode   string  `validate:"oneof=routes distance"`
	ServiceAreaLat    float64 `validate:"gte=-90,lte=90"`
	ServiceAreaLon    float64 `validate:"gte=-180,lte=180"`
	ServiceAreaRadius float64 `validate:"gt=0"`

	// StopSource selects the upstream shape for the stop list:
	// "rtpi" is the single bulk stop fetch, "clustered" fans out one
	// fetch per known route and merges the results.
	StopSource string `validate:"oneof=rtpi clustered"`

	CacheTTL     time.Duration `validate:"gt=0"`
	FetchTimeout time.Duration `validate:"gt=0"`

	// FanoutTimeout bounds parallel upstream fan-outs (per-stop
	// departure fetches on nearby queries, per-route stop fetches in
	// clustered mode) so a stalled upstream call cannot hang a
	// request.
	FanoutTimeout time.Duration `validate:"gt=0"`

	// WarmCache launches the startup cache-warming goroutine.
	WarmCache bool

	// RefdataPath optionally overrides the built-in route and
	// schedule tables from a YAML file.
	RefdataPath string
}

// Load reads configuration from the environment with defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		RTPIBaseURL:   getEnv("RTPI_BASE_URL", "https://data.dublinked.ie/cgi-bin/rtpi"),
		Operator:      getEnv("RTPI_OPERATOR", "be"),
		WebDisplayURL: getEnv("WEB_DISPLAY_URL", ""),

		HubName:      getEnv("HUB_NAME", "Eyre Square"),
		IrishHubName: getEnv("IRISH_HUB_NAME", "An Fhaiche Mhór"),

		ServiceAreaMode:   getEnv("SERVICE_AREA_MODE", "routes"),
		ServiceAreaLat:    getFloatEnv("SERVICE_AREA_LAT", 53.2743),
		ServiceAreaLon:    getFloatEnv("SERVICE_AREA_LON", -9.0514),
		ServiceAreaRadius: getFloatEnv("SERVICE_AREA_RADIUS_METERS", 25000),

		StopSource: getEnv("STOP_SOURCE", "rtpi"),

		CacheTTL:      getDurationEnv("CACHE_TTL_HOURS", 24*time.Hour, time.Hour),
		FetchTimeout:  getDurationEnv("FETCH_TIMEOUT_SECONDS", 10*time.Second, time.Second),
		FanoutTimeout: getDurationEnv("FANOUT_TIMEOUT_SECONDS", 8*time.Second, time.Second),

		WarmCache:   getBoolEnv("WARM_CACHE", true),
		RefdataPath: getEnv("REFDATA_PATH", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return f
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return b
}

// getDurationEnv reads an integer count of the given unit.
func getDurationEnv(key string, fallback time.Duration, unit time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return time.Duration(n) * unit
}
