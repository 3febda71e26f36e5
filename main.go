package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/galwaybus/galway-bus-api/internal/api"
	"github.com/galwaybus/galway-bus-api/internal/config"
	"github.com/galwaybus/galway-bus-api/internal/refdata"
	"github.com/galwaybus/galway-bus-api/internal/rtpi"
	"github.com/galwaybus/galway-bus-api/internal/transit"
	"github.com/galwaybus/galway-bus-api/internal/webdisplay"
)

var (
	listenAddr = flag.String("listen", "", "HTTP listen address (overrides LISTEN_ADDR)")
	staticDir  = flag.String("static", "public", "directory of static files served at /")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	tables, err := refdata.Load(cfg.RefdataPath)
	if err != nil {
		log.Fatalf("Failed to load reference data: %v", err)
	}

	rtpiClient := rtpi.NewClient(cfg.RTPIBaseURL, cfg.Operator, cfg.FetchTimeout)

	var display *webdisplay.Client
	if cfg.WebDisplayURL != "" {
		display = webdisplay.NewClient(cfg.WebDisplayURL, cfg.FetchTimeout)
		log.Printf("Departure source: web display at %s", cfg.WebDisplayURL)
	}

	svc := transit.NewService(cfg, tables, rtpiClient, display)

	apiServer := api.NewServer(svc, *staticDir)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Warm the caches at startup and re-warm as entries expire. The
	// warm-up is never awaited by the serving path.
	if cfg.WarmCache {
		go svc.Warm(context.Background())

		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(cfg.CacheTTL)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					svc.Warm(context.Background())
				case <-done:
					return
				}
			}
		}()
	}

	// Start server
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for termination signal
	<-quit
	log.Println("Shutting down server...")

	// Signal all goroutines to stop
	close(done)

	// Gracefully shut down server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Wait for all goroutines to complete
	wg.Wait()
	log.Println("Server exited properly")
}
