// Copyright 2025 GOVRES Settlement Authority
//
// govresd - the GOVRES core settlement service
//
// Wires the ledger engine, the sealing loop, the optional PostgreSQL
// persistence adapter, and the Prometheus metrics listener.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/govres/govres/pkg/config"
	"github.com/govres/govres/pkg/database"
	"github.com/govres/govres/pkg/ledger"
)

func main() {
	logger := log.New(os.Stdout, "[govresd] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	engine := ledger.New(&ledger.Config{
		ValidatorID:   cfg.ValidatorID,
		BlockInterval: cfg.BlockInterval,
		MaxTxPerBlock: config.MaxTxPerBlock,
		Logger:        log.New(os.Stdout, "[Ledger] ", log.LstdFlags),
	})

	// The adapter must subscribe before Initialize so the genesis events
	// reach the mirror.
	var adapter *database.Adapter
	if cfg.DatabaseURL != "" {
		client, err := database.NewClient(cfg)
		if err != nil {
			if cfg.DatabaseRequired {
				logger.Fatalf("Failed to connect to database: %v", err)
			}
			logger.Printf("Persistence disabled, continuing without database: %v", err)
		} else {
			defer client.Close()

			migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := client.Migrate(migrateCtx); err != nil {
				cancel()
				logger.Fatalf("Failed to apply migrations: %v", err)
			}
			cancel()

			adapter = database.NewAdapter(engine, client, nil)
			adapter.Start(cfg.EventBufferSize)
		}
	}

	if err := engine.Initialize(); err != nil {
		logger.Fatalf("Failed to initialize ledger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		logger.Fatalf("Failed to start sealing loop: %v", err)
	}

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Printf("Metrics listening on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received %s, shutting down", sig)

	// Stop the ticker, seal whatever is pending, then drain the adapter.
	engine.Stop()
	for {
		sealed, err := engine.Flush()
		if err != nil {
			logger.Printf("Final flush failed: %v", err)
			break
		}
		if sealed == nil {
			break
		}
	}
	if adapter != nil {
		adapter.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Metrics shutdown failed: %v", err)
	}

	logger.Println("Shutdown complete")
}
