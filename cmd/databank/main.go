// Package main is the entry point for the databank indicator cache server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"databank/config"
	"databank/internal/bytestore"
	"databank/internal/catalog"
	"databank/internal/data360"
	"databank/internal/indicator"
	"databank/internal/logging"
	"databank/internal/server"
	"databank/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	configFlag := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(cfg.Logging.Format, cfg.Logging.Level)

	// Log the version immediately on startup
	slog.Info("starting databank",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	// Open the byte store backing the indicator cache
	store, err := bytestore.Open(bytestore.Config{
		Backend:  cfg.Store.Backend,
		Path:     cfg.Store.Path,
		RedisURL: cfg.Store.RedisURL,
		MaxBytes: cfg.Store.MaxBytes,
	})
	if err != nil {
		slog.Error("failed to open byte store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}

	cache := indicator.New(store)
	defer func() {
		if err := cache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}()
	slog.Info("indicator cache ready", "backend", cfg.Store.Backend)

	// Remote Data360 client
	source := data360.NewClient(data360.Options{
		BaseURL: cfg.Source.BaseURL,
		Timeout: cfg.Source.Timeout,
	})

	// Local indicator catalog
	cat, err := catalog.Load(cfg.Catalog.MetadataPath, cfg.Catalog.PopularPath)
	if err != nil {
		slog.Error("failed to load indicator catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "indicators", cat.Len())

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	// Create and start server
	handler := server.NewHandler(cache, source, cat)
	srv := server.New(handler, &server.Config{
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
