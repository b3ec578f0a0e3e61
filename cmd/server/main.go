package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/gtfsload/internal/config"
	"github.com/JonMunkholm/gtfsload/internal/gtfs"
	"github.com/JonMunkholm/gtfsload/internal/logging"
	"github.com/JonMunkholm/gtfsload/internal/metrics"
	"github.com/JonMunkholm/gtfsload/internal/service"
	"github.com/JonMunkholm/gtfsload/internal/source"
	"github.com/JonMunkholm/gtfsload/internal/store"
	"github.com/JonMunkholm/gtfsload/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	history, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	defer history.Close()

	var s3 source.ObjectGetter
	if cfg.Storage.Enabled() {
		client, err := source.NewS3Client(ctx, source.S3Config{
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PathStyle:       cfg.Storage.PathStyle,
		})
		if err != nil {
			slog.Error("failed to configure s3", "error", err)
			os.Exit(1)
		}
		s3 = client
		slog.Info("s3 locations enabled", "region", cfg.Storage.Region, "endpoint", cfg.Storage.Endpoint)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	validator := service.New(service.ConfigFrom(cfg), s3, history, m)

	slog.Info("tables registered", "count", gtfs.TableCount())
	for _, info := range gtfs.Infos() {
		slog.Debug("table", "name", info.Name, "required", info.Required)
	}

	server := web.NewServer(cfg, validator, m)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := validator.Status(); status.Active > 0 {
			slog.Info("waiting for validations to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
