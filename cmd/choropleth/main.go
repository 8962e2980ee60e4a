// Command choropleth runs the temperature choropleth pipeline: load the
// grid shapefile and observation CSV, filter, join, aggregate, and render
// the animated and static maps. With -serve the process stays up and
// serves the result over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/temp-choropleth-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/temp-choropleth-service/internal/adapter/kafka"
	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/obscsv"
	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/shapefile"
	"github.com/couchcryptid/temp-choropleth-service/internal/config"
	"github.com/couchcryptid/temp-choropleth-service/internal/observability"
	"github.com/couchcryptid/temp-choropleth-service/internal/pipeline"
	"github.com/couchcryptid/temp-choropleth-service/internal/render"
)

func main() {
	gridPath := flag.String("grid", "", "grid shapefile path (overrides GRID_PATH)")
	obsPath := flag.String("obs", "", "observations CSV path (overrides OBS_PATH)")
	outDir := flag.String("out", "", "output directory (overrides OUT_DIR)")
	serve := flag.Bool("serve", false, "keep serving the rendered maps over HTTP after the run")
	flag.Parse()

	// A .env is a development convenience; deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *gridPath != "" {
		cfg.GridPath = *gridPath
	}
	if *obsPath != "" {
		cfg.ObsPath = *obsPath
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *serve {
		cfg.ServeEnabled = true
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	grid := shapefile.NewSource(cfg.GridPath, logger)
	obs := obscsv.NewSource(cfg.ObsPath, logger)
	output := render.NewOutput(cfg.Render, cfg.OutDir, logger)

	// Publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(grid, obs, output, publisher, cfg.Render.DateRange, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.ServeEnabled {
		report, err := p.Run(ctx)
		closeWriter(writer, logger)
		if err != nil {
			logger.Error("pipeline failed", "error", err)
			os.Exit(1)
		}
		logger.Info("done",
			"run_id", report.RunID,
			"frames", report.Frames,
			"aggregates", report.Aggregates,
			"out", cfg.OutDir,
		)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, output, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the pipeline once; the server keeps serving the result.
	go func() {
		if _, err := p.Run(ctx); err != nil {
			logger.Error("pipeline failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
