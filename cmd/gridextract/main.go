// Command gridextract converts a directory of dated ERA5 NetCDF files
// into the observation CSV the pipeline loads. Files inside the
// configured date window are extracted in name order; a bad file is
// reported and skipped.
//
// Usage:
//
//	go run ./cmd/gridextract -in data/era5 -out data/observations.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/temp-choropleth-service/internal/config"
	"github.com/couchcryptid/temp-choropleth-service/internal/extract"
	"github.com/couchcryptid/temp-choropleth-service/internal/observability"
)

func main() {
	inDir := flag.String("in", "data/era5", "directory containing ERA5 NetCDF files")
	outPath := flag.String("out", "", "output CSV path (defaults to OBS_PATH)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outPath == "" {
		*outPath = cfg.ObsPath
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ex := extract.New(*inDir, *outPath, cfg.Render.DateRange, extract.OpenNetCDF, logger, metrics)
	sum, runErr := ex.Run(ctx)

	fmt.Printf("run %s: %d file(s) extracted, %d row(s) -> %s in %s\n",
		sum.RunID, sum.FilesProcessed, sum.Rows, *outPath, sum.Duration.Round(time.Millisecond))
	if len(sum.FilesFailed) > 0 {
		fmt.Printf("%d file(s) failed:\n", len(sum.FilesFailed))
		for i, f := range sum.FilesFailed {
			fmt.Printf("  [%d] %s: %s\n", i+1, f.Name, f.Reason)
		}
	}

	if runErr != nil {
		logger.Error("extraction failed", "error", runErr)
		os.Exit(1)
	}
}
