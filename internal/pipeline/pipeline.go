package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
	"github.com/couchcryptid/temp-choropleth-service/internal/observability"
)

// GridSource loads the grid cells, normalized to lon/lat degrees.
type GridSource interface {
	Load(ctx context.Context) ([]domain.GridCell, error)
}

// ObservationSource loads the raw temperature observations.
type ObservationSource interface {
	Load(ctx context.Context) ([]domain.Observation, error)
}

// Renderer draws a run's outputs and reports how many frames it wrote.
type Renderer interface {
	Render(ctx context.Context, cells []domain.GridCell, points []domain.GeoObservation, aggs []domain.Aggregate) (int, error)
}

// Publisher ships the aggregates downstream.
type Publisher interface {
	Publish(ctx context.Context, aggs []domain.Aggregate) error
}

// Report summarizes one pipeline run. Unmatched points are reported
// here rather than silently dropped.
type Report struct {
	RunID      string
	Loaded     int
	Filtered   int
	Matched    int
	Unmatched  int
	MultiMatch int
	Aggregates int
	Frames     int
	Duration   time.Duration
}

// Pipeline orchestrates the load-filter-join-aggregate-render run.
type Pipeline struct {
	grid      GridSource
	obs       ObservationSource
	renderer  Renderer
	publisher Publisher // nil when publishing is disabled
	window    domain.Interval
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
// publisher may be nil.
func New(grid GridSource, obs ObservationSource, r Renderer, pub Publisher, window domain.Interval, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		grid:      grid,
		obs:       obs,
		renderer:  r,
		publisher: pub,
		window:    window,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed a run,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes the stages in order, stopping at the first failure.
// Empty stage outputs surface as the domain sentinel errors rather
// than an empty render. The returned Report carries whatever counts
// were reached.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := domain.Now()
	report := Report{RunID: runID}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	logger.Info("pipeline started",
		"window_start", p.window.Start.Format(time.RFC3339),
		"window_end", p.window.End.Format(time.RFC3339),
	)

	cells, err := p.grid.Load(ctx)
	if err != nil {
		return report, err
	}
	logger.Info("grid cells loaded", "cells", len(cells))

	obs, err := p.obs.Load(ctx)
	if err != nil {
		return report, err
	}
	report.Loaded = len(obs)
	p.metrics.ObservationsLoaded.Add(float64(len(obs)))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	filtered := domain.FilterObservations(obs, p.window)
	report.Filtered = len(filtered)
	p.metrics.ObservationsFiltered.Add(float64(len(filtered)))
	logger.Info("observations filtered", "loaded", len(obs), "kept", len(filtered))
	if len(filtered) == 0 {
		return report, fmt.Errorf("window %s to %s: %w",
			p.window.Start.Format(time.RFC3339), p.window.End.Format(time.RFC3339),
			domain.ErrNoRowsInRange)
	}

	points := domain.BuildPoints(filtered)

	records, js := domain.NewJoiner(cells).Join(points)
	report.Matched, report.Unmatched, report.MultiMatch = js.Matched, js.Unmatched, js.MultiMatch
	p.metrics.PointsMatched.Add(float64(js.Matched))
	p.metrics.PointsUnmatched.Add(float64(js.Unmatched))
	logger.Info("points joined",
		"matched", js.Matched,
		"unmatched", js.Unmatched,
		"multi_match", js.MultiMatch,
	)
	if js.Unmatched > 0 {
		logger.Warn("points outside every grid cell", "unmatched", js.Unmatched)
	}
	if js.Matched == 0 {
		return report, fmt.Errorf("join against %d cells: %w", len(cells), domain.ErrNoGeometryMatch)
	}

	aggs, as := domain.AggregateMeans(records)
	report.Aggregates = len(aggs)
	p.metrics.LastRunAggregates.Set(float64(len(aggs)))
	logger.Info("aggregates computed", "groups", len(aggs), "dropped_unmatched", as.Dropped)
	if len(aggs) == 0 {
		return report, fmt.Errorf("aggregate: %w", domain.ErrAggregationEmpty)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	frames, err := p.renderer.Render(ctx, cells, points, aggs)
	if err != nil {
		return report, fmt.Errorf("render: %w", err)
	}
	report.Frames = frames
	p.metrics.FramesRendered.Add(float64(frames))

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, aggs); err != nil {
			p.metrics.PublishErrors.Inc()
			return report, fmt.Errorf("publish: %w", err)
		}
		p.metrics.AggregatesPublished.Add(float64(len(aggs)))
	}

	report.Duration = domain.Now().Sub(start)
	p.metrics.PipelineDuration.Observe(report.Duration.Seconds())
	p.ready.Store(true)
	logger.Info("pipeline complete",
		"frames", report.Frames,
		"aggregates", report.Aggregates,
		"duration", report.Duration,
	)
	return report, nil
}
