package pipeline_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/obscsv"
	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/shapefile"
	"github.com/couchcryptid/temp-choropleth-service/internal/pipeline"
	"github.com/couchcryptid/temp-choropleth-service/internal/render"
)

type gridRow struct {
	geom.Polygon
	Row int
}

// writeGrid encodes a 2x2 grid of 1x1 degree cells with its lower-left
// corner at (-73, 41) and returns the .shp path. Cells are numbered
// row-major, so cell 0 covers [-73,-72]x[41,42] and cell 3 covers
// [-72,-71]x[42,43].
func writeGrid(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "grid.shp")
	enc, err := shp.NewEncoder(path, gridRow{})
	require.NoError(t, err)

	n := 0
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			cx, cy := -73+float64(c), 41+float64(r)
			poly := geom.Polygon{{
				{X: cx, Y: cy},
				{X: cx + 1, Y: cy},
				{X: cx + 1, Y: cy + 1},
				{X: cx, Y: cy + 1},
			}}
			require.NoError(t, enc.Encode(gridRow{Polygon: poly, Row: n}))
			n++
		}
	}
	enc.Close()
	return path
}

// writeObservations builds a CSV covering the interesting join cases: two
// rows averaging in cell 0, single rows in cells 1 and 3, a row exactly on
// the cell 0 / cell 1 boundary, a row matching no cell, and a row outside
// the date window.
func writeObservations(t *testing.T, dir string) string {
	t.Helper()

	rows := []string{
		"time,latitude,longitude,t2m",
		"2022-01-02 00:00:00,41.5,-72.5,270.0",
		"2022-01-02 00:00:00,41.5,-72.5,272.0",
		"2022-01-02 00:00:00,42.5,-71.5,280.0",
		"2022-01-02 01:00:00,41.5,-71.5,281.0",
		"2022-01-02 01:00:00,41.5,-72.0,265.0",
		"2022-01-02 00:00:00,50.0,-60.0,300.0",
		"2021-06-01 00:00:00,41.5,-72.5,260.0",
	}
	path := filepath.Join(dir, "observations.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644))
	return path
}

func newFixturePipeline(t *testing.T) (*pipeline.Pipeline, *render.Output, string) {
	t.Helper()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	logger := slog.Default()
	cfg := render.DefaultConfig()

	grid := shapefile.NewSource(writeGrid(t, dir), logger)
	obs := obscsv.NewSource(writeObservations(t, dir), logger)
	out := render.NewOutput(cfg, outDir, logger)

	p := pipeline.New(grid, obs, out, nil, cfg.DateRange, logger, newTestMetrics())
	return p, out, outDir
}

func TestPipeline_WithGridAndCSVFixtures(t *testing.T) {
	p, out, outDir := newFixturePipeline(t)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, report.Loaded)
	assert.Equal(t, 6, report.Filtered)
	assert.Equal(t, 5, report.Matched)
	assert.Equal(t, 1, report.Unmatched)
	assert.Equal(t, 1, report.MultiMatch, "the boundary row touches two cells")
	assert.Equal(t, 4, report.Aggregates)
	assert.Equal(t, 2, report.Frames)

	for _, name := range []string{
		render.FrameFileName(0),
		render.FrameFileName(1),
		render.AnimationFile,
		render.StaticFile,
	} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	page, err := os.ReadFile(filepath.Join(outDir, render.AnimationFile))
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "Connecticut 2m Temperature")
	assert.Contains(t, html, "2022-01-02 00:00 UTC")
	assert.Contains(t, html, "2022-01-02 01:00 UTC")

	require.NotNil(t, out.Animation())
	assert.Equal(t, 2, out.Animation().FrameCount())
}

func TestPipeline_RerunProducesSameCounts(t *testing.T) {
	p, _, outDir := newFixturePipeline(t)

	first, err := p.Run(context.Background())
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Loaded, second.Loaded)
	assert.Equal(t, first.Filtered, second.Filtered)
	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.Unmatched, second.Unmatched)
	assert.Equal(t, first.Aggregates, second.Aggregates)
	assert.Equal(t, first.Frames, second.Frames)

	_, err = os.Stat(filepath.Join(outDir, render.FrameFileName(0)))
	assert.NoError(t, err)
}
