package shapefile_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/shapefile"
	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

type gridRow struct {
	geom.Polygon
	Row int
}

// writeGridFixture encodes a rows x cols grid of 1x1 degree cells with its
// lower-left corner at (x0, y0) and returns the .shp path.
func writeGridFixture(t *testing.T, rows, cols int, x0, y0 float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "grid.shp")
	enc, err := shp.NewEncoder(path, gridRow{})
	require.NoError(t, err)

	n := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cx, cy := x0+float64(c), y0+float64(r)
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

func TestSourceLoad(t *testing.T) {
	path := writeGridFixture(t, 2, 2, -73, 41)
	src := shapefile.NewSource(path, slog.Default())

	cells, err := src.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, cells, 4)
	for i, cell := range cells {
		assert.Equal(t, domain.CellID(i), cell.ID)
	}

	b := cells[0].Bounds()
	assert.InDelta(t, -73.0, b.Min.X, 1e-9)
	assert.InDelta(t, 41.0, b.Min.Y, 1e-9)
	assert.InDelta(t, -72.0, b.Max.X, 1e-9)
	assert.InDelta(t, 42.0, b.Max.Y, 1e-9)
}

func TestSourceLoadMissingFile(t *testing.T) {
	src := shapefile.NewSource(filepath.Join(t.TempDir(), "nope.shp"), slog.Default())

	_, err := src.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
}

func TestSourceLoadCancelledContext(t *testing.T) {
	path := writeGridFixture(t, 1, 1, 0, 0)
	src := shapefile.NewSource(path, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
