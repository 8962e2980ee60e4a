package domain

import (
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitCell returns a 1x1 degree square cell with its lower-left corner at
// (x0, y0).
func unitCell(id CellID, x0, y0 float64) GridCell {
	return GridCell{
		ID: id,
		Polygon: geom.Polygon{{
			{X: x0, Y: y0},
			{X: x0 + 1, Y: y0},
			{X: x0 + 1, Y: y0 + 1},
			{X: x0, Y: y0 + 1},
		}},
	}
}

func pointAt(lon, lat float64) GeoObservation {
	return GeoObservation{
		Observation: Observation{
			Time:        time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
			Latitude:    lat,
			Longitude:   lon,
			Temperature: 270.0,
		},
		Point: geom.Point{X: lon, Y: lat},
	}
}

func TestJoinerJoin(t *testing.T) {
	cells := []GridCell{
		unitCell(0, 0, 0),
		unitCell(1, 1, 0),
		unitCell(2, 0, 1),
	}
	joiner := NewJoiner(cells)

	t.Run("interior points match their cell", func(t *testing.T) {
		points := []GeoObservation{
			pointAt(0.5, 0.5),
			pointAt(1.5, 0.5),
			pointAt(0.5, 1.5),
		}

		records, stats := joiner.Join(points)

		require.Len(t, records, 3)
		assert.Equal(t, CellID(0), records[0].Cell)
		assert.Equal(t, CellID(1), records[1].Cell)
		assert.Equal(t, CellID(2), records[2].Cell)
		for _, r := range records {
			assert.True(t, r.Matched)
		}
		assert.Equal(t, JoinStats{Matched: 3}, stats)
	})

	t.Run("matched point geometry intersects its cell", func(t *testing.T) {
		records, _ := joiner.Join([]GeoObservation{pointAt(0.25, 0.75)})

		require.True(t, records[0].Matched)
		cell := cells[records[0].Cell]
		w := records[0].Obs.Point.Within(cell.Polygon)
		assert.True(t, w == geom.Inside || w == geom.OnEdge)
	})

	t.Run("outside point stays unmatched", func(t *testing.T) {
		records, stats := joiner.Join([]GeoObservation{pointAt(5, 5)})

		require.Len(t, records, 1)
		assert.False(t, records[0].Matched)
		assert.Equal(t, JoinStats{Unmatched: 1}, stats)
	})

	t.Run("left join keeps every input row", func(t *testing.T) {
		points := []GeoObservation{
			pointAt(0.5, 0.5),
			pointAt(-10, -10),
			pointAt(1.5, 0.5),
		}

		records, stats := joiner.Join(points)

		assert.Len(t, records, len(points))
		assert.Equal(t, 2, stats.Matched)
		assert.Equal(t, 1, stats.Unmatched)
	})

	t.Run("shared edge resolves to lowest cell id", func(t *testing.T) {
		// (1, 0.5) lies on the boundary between cells 0 and 1.
		records, stats := joiner.Join([]GeoObservation{pointAt(1, 0.5)})

		require.True(t, records[0].Matched)
		assert.Equal(t, CellID(0), records[0].Cell)
		assert.Equal(t, 1, stats.MultiMatch)
	})

	t.Run("shared corner resolves to lowest cell id", func(t *testing.T) {
		// (1, 1) touches cells 0, 1, and 2.
		records, _ := joiner.Join([]GeoObservation{pointAt(1, 1)})

		require.True(t, records[0].Matched)
		assert.Equal(t, CellID(0), records[0].Cell)
	})

	t.Run("tie-break is stable across runs", func(t *testing.T) {
		points := []GeoObservation{pointAt(1, 0.5), pointAt(1, 1)}

		first, _ := joiner.Join(points)
		for i := 0; i < 10; i++ {
			again, _ := joiner.Join(points)
			assert.Equal(t, first, again)
		}
	})

	t.Run("no input", func(t *testing.T) {
		records, stats := joiner.Join(nil)

		assert.Empty(t, records)
		assert.Equal(t, JoinStats{}, stats)
	})
}
