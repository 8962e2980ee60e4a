package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	testStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2022, 1, 14, 0, 0, 0, 0, time.UTC)
)

func obsAt(t time.Time) Observation {
	return Observation{Time: t, Latitude: 41.5, Longitude: -72.75, Temperature: 271.3}
}

func TestIntervalContains(t *testing.T) {
	window := Interval{Start: testStart, End: testEnd}

	tests := []struct {
		name     string
		ts       time.Time
		expected bool
	}{
		{"start boundary", testStart, true},
		{"end boundary", testEnd, true},
		{"inside", time.Date(2022, 1, 7, 12, 0, 0, 0, time.UTC), true},
		{"one day before start", testStart.AddDate(0, 0, -1), false},
		{"one day after end", testEnd.AddDate(0, 0, 1), false},
		{"one second before start", testStart.Add(-time.Second), false},
		{"one second after end", testEnd.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, window.Contains(tt.ts))
		})
	}
}

func TestFilterObservations(t *testing.T) {
	window := Interval{Start: testStart, End: testEnd}

	t.Run("keeps boundary rows and drops outside rows", func(t *testing.T) {
		obs := []Observation{
			obsAt(testStart.AddDate(0, 0, -1)),
			obsAt(testStart),
			obsAt(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)),
			obsAt(testEnd),
			obsAt(testEnd.AddDate(0, 0, 1)),
		}

		kept := FilterObservations(obs, window)

		assert.Len(t, kept, 3)
		for _, o := range kept {
			assert.True(t, window.Contains(o.Time), "row %v escaped the interval", o.Time)
		}
	})

	t.Run("empty result is valid", func(t *testing.T) {
		obs := []Observation{obsAt(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))}

		kept := FilterObservations(obs, window)

		assert.Empty(t, kept)
		assert.NotNil(t, kept)
	})

	t.Run("no input", func(t *testing.T) {
		assert.Empty(t, FilterObservations(nil, window))
	})
}

func TestBuildPoints(t *testing.T) {
	t.Run("one point per row in lon lat order", func(t *testing.T) {
		obs := []Observation{
			{Time: testStart, Latitude: 41.5, Longitude: -72.75, Temperature: 270.0},
			{Time: testStart, Latitude: 41.75, Longitude: -72.5, Temperature: 272.0},
		}

		points := BuildPoints(obs)

		assert.Len(t, points, len(obs))
		for i, p := range points {
			assert.Equal(t, obs[i].Longitude, p.Point.X, "X must carry longitude")
			assert.Equal(t, obs[i].Latitude, p.Point.Y, "Y must carry latitude")
			assert.Equal(t, obs[i], p.Observation)
		}
	})

	t.Run("out of range coordinates pass through", func(t *testing.T) {
		obs := []Observation{{Time: testStart, Latitude: 999, Longitude: -999}}

		points := BuildPoints(obs)

		assert.Len(t, points, 1)
		assert.Equal(t, -999.0, points[0].Point.X)
		assert.Equal(t, 999.0, points[0].Point.Y)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildPoints(nil))
	})
}
