package domain

import (
	"time"

	"github.com/ctessum/geom"
)

// Observation is one gridded weather reading: a timestamp, a WGS-84
// coordinate pair, and the 2-meter air temperature in Kelvin.
type Observation struct {
	Time        time.Time
	Latitude    float64
	Longitude   float64
	Temperature float64
}

// GeoObservation is an Observation augmented with its point geometry,
// built in (longitude, latitude) order. Construction is 1:1 with the
// source rows; no validation is applied to the coordinates, so points
// outside the grid simply match no cell during the join.
type GeoObservation struct {
	Observation
	Point geom.Point
}

// Interval is a closed time interval. Both endpoints are inside it.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the interval, endpoints included.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// IsZero reports whether both endpoints are unset.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// FilterObservations returns the observations whose timestamp lies within
// the closed interval. Rows outside it never reach later stages. An empty
// result is valid output here; callers decide whether that is an error.
func FilterObservations(obs []Observation, window Interval) []Observation {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if window.Contains(o.Time) {
			kept = append(kept, o)
		}
	}
	return kept
}

// BuildPoints converts observations into geo observations, one point per
// row in (longitude, latitude) order. The output length always equals the
// input length.
func BuildPoints(obs []Observation) []GeoObservation {
	points := make([]GeoObservation, len(obs))
	for i, o := range obs {
		points[i] = GeoObservation{
			Observation: o,
			Point:       geom.Point{X: o.Longitude, Y: o.Latitude},
		}
	}
	return points
}
