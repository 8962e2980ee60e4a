package domain

import (
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"
)

// Aggregate holds the arithmetic mean temperature of one grid cell at one
// timestamp. Exactly one Aggregate exists per (cell, timestamp) pair with
// at least one matched observation. A pair with no matched observations
// produces no Aggregate at all, so "no data" stays distinguishable from a
// zero-valued mean.
type Aggregate struct {
	Cell  CellID
	Time  time.Time
	Mean  float64
	Count int
}

// AggStats summarizes one aggregation pass.
type AggStats struct {
	Groups  int
	Dropped int // unmatched records excluded from every group
}

type aggKey struct {
	cell CellID
	unix int64
}

// AggregateMeans groups matched records by (cell, timestamp) and computes
// the mean temperature per group. Unmatched records contribute to no group
// and are counted in AggStats.Dropped. The result is sorted by cell then
// timestamp, so identical inputs always produce identical output.
func AggregateMeans(records []JoinedRecord) ([]Aggregate, AggStats) {
	values := make(map[aggKey][]float64)
	times := make(map[aggKey]time.Time)
	var st AggStats

	for _, r := range records {
		if !r.Matched {
			st.Dropped++
			continue
		}
		key := aggKey{cell: r.Cell, unix: r.Obs.Time.UnixNano()}
		values[key] = append(values[key], r.Obs.Temperature)
		if _, ok := times[key]; !ok {
			times[key] = r.Obs.Time
		}
	}

	aggs := make([]Aggregate, 0, len(values))
	for key, vs := range values {
		aggs = append(aggs, Aggregate{
			Cell:  key.cell,
			Time:  times[key],
			Mean:  stats.Mean(vs),
			Count: len(vs),
		})
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].Cell != aggs[j].Cell {
			return aggs[i].Cell < aggs[j].Cell
		}
		return aggs[i].Time.Before(aggs[j].Time)
	})

	st.Groups = len(aggs)
	return aggs, st
}

// AggregateTimes returns the distinct timestamps present in aggs, sorted
// ascending. These are the frames of the animated rendering.
func AggregateTimes(aggs []Aggregate) []time.Time {
	seen := make(map[int64]time.Time)
	for _, a := range aggs {
		seen[a.Time.UnixNano()] = a.Time
	}
	times := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

// AggregateRange returns the minimum and maximum mean across all
// aggregates. The bounds anchor the fixed color scale shared by every
// rendered frame. ok is false when aggs is empty.
func AggregateRange(aggs []Aggregate) (min, max float64, ok bool) {
	if len(aggs) == 0 {
		return 0, 0, false
	}
	min, max = aggs[0].Mean, aggs[0].Mean
	for _, a := range aggs[1:] {
		if a.Mean < min {
			min = a.Mean
		}
		if a.Mean > max {
			max = a.Mean
		}
	}
	return min, max, true
}
