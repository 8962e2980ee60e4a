package domain

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// JoinedRecord pairs a geo observation with the grid cell containing its
// point. A record with Matched false carries no valid Cell; such records
// are retained through the join so that downstream stages can count them
// instead of losing them silently.
type JoinedRecord struct {
	Obs     GeoObservation
	Cell    CellID
	Matched bool
}

// JoinStats summarizes one join pass.
type JoinStats struct {
	Matched    int
	Unmatched  int
	MultiMatch int // points that intersected more than one cell
}

// Joiner matches observation points to grid cells through an r-tree index.
type Joiner struct {
	index *rtree.Rtree
}

// NewJoiner builds the spatial index over the given cells.
func NewJoiner(cells []GridCell) *Joiner {
	index := rtree.NewTree(25, 50)
	for _, c := range cells {
		index.Insert(c)
	}
	return &Joiner{index: index}
}

// Join performs a left join of points against the indexed cells. Every
// input point yields exactly one output record. The match predicate is
// containment: the point lies inside the cell polygon or on its boundary.
//
// A point on a shared edge or corner intersects more than one cell; the
// lowest CellID wins. The tie-break is total and independent of index
// traversal order, so repeated runs on the same inputs produce the same
// assignments.
func (j *Joiner) Join(points []GeoObservation) ([]JoinedRecord, JoinStats) {
	records := make([]JoinedRecord, len(points))
	var stats JoinStats

	for i, p := range points {
		best := CellID(-1)
		hits := 0
		for _, item := range j.index.SearchIntersect(p.Point.Bounds()) {
			cell := item.(GridCell)
			if w := p.Point.Within(cell.Polygon); w != geom.Inside && w != geom.OnEdge {
				continue
			}
			hits++
			if best < 0 || cell.ID < best {
				best = cell.ID
			}
		}

		if hits == 0 {
			records[i] = JoinedRecord{Obs: p}
			stats.Unmatched++
			continue
		}
		if hits > 1 {
			stats.MultiMatch++
		}
		records[i] = JoinedRecord{Obs: p, Cell: best, Matched: true}
		stats.Matched++
	}

	return records, stats
}
