package domain

import "github.com/ctessum/geom"

// CellID identifies a grid cell by its row position in the source polygon
// collection. IDs are assigned once at load time and stay stable for the
// lifetime of the process.
type CellID int

// GridCell is one polygon of the weather grid's spatial discretization,
// in WGS-84 longitude/latitude degrees.
type GridCell struct {
	ID      CellID
	Polygon geom.Polygonal
}

// Bounds returns the cell's bounding box, satisfying rtree.Spatial.
func (c GridCell) Bounds() *geom.Bounds {
	return c.Polygon.Bounds()
}

// Centroid returns the cell's centroid point.
func (c GridCell) Centroid() geom.Point {
	return c.Polygon.Centroid()
}
