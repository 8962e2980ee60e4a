// Package domain models gridded temperature data and the pure
// transformations of the choropleth pipeline.
//
// # Data Source
//
// Observations originate from the ERA5 reanalysis published by the
// Copernicus Climate Change Service. The extraction tool flattens ERA5
// NetCDF files into CSV rows of (time, latitude, longitude, t2m), where
// t2m is the 2-meter air temperature in Kelvin on a 0.25 degree regular
// grid. ERA5 encodes time as hours since 1900-01-01 00:00 UTC; all
// timestamps in this package are plain UTC instants.
//
// The grid itself is a shapefile of rectangular cell polygons covering the
// region of interest. Cells carry no identifying attributes of their own;
// a cell's identity is its row position in the shapefile, assigned at load
// time as [CellID]. Both sources are normalized to WGS-84
// longitude/latitude degrees before any geometry runs.
//
// # Pipeline Semantics
//
// The stages are pure functions over immutable slices, applied once per
// run in a fixed order:
//
//	FilterObservations  keeps rows inside a closed date interval.
//	                    Both endpoints are inclusive; a row exactly on
//	                    either boundary stays.
//	BuildPoints         one point per row, (longitude, latitude) order,
//	                    no coordinate validation.
//	Joiner.Join         left join of points against cells. The predicate
//	                    is containment, boundary included. Every point
//	                    yields exactly one record, matched or not.
//	AggregateMeans      arithmetic mean of temperature per (cell, time)
//	                    group over matched records only.
//
// # Unmatched Points
//
// A point outside every cell produces a [JoinedRecord] with Matched false.
// Such records survive the join and are counted when aggregation drops
// them, so row loss is always visible in [JoinStats] and [AggStats] rather
// than silent.
//
// # Tie-Break
//
// A point on a shared cell edge or corner is contained by more than one
// polygon. The join assigns it to the lowest [CellID] among the matches.
// The rule is total and cheap, does not depend on r-tree traversal order,
// and keeps every observation in exactly one cell's mean.
//
// # Missing vs. Zero
//
// A (cell, timestamp) pair with no matched observations yields no
// [Aggregate] row at all. Renderers treat the absence as "no data" and
// leave the cell unpainted; a zero-valued mean would instead paint it at
// the cold end of the scale, which is wrong for Kelvin temperatures.
package domain
