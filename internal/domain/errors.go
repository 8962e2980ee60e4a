package domain

import "errors"

// Stage failures surface as one of these sentinels, wrapped with context at
// the failure site and matched with errors.Is. They replace the raw parser
// and library errors that would otherwise propagate opaquely.
var (
	// ErrSourceUnreadable reports that a grid or observation source could
	// not be opened, decoded, or parsed.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrNoRowsInRange reports that the date filter kept zero observations.
	ErrNoRowsInRange = errors.New("no rows in range")

	// ErrNoGeometryMatch reports that the spatial join matched zero points
	// to any grid cell.
	ErrNoGeometryMatch = errors.New("no geometry match")

	// ErrAggregationEmpty reports that aggregation produced zero groups.
	ErrAggregationEmpty = errors.New("aggregation empty")
)
