// Package shapefile loads grid-cell polygons from an ESRI shapefile bundle.
package shapefile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// outputProj is the common reference frame every geometry is converted to
// before any spatial work: longitude/latitude degrees on the WGS-84
// ellipsoid.
const outputProj = "+proj=longlat"

// Source reads grid cells from a shapefile.
// It implements pipeline.GridSource.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates a grid source for the given .shp path. The sidecar
// .dbf/.shx files are expected alongside it; a .prj is used when present.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// Load reads the full polygon set into memory, reprojects it to WGS-84
// longitude/latitude, and assigns cell IDs by row order. Sources without a
// readable .prj are assumed to already be in lon/lat degrees. There are no
// partial loads: any decode or reprojection failure fails the whole call.
func (s *Source) Load(ctx context.Context) ([]domain.GridCell, error) {
	dec, err := shp.NewDecoder(s.path)
	if err != nil {
		return nil, fmt.Errorf("grid source %s: %w: %w", s.path, domain.ErrSourceUnreadable, err)
	}
	defer dec.Close()

	reproject := func(g geom.Geom) (geom.Geom, error) { return g, nil }
	if srcSR, srErr := dec.SR(); srErr != nil {
		s.logger.Warn("grid projection unreadable, assuming WGS-84 lon/lat", "path", s.path, "error", srErr)
	} else {
		dstSR, err := proj.Parse(outputProj)
		if err != nil {
			return nil, fmt.Errorf("grid source: parse output projection: %w", err)
		}
		trans, err := srcSR.NewTransform(dstSR)
		if err != nil {
			return nil, fmt.Errorf("grid source %s: build transform: %w: %w", s.path, domain.ErrSourceUnreadable, err)
		}
		reproject = func(g geom.Geom) (geom.Geom, error) { return g.Transform(trans) }
	}

	var cells []domain.GridCell
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		gg, err := reproject(g)
		if err != nil {
			return nil, fmt.Errorf("grid source %s row %d: reproject: %w: %w", s.path, len(cells), domain.ErrSourceUnreadable, err)
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("grid source %s row %d: %w: geometry is %T, want polygon", s.path, len(cells), domain.ErrSourceUnreadable, gg)
		}
		cells = append(cells, domain.GridCell{ID: domain.CellID(len(cells)), Polygon: poly})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("grid source %s: decode: %w: %w", s.path, domain.ErrSourceUnreadable, err)
	}

	s.logger.Info("grid loaded", "path", s.path, "cells", len(cells))
	return cells, nil
}
