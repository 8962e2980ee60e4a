package render

import (
	"fmt"
	"io"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
	"github.com/ctessum/geom"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// RenderStatic writes a single SVG of every cell outline with every
// observation point on top. Independent of aggregation; same viewport
// rules as the animation. The attribution doubles as the x axis label.
func RenderStatic(w io.Writer, cells []domain.GridCell, points []domain.GeoObservation, cfg Config) error {
	var (
		outlineIDs []string
		lons, lats []float64
	)
	for _, cell := range cells {
		for ri, ring := range rings(cell.Polygon) {
			if len(ring) == 0 {
				continue
			}
			id := fmt.Sprintf("%d/%d", cell.ID, ri)
			for _, v := range ring {
				outlineIDs = append(outlineIDs, id)
				lons = append(lons, v.X)
				lats = append(lats, v.Y)
			}
			// Close the ring so the last edge draws.
			if ring[len(ring)-1] != ring[0] {
				outlineIDs = append(outlineIDs, id)
				lons = append(lons, ring[0].X)
				lats = append(lats, ring[0].Y)
			}
		}
	}
	outlines := new(table.Builder).
		Add("outline", outlineIDs).
		Add("longitude", lons).
		Add("latitude", lats).
		Done()

	plot := gg.NewPlot(table.GroupBy(outlines, "outline"))
	applyViewport(plot, cfg)
	plot.Add(gg.LayerPaths{X: "longitude", Y: "latitude"})

	if len(points) > 0 {
		plons := make([]float64, len(points))
		plats := make([]float64, len(points))
		for i, p := range points {
			plons[i] = p.Point.X
			plats[i] = p.Point.Y
		}
		pts := new(table.Builder).
			Add("longitude", plons).
			Add("latitude", plats).
			Done()
		plot.Save()
		plot.SetData(pts)
		plot.Add(gg.LayerPoints{X: "longitude", Y: "latitude"})
		plot.Restore()
	}

	plot.Add(gg.Title(cfg.Title))
	plot.Add(gg.AxisLabel("x", cfg.Attribution))

	if err := plot.WriteSVG(w, cfg.Width, cfg.Height); err != nil {
		return fmt.Errorf("static map: %w", err)
	}
	return nil
}

// rings flattens a polygonal geometry into its rings.
func rings(p geom.Polygonal) [][]geom.Point {
	var out [][]geom.Point
	for _, poly := range p.Polygons() {
		out = append(out, poly...)
	}
	return out
}
