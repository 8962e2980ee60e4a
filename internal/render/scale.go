package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/aclements/go-gg/gg"
)

// tileSize is the pixel edge of one web-map tile; zoom 0 shows 360
// degrees of longitude per tile.
const tileSize = 256

// Viewport is the fixed lon/lat window every frame and the static map
// draw. Derived from MapCenter and ZoomLevel, never from the data, so
// the view doesn't jump between frames.
type Viewport struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Viewport computes the map window for the configured center, zoom and
// output size. Degrees per pixel follow the web-map convention; the
// latitude span uses the same scale (equirectangular, fine at state
// scale).
func (c Config) Viewport() Viewport {
	degPerPx := 360 / (math.Exp2(c.ZoomLevel) * tileSize)
	halfLon := degPerPx * float64(c.Width) / 2
	halfLat := degPerPx * float64(c.Height) / 2
	return Viewport{
		MinLon: c.MapCenter.Lon - halfLon,
		MaxLon: c.MapCenter.Lon + halfLon,
		MinLat: c.MapCenter.Lat - halfLat,
		MaxLat: c.MapCenter.Lat + halfLat,
	}
}

// applyViewport pins the x and y scales to the config's window.
func applyViewport(plot *gg.Plot, cfg Config) {
	vp := cfg.Viewport()
	plot.SetScale("x", gg.NewLinearScaler().SetMin(vp.MinLon).SetMax(vp.MaxLon))
	plot.SetScale("y", gg.NewLinearScaler().SetMin(vp.MinLat).SetMax(vp.MaxLat))
}

// ylOrRd is the ColorBrewer YlOrRd ramp, 9 classes.
var ylOrRd = []color.Color{
	color.RGBA{0xff, 0xff, 0xcc, 0xff},
	color.RGBA{0xff, 0xed, 0xa0, 0xff},
	color.RGBA{0xfe, 0xd9, 0x76, 0xff},
	color.RGBA{0xfe, 0xb2, 0x4c, 0xff},
	color.RGBA{0xfd, 0x8d, 0x3c, 0xff},
	color.RGBA{0xfc, 0x4e, 0x2a, 0xff},
	color.RGBA{0xe3, 0x1a, 0x1c, 0xff},
	color.RGBA{0xbd, 0x00, 0x26, 0xff},
	color.RGBA{0x80, 0x00, 0x26, 0xff},
}

// rampFor maps a ColorScale name to the fill Ranger it selects. A nil
// Ranger keeps the plot default, a continuous viridis gradient.
func rampFor(name string) (gg.Ranger, error) {
	switch name {
	case "viridis":
		return nil, nil
	case "ylorrd":
		return gg.NewColorRanger(ylOrRd), nil
	}
	return nil, fmt.Errorf("unknown color scale %q", name)
}
