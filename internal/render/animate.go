package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
	"github.com/ctessum/geom"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// tempColumn labels the fill column in frame tables.
const tempColumn = "t2m K"

// frameTimeFormat is how frame timestamps appear on axis labels and in
// the animation page.
const frameTimeFormat = "2006-01-02 15:04 UTC"

// frameDelayMillis is how long the animation page shows each frame.
const frameDelayMillis = 750

// Animator assembles cell aggregates into an Animation.
type Animator struct {
	cfg    Config
	logger *slog.Logger
}

// NewAnimator creates an animator with the given render options.
func NewAnimator(cfg Config, logger *slog.Logger) *Animator {
	return &Animator{cfg: cfg, logger: logger}
}

// frame holds one timestamp's cell centroids and means. Cells without
// an aggregate at this timestamp are simply absent and stay unpainted.
type frame struct {
	time  time.Time
	lons  []float64
	lats  []float64
	temps []float64
}

// Animation is an in-memory animated choropleth: one frame per
// distinct aggregate timestamp, in time order, all sharing one fill
// scale so equal temperatures color equally across frames.
type Animation struct {
	cfg    Config
	ranger gg.Ranger // nil keeps the default continuous fill
	min    float64
	max    float64
	frames []frame
}

// Animate left-merges aggregates onto cells per distinct timestamp.
// The fill scale spans the overall min and max mean so every frame
// colors on the same scale. Aggregates for unknown cells are dropped
// with a warning.
func (a *Animator) Animate(cells []domain.GridCell, aggs []domain.Aggregate) (*Animation, error) {
	if len(aggs) == 0 {
		return nil, fmt.Errorf("animate: %w", domain.ErrAggregationEmpty)
	}
	ranger, err := rampFor(a.cfg.ColorScale)
	if err != nil {
		return nil, fmt.Errorf("animate: %w", err)
	}

	centroids := make(map[domain.CellID]geom.Point, len(cells))
	for _, c := range cells {
		centroids[c.ID] = c.Centroid()
	}

	min, max, _ := domain.AggregateRange(aggs)
	if min == max {
		// A flat domain would collapse the color map; widen it.
		min -= 0.5
		max += 0.5
	}

	times := domain.AggregateTimes(aggs)
	index := make(map[time.Time]int, len(times))
	frames := make([]frame, len(times))
	for i, t := range times {
		frames[i].time = t
		index[t] = i
	}

	var unknown int
	for _, ag := range aggs {
		p, ok := centroids[ag.Cell]
		if !ok {
			unknown++
			continue
		}
		f := &frames[index[ag.Time]]
		f.lons = append(f.lons, p.X)
		f.lats = append(f.lats, p.Y)
		f.temps = append(f.temps, ag.Mean)
	}
	if unknown > 0 {
		a.logger.Warn("aggregates reference unknown cells", "count", unknown)
	}
	a.logger.Info("animation assembled",
		"frames", len(frames),
		"scale_min", min,
		"scale_max", max,
	)

	return &Animation{cfg: a.cfg, ranger: ranger, min: min, max: max, frames: frames}, nil
}

// FrameCount reports the number of frames.
func (a *Animation) FrameCount() int { return len(a.frames) }

// Times returns the frame timestamps in frame order.
func (a *Animation) Times() []time.Time {
	ts := make([]time.Time, len(a.frames))
	for i, f := range a.frames {
		ts[i] = f.time
	}
	return ts
}

// RenderFrame writes frame i as a standalone SVG. The frame carries
// the static title and its own timestamp as the x axis label.
func (a *Animation) RenderFrame(w io.Writer, i int) error {
	if i < 0 || i >= len(a.frames) {
		return fmt.Errorf("frame %d out of range [0,%d)", i, len(a.frames))
	}
	f := a.frames[i]

	tab := new(table.Builder).
		Add("longitude", f.lons).
		Add("latitude", f.lats).
		Add(tempColumn, f.temps).
		Done()

	plot := gg.NewPlot(tab)
	applyViewport(plot, a.cfg)
	fill := gg.NewLinearScaler().SetMin(a.min).SetMax(a.max)
	if a.ranger != nil {
		fill.Ranger(a.ranger)
	}
	plot.SetScale("fill", fill)
	plot.Add(gg.LayerTiles{X: "longitude", Y: "latitude", Fill: tempColumn})
	plot.Add(gg.Title(a.cfg.Title))
	plot.Add(gg.AxisLabel("x", f.time.Format(frameTimeFormat)))

	return plot.WriteSVG(w, a.cfg.Width, a.cfg.Height)
}

// FrameFileName returns the file name WriteFrames gives frame i.
func FrameFileName(i int) string {
	return fmt.Sprintf("frame_%03d.svg", i)
}

// WriteFrames writes every frame SVG into dir, creating it if absent.
func (a *Animation) WriteFrames(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	for i := range a.frames {
		if err := a.writeFrame(dir, i); err != nil {
			return err
		}
	}
	return nil
}

func (a *Animation) writeFrame(dir string, i int) error {
	f, err := os.Create(filepath.Join(dir, FrameFileName(i)))
	if err != nil {
		return fmt.Errorf("write frame %d: %w", i, err)
	}
	if err := a.RenderFrame(f, i); err != nil {
		f.Close()
		return fmt.Errorf("write frame %d: %w", i, err)
	}
	return f.Close()
}

// pageData feeds the animation page template.
type pageData struct {
	Title       string
	Attribution string
	DelayMillis int
	Times       []string
	Frames      []template.HTML
}

var pageTemplate = template.Must(template.New("animation").Parse(pageHTML))

// WriteHTML writes a self-contained animated page: every frame SVG
// inlined, title and attribution overlaid once, frames cycled
// client-side.
func (a *Animation) WriteHTML(w io.Writer) error {
	data := pageData{
		Title:       a.cfg.Title,
		Attribution: a.cfg.Attribution,
		DelayMillis: frameDelayMillis,
		Times:       make([]string, 0, len(a.frames)),
		Frames:      make([]template.HTML, 0, len(a.frames)),
	}
	var buf bytes.Buffer
	for i, f := range a.frames {
		buf.Reset()
		if err := a.RenderFrame(&buf, i); err != nil {
			return fmt.Errorf("render frame %d: %w", i, err)
		}
		data.Frames = append(data.Frames, template.HTML(buf.String()))
		data.Times = append(data.Times, f.time.Format(frameTimeFormat))
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("write animation page: %w", err)
	}
	return nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; margin: 1.5rem auto; max-width: 56rem; text-align: center; }
h1 { font-size: 1.4rem; margin-bottom: 0.2rem; }
#timestamp { font-variant-numeric: tabular-nums; color: #444; margin: 0.4rem 0; }
.frame { display: none; }
.frame.current { display: block; }
.attribution { color: #777; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="timestamp"></div>
{{range .Frames}}<div class="frame">{{.}}</div>
{{end}}<p class="attribution">{{.Attribution}}</p>
<script>
var times = {{.Times}};
var frames = document.querySelectorAll(".frame");
var label = document.getElementById("timestamp");
var current = 0;
function show(i) {
	frames[current].classList.remove("current");
	current = i % frames.length;
	frames[current].classList.add("current");
	label.textContent = times[current];
}
show(0);
setInterval(function () { show(current + 1); }, {{.DelayMillis}});
</script>
</body>
</html>
`
