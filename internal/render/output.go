package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// File names of the non-frame outputs.
const (
	AnimationFile = "animation.html"
	StaticFile    = "static.svg"
)

// Output renders a pipeline run to disk: per-frame SVGs, the animated
// page, and the static map. The last animation and static map stay in
// memory for the HTTP viewer.
type Output struct {
	cfg    Config
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	anim   *Animation
	static []byte
}

// NewOutput creates a renderer writing into dir.
func NewOutput(cfg Config, dir string, logger *slog.Logger) *Output {
	return &Output{cfg: cfg, dir: dir, logger: logger}
}

// Render builds the animation and writes every output file, creating
// the directory if absent. Returns the number of frames written.
func (o *Output) Render(ctx context.Context, cells []domain.GridCell, points []domain.GeoObservation, aggs []domain.Aggregate) (int, error) {
	anim, err := NewAnimator(o.cfg, o.logger).Animate(cells, aggs)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := anim.WriteFrames(o.dir); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := o.writeHTML(anim); err != nil {
		return 0, err
	}
	static, err := o.writeStatic(cells, points)
	if err != nil {
		return 0, err
	}

	o.mu.Lock()
	o.anim = anim
	o.static = static
	o.mu.Unlock()

	o.logger.Info("render complete", "dir", o.dir, "frames", anim.FrameCount())
	return anim.FrameCount(), nil
}

func (o *Output) writeHTML(anim *Animation) error {
	f, err := os.Create(filepath.Join(o.dir, AnimationFile))
	if err != nil {
		return fmt.Errorf("write %s: %w", AnimationFile, err)
	}
	if err := anim.WriteHTML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (o *Output) writeStatic(cells []domain.GridCell, points []domain.GeoObservation) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderStatic(&buf, cells, points, o.cfg); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(o.dir, StaticFile), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", StaticFile, err)
	}
	return buf.Bytes(), nil
}

// Animation returns the most recently rendered animation, or nil
// before the first successful render.
func (o *Output) Animation() *Animation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.anim
}

// StaticSVG returns the most recently rendered static map, or nil
// before the first successful render.
func (o *Output) StaticSVG() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.static
}
