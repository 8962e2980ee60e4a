// Command validate performs integrity checks on the pipeline's input
// sources: the grid shapefile and the observations CSV. It verifies the
// files exist, decode through the same adapters the pipeline uses, hold
// plausible coordinates and temperatures, and cover the configured date
// window.
//
// Usage:
//
//	go run ./cmd/validate -grid data/ct_grid.shp -obs data/observations.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/obscsv"
	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/shapefile"
	"github.com/couchcryptid/temp-choropleth-service/internal/config"
	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
	"github.com/joho/godotenv"
)

// Connecticut with a degree of slack on each side. The grid and nearly all
// observations should land inside this box; coordinates outside the
// physical bounds of the globe are corrupt.
const (
	regionMinLat, regionMaxLat = 40.0, 43.0
	regionMinLon, regionMaxLon = -74.75, -70.75
)

// Plausible 2-meter air temperatures in Kelvin. ERA5 values outside this
// range indicate a broken extraction, not weather.
const (
	minPlausibleT2m = 200.0
	maxPlausibleT2m = 330.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	gridPath := flag.String("grid", "", "grid shapefile path (default $GRID_PATH)")
	obsPath := flag.String("obs", "", "observations CSV path (default $OBS_PATH)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *gridPath != "" {
		cfg.GridPath = *gridPath
	}
	if *obsPath != "" {
		cfg.ObsPath = *obsPath
	}

	if code := run(cfg); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config) int {
	fmt.Println("=== Choropleth Source Validation ===")
	fmt.Println()
	fmt.Printf("grid:         %s\n", cfg.GridPath)
	fmt.Printf("observations: %s\n", cfg.ObsPath)
	fmt.Printf("window:       %s to %s\n",
		cfg.Render.DateRange.Start.Format("2006-01-02"),
		cfg.Render.DateRange.End.Format("2006-01-02"))
	fmt.Println()

	p1 := validateSourcesExist(cfg.GridPath, cfg.ObsPath)

	// Decode through the production adapters so that anything passing
	// here also loads at pipeline run time. Adapter logs are noise in a
	// report; errors surface through the phase instead.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	p2, cells, observations := validateDecode(context.Background(), cfg, quiet)

	p3 := validateRanges(cells, observations)
	p4 := validateDateCoverage(observations, cfg.Render.DateRange)

	// ── Report results ──
	phases := []*phase{p1, p2, p3, p4}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Sources: %d grid cells, %d observation rows\n", len(cells), len(observations))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Sources Exist ──
// A shapefile is a sidecar trio; all three files must be present.

func validateSourcesExist(gridPath, obsPath string) *phase {
	p := &phase{name: "Phase 1: Sources Exist (files on disk)"}

	base := strings.TrimSuffix(gridPath, filepath.Ext(gridPath))
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		checkFile(p, base+ext)
	}
	if _, err := os.Stat(base + ".prj"); err != nil {
		fmt.Println("  Note: no .prj sidecar; grid coordinates assumed to be WGS84 lon/lat")
	}

	checkFile(p, obsPath)
	return p
}

func checkFile(p *phase, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		p.errorf("%s: %v", path, err)
	case info.Size() == 0:
		p.errorf("%s: file is empty", path)
	}
}

// ── Phase 2: Decode ──
// Both sources must decode cleanly and non-empty, and cell IDs must be
// dense row order, since an ID is a cell's row position.

func validateDecode(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*phase, []domain.GridCell, []domain.Observation) {
	p := &phase{name: "Phase 2: Decode (shapefile + CSV)"}

	cells, err := shapefile.NewSource(cfg.GridPath, logger).Load(ctx)
	if err != nil {
		p.errorf("grid: %v", err)
	} else if len(cells) == 0 {
		p.errorf("grid: decoded zero cells")
	}
	for i, c := range cells {
		if int(c.ID) != i {
			p.errorf("grid: cell at row %d has ID %d; IDs must be dense row order", i, c.ID)
			break
		}
		if c.Polygon == nil {
			p.errorf("grid: cell %d has nil geometry", c.ID)
		}
	}

	observations, err := obscsv.NewSource(cfg.ObsPath, logger).Load(ctx)
	if err != nil {
		p.errorf("observations: %v", err)
	} else if len(observations) == 0 {
		p.errorf("observations: decoded zero rows")
	}
	for i, o := range observations {
		if o.Time.IsZero() {
			p.errorf("observations: row %d has a zero timestamp", i)
		}
	}

	return p, cells, observations
}

// ── Phase 3: Plausible Ranges ──

func validateRanges(cells []domain.GridCell, observations []domain.Observation) *phase {
	p := &phase{name: "Phase 3: Plausible Ranges (coords + Kelvin)"}

	for _, c := range cells {
		if c.Polygon == nil {
			continue
		}
		b := c.Polygon.Bounds()
		if b.Min.X < regionMinLon || b.Max.X > regionMaxLon ||
			b.Min.Y < regionMinLat || b.Max.Y > regionMaxLat {
			p.errorf("cell %d: bounds (%.3f, %.3f)-(%.3f, %.3f) outside the region box",
				c.ID, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
		}
	}

	outsideRegion := 0
	for i, o := range observations {
		if o.Latitude < -90 || o.Latitude > 90 || o.Longitude < -180 || o.Longitude > 180 {
			p.errorf("observation %d: (%.4f, %.4f) outside physical bounds", i, o.Latitude, o.Longitude)
			continue
		}
		if o.Latitude < regionMinLat || o.Latitude > regionMaxLat ||
			o.Longitude < regionMinLon || o.Longitude > regionMaxLon {
			outsideRegion++
		}
		if o.Temperature < minPlausibleT2m || o.Temperature > maxPlausibleT2m {
			p.errorf("observation %d: t2m %.2f K outside plausible range [%.0f, %.0f]",
				i, o.Temperature, minPlausibleT2m, maxPlausibleT2m)
		}
	}
	if outsideRegion > 0 {
		fmt.Printf("  Note: %d observation(s) outside the region box (will match no cell)\n", outsideRegion)
	}

	return p
}

// ── Phase 4: Date Coverage ──
// Every day of the window needs at least one surviving row. The window is
// a closed instant interval ending at midnight of the final day, so only
// 00:00 rows count on that day.

func validateDateCoverage(observations []domain.Observation, window domain.Interval) *phase {
	p := &phase{name: "Phase 4: Date Coverage (configured window)"}

	perDay := make(map[string]int)
	outside := 0
	for _, o := range observations {
		if !window.Contains(o.Time) {
			outside++
			continue
		}
		perDay[o.Time.UTC().Format("2006-01-02")]++
	}
	if outside > 0 {
		fmt.Printf("  Note: %d observation(s) outside the window (dropped by the date filter)\n", outside)
	}

	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		if perDay[day] == 0 {
			p.errorf("no observations inside the window on %s", day)
		}
	}

	return p
}
