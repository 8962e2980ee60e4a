// Package render draws the choropleth animation and the static grid map
// for a pipeline run.
package render

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// Center is a geographic point in degrees, latitude north and longitude east.
type Center struct {
	Lat float64
	Lon float64
}

// Config holds the rendering options shared by the animated and the
// static map. The zero value is not usable; start from DefaultConfig
// or LoadFile.
type Config struct {
	// DateRange is the closed interval the pipeline filters to and the
	// animation draws frames for.
	DateRange domain.Interval
	// ColorScale names the fill palette: "viridis" (continuous) or
	// "ylorrd" (stepped).
	ColorScale string
	// MapCenter and ZoomLevel fix the viewport for every frame. Each
	// +1 of zoom halves the degrees shown.
	MapCenter Center
	ZoomLevel float64
	// Title is drawn on every frame; Attribution once per page and on
	// the static map.
	Title       string
	Attribution string

	// Output dimensions in pixels.
	Width  int
	Height int
}

// DefaultConfig returns the built-in render options.
func DefaultConfig() Config {
	return Config{
		DateRange: domain.Interval{
			Start: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2022, time.January, 14, 0, 0, 0, 0, time.UTC),
		},
		ColorScale:  "viridis",
		MapCenter:   Center{Lat: 41.6032, Lon: -73.0877},
		ZoomLevel:   8,
		Title:       "Connecticut 2m Temperature",
		Attribution: "Data: ERA5 (Copernicus Climate Change Service)",
		Width:       800,
		Height:      600,
	}
}

// fileConfig is the YAML shape of a render config file. Zero-value
// fields fall back to the defaults.
type fileConfig struct {
	StartDate   string  `yaml:"start_date"`
	EndDate     string  `yaml:"end_date"`
	ColorScale  string  `yaml:"color_scale"`
	CenterLat   float64 `yaml:"center_lat"`
	CenterLon   float64 `yaml:"center_lon"`
	ZoomLevel   float64 `yaml:"zoom_level"`
	Title       string  `yaml:"title"`
	Attribution string  `yaml:"attribution"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
}

// LoadFile reads a YAML render config, overlaying it on DefaultConfig.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("render config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("render config %s: %w", path, err)
	}

	if fc.StartDate != "" {
		t, err := ParseDate(fc.StartDate)
		if err != nil {
			return cfg, fmt.Errorf("render config %s: start_date: %w", path, err)
		}
		cfg.DateRange.Start = t
	}
	if fc.EndDate != "" {
		t, err := ParseDate(fc.EndDate)
		if err != nil {
			return cfg, fmt.Errorf("render config %s: end_date: %w", path, err)
		}
		cfg.DateRange.End = t
	}
	if fc.ColorScale != "" {
		cfg.ColorScale = fc.ColorScale
	}
	if fc.CenterLat != 0 {
		cfg.MapCenter.Lat = fc.CenterLat
	}
	if fc.CenterLon != 0 {
		cfg.MapCenter.Lon = fc.CenterLon
	}
	if fc.ZoomLevel != 0 {
		cfg.ZoomLevel = fc.ZoomLevel
	}
	if fc.Title != "" {
		cfg.Title = fc.Title
	}
	if fc.Attribution != "" {
		cfg.Attribution = fc.Attribution
	}
	if fc.Width != 0 {
		cfg.Width = fc.Width
	}
	if fc.Height != 0 {
		cfg.Height = fc.Height
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("render config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var errs []error
	if c.DateRange.Start.After(c.DateRange.End) {
		errs = append(errs, errors.New("date range start is after end"))
	}
	if c.ZoomLevel < 0 {
		errs = append(errs, errors.New("zoom level must be >= 0"))
	}
	if _, err := rampFor(c.ColorScale); err != nil {
		errs = append(errs, err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, errors.New("output dimensions must be positive"))
	}
	return errors.Join(errs...)
}

// ParseDate accepts a calendar date (midnight UTC) or an RFC 3339
// instant. Date-only ranges stay closed on both ends: an end date of
// 2022-01-14 includes 2022-01-14 00:00:00.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want 2006-01-02 or RFC 3339)", s)
}
