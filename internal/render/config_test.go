package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "render.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.DateRange.Start)
	assert.Equal(t, time.Date(2022, time.January, 14, 0, 0, 0, 0, time.UTC), cfg.DateRange.End)
	assert.Equal(t, "viridis", cfg.ColorScale)
	assert.Equal(t, Center{Lat: 41.6032, Lon: -73.0877}, cfg.MapCenter)
	assert.Equal(t, 8.0, cfg.ZoomLevel)
	assert.Equal(t, "Connecticut 2m Temperature", cfg.Title)
	assert.Equal(t, "Data: ERA5 (Copernicus Climate Change Service)", cfg.Attribution)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Run("overrides every field", func(t *testing.T) {
		path := writeConfigFile(t, `
start_date: "2022-02-01"
end_date: "2022-02-03"
color_scale: ylorrd
center_lat: 40.5
center_lon: -72.5
zoom_level: 9
title: "February Temperatures"
attribution: "local station data"
width: 640
height: 480
`)
		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2022, time.February, 1, 0, 0, 0, 0, time.UTC), cfg.DateRange.Start)
		assert.Equal(t, time.Date(2022, time.February, 3, 0, 0, 0, 0, time.UTC), cfg.DateRange.End)
		assert.Equal(t, "ylorrd", cfg.ColorScale)
		assert.Equal(t, Center{Lat: 40.5, Lon: -72.5}, cfg.MapCenter)
		assert.Equal(t, 9.0, cfg.ZoomLevel)
		assert.Equal(t, "February Temperatures", cfg.Title)
		assert.Equal(t, "local station data", cfg.Attribution)
		assert.Equal(t, 640, cfg.Width)
		assert.Equal(t, 480, cfg.Height)
	})

	t.Run("unset fields keep defaults", func(t *testing.T) {
		path := writeConfigFile(t, `title: "Just a Title"`)

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		want := DefaultConfig()
		want.Title = "Just a Title"
		assert.Equal(t, want, cfg)
	})

	t.Run("bad start date", func(t *testing.T) {
		path := writeConfigFile(t, `start_date: "02/01/2022"`)

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start_date")
	})

	t.Run("unknown color scale", func(t *testing.T) {
		path := writeConfigFile(t, `color_scale: plasma`)

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown color scale")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, `color_scale: [unclosed`)

		_, err := LoadFile(path)
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "start after end",
			mutate:  func(c *Config) { c.DateRange.Start = c.DateRange.End.AddDate(0, 1, 0) },
			wantErr: "start is after end",
		},
		{
			name:    "negative zoom",
			mutate:  func(c *Config) { c.ZoomLevel = -1 },
			wantErr: "zoom level",
		},
		{
			name:    "unknown color scale",
			mutate:  func(c *Config) { c.ColorScale = "plasma" },
			wantErr: "unknown color scale",
		},
		{
			name:    "zero width",
			mutate:  func(c *Config) { c.Width = 0 },
			wantErr: "dimensions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigViewport(t *testing.T) {
	vp := DefaultConfig().Viewport()

	// Zoom 8 over an 800x600 output: 360/(2^8*256) degrees per pixel.
	assert.InDelta(t, 4.39453125, vp.MaxLon-vp.MinLon, 1e-9)
	assert.InDelta(t, 3.2958984375, vp.MaxLat-vp.MinLat, 1e-9)
	assert.InDelta(t, -73.0877, (vp.MinLon+vp.MaxLon)/2, 1e-9)
	assert.InDelta(t, 41.6032, (vp.MinLat+vp.MaxLat)/2, 1e-9)
}

func TestConfigViewportZoomHalves(t *testing.T) {
	cfg := DefaultConfig()
	base := cfg.Viewport()

	cfg.ZoomLevel++
	zoomed := cfg.Viewport()

	assert.InDelta(t, (base.MaxLon-base.MinLon)/2, zoomed.MaxLon-zoomed.MinLon, 1e-9)
	assert.InDelta(t, (base.MaxLat-base.MinLat)/2, zoomed.MaxLat-zoomed.MinLat, 1e-9)
}

func TestParseDate(t *testing.T) {
	t.Run("calendar date is midnight utc", func(t *testing.T) {
		got, err := ParseDate("2022-01-05")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2022, time.January, 5, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("rfc3339", func(t *testing.T) {
		got, err := ParseDate("2022-01-05T06:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2022, time.January, 5, 6, 30, 0, 0, time.UTC), got)
	})

	t.Run("rfc3339 offset normalized to utc", func(t *testing.T) {
		got, err := ParseDate("2022-01-05T06:30:00+01:00")
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2022, time.January, 5, 5, 30, 0, 0, time.UTC)))
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		_, err := ParseDate("05 Jan 2022")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date")
	})
}

func TestRampFor(t *testing.T) {
	r, err := rampFor("viridis")
	require.NoError(t, err)
	assert.Nil(t, r, "viridis keeps the default continuous ranger")

	r, err = rampFor("ylorrd")
	require.NoError(t, err)
	assert.NotNil(t, r)

	_, err = rampFor("plasma")
	require.Error(t, err)
}
