// Package obscsv loads point observations from delimited text files.
//
// The expected shape is the output of the grid extraction tool: a header
// row naming at least time, latitude, longitude, and t2m, then one row per
// observation. Column order is free and extra columns are ignored.
package obscsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
)

// timeLayouts are accepted timestamp formats, tried in order. The space
// layout is what the extraction tool writes; RFC 3339 and bare dates cover
// hand-built files.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Source reads observations from a CSV file.
// It implements pipeline.ObservationSource.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates an observation source for the given CSV path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// Load reads every observation into memory. Timestamps are parsed as UTC.
// Any unreadable row fails the whole load with a descriptive error; there
// are no partial loads.
func (s *Source) Load(ctx context.Context) ([]domain.Observation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("observation source %s: %w: %w", s.path, domain.ErrSourceUnreadable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("observation source %s: read header: %w: %w", s.path, domain.ErrSourceUnreadable, err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("observation source %s: %w: %w", s.path, domain.ErrSourceUnreadable, err)
	}

	var obs []domain.Observation
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("observation source %s line %d: %w: %w", s.path, line, domain.ErrSourceUnreadable, err)
		}
		o, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("observation source %s line %d: %w: %w", s.path, line, domain.ErrSourceUnreadable, err)
		}
		obs = append(obs, o)
	}

	s.logger.Info("observations loaded", "path", s.path, "rows", len(obs))
	return obs, nil
}

// columns holds the resolved positions of the four contractual columns.
type columns struct {
	time, lat, lon, temp int
}

func columnIndex(header []string) (columns, error) {
	cols := columns{time: -1, lat: -1, lon: -1, temp: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time":
			cols.time = i
		case "latitude":
			cols.lat = i
		case "longitude":
			cols.lon = i
		case "t2m":
			cols.temp = i
		}
	}
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{
		{"time", cols.time},
		{"latitude", cols.lat},
		{"longitude", cols.lon},
		{"t2m", cols.temp},
	} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing column(s) %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(record []string, cols columns) (domain.Observation, error) {
	ts, err := parseTime(record[cols.time])
	if err != nil {
		return domain.Observation{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(record[cols.lat]), 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse latitude %q: %w", record[cols.lat], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(record[cols.lon]), 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse longitude %q: %w", record[cols.lon], err)
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(record[cols.temp]), 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse t2m %q: %w", record[cols.temp], err)
	}
	return domain.Observation{Time: ts, Latitude: lat, Longitude: lon, Temperature: temp}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: no accepted layout", s)
}
