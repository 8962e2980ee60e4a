// Package era5 reads 2m temperature fields from ERA5 NetCDF files.
package era5

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// Record is one unpacked 2m temperature reading.
type Record struct {
	Time        time.Time
	Latitude    float64
	Longitude   float64
	Temperature float64 // Kelvin
}

// Scanner reads an ERA5 file one timestamp at a time. The packed int16
// t2m variable is unpacked through its scale_factor/add_offset
// attributes; fill values are dropped rather than emitted as readings.
type Scanner struct {
	nc      api.Group
	la      []float32
	lo      []float32
	ts      []time.Time
	t2m     api.VarGetter
	scale   float64
	offset  float64
	fill    int16
	hasFill bool
	pos     int
	recs    []Record
	err     error
}

// NewScanner opens an ERA5 NetCDF file and resolves its dimensions and
// the t2m variable.
func NewScanner(filePath string) (*Scanner, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	s := &Scanner{nc: nc, scale: 1}
	if err := s.init(); err != nil {
		nc.Close()
		return nil, err
	}
	return s, nil
}

func (s *Scanner) init() error {
	var err error
	s.la, err = dimValues[float32](s.nc, "latitude")
	if err != nil {
		return err
	}
	s.lo, err = dimValues[float32](s.nc, "longitude")
	if err != nil {
		return err
	}
	hours, err := dimValues[int32](s.nc, "time")
	if err != nil {
		return err
	}
	s.ts = make([]time.Time, len(hours))
	for i, h := range hours {
		s.ts[i] = time.Unix(int64(h)*3600+unixSecs1900, 0).UTC()
	}
	s.t2m, err = s.nc.GetVarGetter("t2m")
	if err != nil {
		return err
	}

	attrs := s.t2m.Attributes()
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		s.scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		s.offset = v
	}
	if v, ok := attrInt16(attrs, "_FillValue"); ok {
		s.fill, s.hasFill = v, true
	} else if v, ok := attrInt16(attrs, "missing_value"); ok {
		s.fill, s.hasFill = v, true
	}
	return nil
}

func dimValues[T int32 | float32](nc api.Group, dimName string) ([]T, error) {
	dim, err := nc.GetVarGetter(dimName)
	if err != nil {
		return nil, err
	}
	v, err := dim.Values()
	if err != nil {
		return nil, err
	}
	vals, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("dimension %s is %T, want []%T", dimName, v, *new(T))
	}
	return vals, nil
}

func attrFloat(am api.AttributeMap, key string) (float64, bool) {
	v, ok := am.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

func attrInt16(am api.AttributeMap, key string) (int16, bool) {
	v, ok := am.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int16:
		return x, true
	case []int16:
		if len(x) > 0 {
			return x[0], true
		}
	}
	return 0, false
}

// Close closes the underlying file.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Err returns the first error hit while scanning, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Summary returns dataset counts suitable for logging.
func (s *Scanner) Summary() []any {
	return []any{
		"timestamps", len(s.ts),
		"latitudes", len(s.la),
		"longitudes", len(s.lo),
	}
}

// Scan reads all records for the next timestamp.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.ts) {
		return false
	}

	v, err := s.t2m.GetSlice(int64(s.pos), int64(s.pos)+1)
	if err != nil {
		s.err = err
		return false
	}
	slab, ok := v.([][][]int16)
	if !ok || len(slab) == 0 {
		s.err = fmt.Errorf("t2m slab is %T, want non-empty [][][]int16", v)
		return false
	}
	grid := slab[0]

	s.recs = make([]Record, 0, len(s.la)*len(s.lo))
	for i, la := range s.la {
		for j, lo := range s.lo {
			raw := grid[i][j]
			if s.hasFill && raw == s.fill {
				continue
			}
			s.recs = append(s.recs, Record{
				Time:        s.ts[s.pos],
				Latitude:    float64(la),
				Longitude:   float64(lo),
				Temperature: float64(raw)*s.scale + s.offset,
			})
		}
	}
	s.pos++
	return true
}

// Records returns the records read by the last Scan. Ownership moves to
// the caller; calling again without another Scan returns nil.
func (s *Scanner) Records() []Record {
	recs := s.recs
	s.recs = nil
	return recs
}
