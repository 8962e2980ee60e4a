// Package extract converts ERA5 NetCDF archives into the observation CSV
// the pipeline loads. One run scans every dated file inside the window;
// a single bad file is recorded and skipped, not fatal.
package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/temp-choropleth-service/internal/adapter/era5"
	"github.com/couchcryptid/temp-choropleth-service/internal/domain"
	"github.com/couchcryptid/temp-choropleth-service/internal/observability"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"
)

// csvHeader is the column contract shared with the observation loader.
var csvHeader = []string{"time", "latitude", "longitude", "t2m"}

// FileScanner yields per-timestamp record slabs from one open file.
// *era5.Scanner implements it.
type FileScanner interface {
	Scan() bool
	Records() []era5.Record
	Err() error
	Summary() []any
	Close()
}

// OpenFunc opens one NetCDF file for scanning.
type OpenFunc func(path string) (FileScanner, error)

// OpenNetCDF opens path with the ERA5 scanner.
func OpenNetCDF(path string) (FileScanner, error) {
	return era5.NewScanner(path)
}

// FileFailure records one file that could not be extracted.
type FileFailure struct {
	Name   string
	Reason string
}

// Summary reports one extraction run.
type Summary struct {
	RunID          string
	FilesProcessed int
	FilesFailed    []FileFailure
	Rows           int
	Duration       time.Duration
}

// Extractor turns the dated NetCDF files of one directory into a single
// observation CSV.
type Extractor struct {
	inDir   string
	outPath string
	window  domain.Interval
	open    OpenFunc
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an extractor reading *.nc files from inDir and writing
// outPath. Pass OpenNetCDF as the opener outside of tests.
func New(inDir, outPath string, window domain.Interval, open OpenFunc, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		inDir:   inDir,
		outPath: outPath,
		window:  window,
		open:    open,
		logger:  logger,
		metrics: metrics,
	}
}

// Run extracts every file whose name carries a date inside the window,
// in name order. The returned error is non-nil only when the run as a
// whole produced nothing: no file matched, every file failed, or the
// output could not be written.
func (e *Extractor) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	start := domain.Now()
	sum := Summary{RunID: runID}

	files, err := e.matchingFiles()
	if err != nil {
		return sum, err
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("extract: no input files in %s dated %s to %s",
			e.inDir, e.window.Start.Format(dateLayout), e.window.End.Format(dateLayout))
	}

	if dir := filepath.Dir(e.outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sum, fmt.Errorf("extract: create output dir: %w", err)
		}
	}
	f, err := os.Create(e.outPath)
	if err != nil {
		return sum, fmt.Errorf("extract: create %s: %w", e.outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return sum, fmt.Errorf("extract: write header: %w", err)
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rows, err := e.extractFile(filepath.Join(e.inDir, name))
		if err != nil {
			sum.FilesFailed = append(sum.FilesFailed, FileFailure{Name: name, Reason: err.Error()})
			e.metrics.ExtractFilesFailed.Inc()
			logger.Warn("file extraction failed", "file", name, "error", err)
			continue
		}
		if err := w.WriteAll(rows); err != nil {
			return sum, fmt.Errorf("extract: write rows from %s: %w", name, err)
		}
		sum.FilesProcessed++
		sum.Rows += len(rows)
		e.metrics.ExtractFilesProcessed.Inc()
		logger.Info("file extracted", "file", name, "rows", len(rows))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return sum, fmt.Errorf("extract: flush %s: %w", e.outPath, err)
	}
	if err := f.Close(); err != nil {
		return sum, fmt.Errorf("extract: close %s: %w", e.outPath, err)
	}

	sum.Duration = domain.Now().Sub(start)
	if sum.FilesProcessed == 0 {
		return sum, fmt.Errorf("extract: all %d input files failed", len(files))
	}
	logger.Info("extraction complete",
		"files", sum.FilesProcessed,
		"failed", len(sum.FilesFailed),
		"rows", sum.Rows,
		"out", e.outPath,
		"duration", sum.Duration,
	)
	return sum, nil
}

// matchingFiles lists input file names carrying an in-window date, sorted.
func (e *Extractor) matchingFiles() ([]string, error) {
	entries, err := os.ReadDir(e.inDir)
	if err != nil {
		return nil, fmt.Errorf("extract: read input dir %s: %w: %w", e.inDir, domain.ErrSourceUnreadable, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := fileDate(entry.Name())
		if !ok || !e.window.Contains(date) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// extractFile scans one file into CSV rows. A failure discards the
// file's rows entirely so the output never carries a partial day.
func (e *Extractor) extractFile(path string) ([][]string, error) {
	sc, err := e.open(path)
	if err != nil {
		return nil, err
	}
	defer sc.Close()
	e.logger.Debug("scanning", append([]any{"file", path}, sc.Summary()...)...)

	var rows [][]string
	for sc.Scan() {
		for _, rec := range sc.Records() {
			rows = append(rows, []string{
				rec.Time.UTC().Format(timeLayout),
				strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
				strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
				strconv.FormatFloat(rec.Temperature, 'f', -1, 64),
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// fileDate extracts the UTC date from names like era5_2022-01-02.nc.
func fileDate(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".nc")
	if base == name || len(base) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(dateLayout, base[len(base)-len(dateLayout):], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
