// Command genmock generates deterministic synthetic fixtures: a
// rectangular grid shapefile over the Connecticut bounding box and a
// matching hourly observations CSV. The same seed always produces the
// same files, so demos and test assertions stay stable.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -grid-out data/ct_grid.shp \
//	  -obs-out data/observations.csv \
//	  -start 2022-01-01 -days 14
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// The grid mirrors an ERA5 0.25 degree lattice clipped to Connecticut:
// 8 x 4 cells with the lower-left corner at (-73.75, 41.0).
const (
	gridCols = 8
	gridRows = 4
	cellSize = 0.25
	originX  = -73.75
	originY  = 41.0
)

type gridRow struct {
	geom.Polygon
	Row int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	gridOut := flag.String("grid-out", "data/ct_grid.shp", "output path for the grid shapefile")
	obsOut := flag.String("obs-out", "data/observations.csv", "output path for the observations CSV")
	start := flag.String("start", "2022-01-01", "first day of observations (2006-01-02)")
	days := flag.Int("days", 14, "number of days of hourly observations")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	startDay, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days < 1 {
		return fmt.Errorf("-days must be at least 1")
	}

	centroids, err := writeGrid(*gridOut)
	if err != nil {
		return fmt.Errorf("writing grid: %w", err)
	}
	log.Printf("wrote grid fixture: %s (%d cells)", *gridOut, len(centroids))

	rng := rand.New(rand.NewSource(*seed))
	rows, minT, maxT, err := writeObservations(*obsOut, centroids, startDay, *days, rng)
	if err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}
	log.Printf("wrote observation fixture: %s (%d rows)", *obsOut, rows)

	fmt.Println("\n=== Fixture summary ===")
	fmt.Printf("grid: %d cells (%dx%d at %g deg) -> %s\n", len(centroids), gridCols, gridRows, cellSize, *gridOut)
	fmt.Printf("observations: %d rows over %d day(s) from %s -> %s\n",
		rows, *days, startDay.Format("2006-01-02"), *obsOut)
	fmt.Printf("t2m range: %.2f .. %.2f K\n", minT, maxT)
	fmt.Printf("offshore rows matching no cell: %d\n", *days)
	return nil
}

// writeGrid encodes the cell polygons row-major and returns their
// centroids for placing observations.
func writeGrid(path string) ([]geom.Point, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	enc, err := shp.NewEncoder(path, gridRow{})
	if err != nil {
		return nil, err
	}

	var centroids []geom.Point
	n := 0
	for r := 0; r < gridRows; r++ {
		for c := 0; c < gridCols; c++ {
			x0 := originX + float64(c)*cellSize
			y0 := originY + float64(r)*cellSize
			poly := geom.Polygon{{
				{X: x0, Y: y0},
				{X: x0 + cellSize, Y: y0},
				{X: x0 + cellSize, Y: y0 + cellSize},
				{X: x0, Y: y0 + cellSize},
			}}
			if err := enc.Encode(gridRow{Polygon: poly, Row: n}); err != nil {
				enc.Close()
				return nil, err
			}
			centroids = append(centroids, geom.Point{X: x0 + cellSize/2, Y: y0 + cellSize/2})
			n++
		}
	}
	enc.Close()
	return centroids, nil
}

// writeObservations emits one reading per cell per hour plus one
// offshore reading per day that matches no cell. Winter temperatures in
// Kelvin: a diurnal cycle over a latitude gradient with mild noise.
func writeObservations(path string, centroids []geom.Point, startDay time.Time, days int, rng *rand.Rand) (rows int, minT, maxT float64, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, 0, 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "latitude", "longitude", "t2m"}); err != nil {
		return 0, 0, 0, err
	}

	minT, maxT = math.Inf(1), math.Inf(-1)
	emit := func(ts time.Time, lat, lon, temp float64) error {
		if temp < minT {
			minT = temp
		}
		if temp > maxT {
			maxT = temp
		}
		rows++
		return w.Write([]string{
			ts.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.4f", lat),
			fmt.Sprintf("%.4f", lon),
			fmt.Sprintf("%.2f", temp),
		})
	}

	for day := 0; day < days; day++ {
		for hour := 0; hour < 24; hour++ {
			ts := startDay.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			diurnal := 6 * math.Sin(2*math.Pi*float64(hour-8)/24)
			for _, c := range centroids {
				lat := c.Y + (rng.Float64()-0.5)*0.05
				lon := c.X + (rng.Float64()-0.5)*0.05
				temp := 271 + diurnal - 3*(lat-originY) + rng.NormFloat64()*1.2
				if err := emit(ts, lat, lon, temp); err != nil {
					return rows, minT, maxT, err
				}
			}
		}
		// One buoy east of Long Island, outside every cell.
		ts := startDay.AddDate(0, 0, day).Add(12 * time.Hour)
		if err := emit(ts, 40.5, -70.5, 277+rng.NormFloat64()); err != nil {
			return rows, minT, maxT, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return rows, minT, maxT, err
	}
	return rows, minT, maxT, f.Close()
}
