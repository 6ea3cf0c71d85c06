// Command genfixture subsamples the full travel and measurement exports into
// small fixture files for the test suites. It keeps the travels of the first
// N station visits (distinct cruise and station pairs, in file order) and the
// measurements that reference them, then runs the real pipeline stages over
// the result and prints the statistics the tests assert on.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -travels data/viajes_dd8a0ac9e2.csv \
//	  -measurements data/mediciones_4be6910e87.csv \
//	  -stations 3 \
//	  -out-dir data/mock
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/adapter/console"
	"github.com/couchcryptid/cruise-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	travelsPath := flag.String("travels", "data/viajes_dd8a0ac9e2.csv", "full travel CSV")
	measurementsPath := flag.String("measurements", "data/mediciones_4be6910e87.csv", "full measurement CSV")
	stations := flag.Int("stations", 3, "number of station visits to keep")
	outDir := flag.String("out-dir", "data/mock", "directory for the fixture files")
	flag.Parse()

	if *stations <= 0 {
		flag.Usage()
		return fmt.Errorf("-stations must be positive")
	}

	travels, err := readRaw(*travelsPath)
	if err != nil {
		return fmt.Errorf("read travels: %w", err)
	}
	measurements, err := readRaw(*measurementsPath)
	if err != nil {
		return fmt.Errorf("read measurements: %w", err)
	}

	keptTravels, ids := firstVisits(travels, *stations)
	keptMeasurements := measurements.Filter(dataframe.F{
		Colname:    domain.ColID,
		Comparator: series.In,
		Comparando: ids,
	})
	if keptMeasurements.Err != nil {
		return fmt.Errorf("filter measurements: %w", keptMeasurements.Err)
	}
	log.Printf("kept %d of %d travels, %d of %d measurements",
		keptTravels.Nrow(), travels.Nrow(), keptMeasurements.Nrow(), measurements.Nrow())

	travelsOut := filepath.Join(*outDir, "travels.csv")
	measurementsOut := filepath.Join(*outDir, "measurements.csv")
	if err := writeCSV(travelsOut, keptTravels); err != nil {
		return fmt.Errorf("writing travel fixture: %w", err)
	}
	log.Printf("wrote travel fixture: %s", travelsOut)
	if err := writeCSV(measurementsOut, keptMeasurements); err != nil {
		return fmt.Errorf("writing measurement fixture: %w", err)
	}
	log.Printf("wrote measurement fixture: %s", measurementsOut)

	return printStats(travelsOut, measurementsOut)
}

// readRaw loads a CSV with every column as a string so values are written back
// exactly as read.
func readRaw(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	return df, df.Err
}

// firstVisits keeps the travel rows of the first n (cruise, station) pairs and
// returns their ids.
func firstVisits(travels dataframe.DataFrame, n int) (dataframe.DataFrame, []string) {
	cruises := travels.Col(domain.ColCruise).Records()
	stations := travels.Col(domain.ColStation).Records()
	ids := travels.Col(domain.ColID).Records()

	type visit struct{ cruise, station string }
	kept := make(map[visit]bool)
	var rows []int
	var keptIDs []string
	for i := range cruises {
		k := visit{cruises[i], stations[i]}
		if !kept[k] {
			if len(kept) == n {
				continue
			}
			kept[k] = true
		}
		rows = append(rows, i)
		keptIDs = append(keptIDs, ids[i])
	}
	return travels.Subset(rows), keptIDs
}

func writeCSV(path string, df dataframe.DataFrame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := df.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

// printStats runs the fixture through the loader and every stage and prints
// the values fixture tests assert on.
func printStats(travelsPath, measurementsPath string) error {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	travels, err := csvfile.LoadTravels(travelsPath)
	if err != nil {
		return err
	}
	measurements, err := csvfile.LoadMeasurements(measurementsPath)
	if err != nil {
		return err
	}
	df, err := domain.Consolidate(domain.Dataset{Travels: travels, Measurements: measurements})
	if err != nil {
		return err
	}
	report, err := domain.BuildReport(df)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Fixture Statistics ===")
	fmt.Printf("Joined rows:          %d\n", report.Rows)
	fmt.Printf("Most sampled cruise:  %s\n", report.MostSampledCruise)
	fmt.Printf("Peak sampling hour:   %d\n", report.PeakSamplingHour)
	fmt.Printf("Depth averages:       %d (%d empty)\n", len(report.DepthAverages), report.EmptyBins())
	for _, a := range report.DepthAverages {
		if a.Mean == nil {
			continue
		}
		fmt.Printf("  %-45s %-15s %-10s %s (n=%d)\n",
			a.Variable, a.Cruise, a.Bucket.Label(), console.FormatMean(a.Mean), a.Samples)
	}
	return nil
}
