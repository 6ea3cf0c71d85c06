// Command validate performs data integrity checks on a pair of travel and
// measurement files: schema, join integrity, standardization invariants and
// report shape. It exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -travels data/viajes_dd8a0ac9e2.csv \
//	  -measurements data/mediciones_4be6910e87.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	travels := flag.String("travels", "data/viajes_dd8a0ac9e2.csv", "path to the travel CSV")
	measurements := flag.String("measurements", "data/mediciones_4be6910e87.csv", "path to the measurement CSV")
	flag.Parse()

	if code := run(*travels, *measurements); code != 0 {
		os.Exit(code)
	}
}

func run(travelsPath, measurementsPath string) int {
	// Fixed clock so repeated runs print identical reports.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Cruise Data Integrity Validation ===")
	fmt.Println()

	travels, err := csvfile.LoadTravels(travelsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load travels: %v\n", err)
		return 1
	}
	measurements, err := csvfile.LoadMeasurements(measurementsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load measurements: %v\n", err)
		return 1
	}
	ds := domain.Dataset{Travels: travels, Measurements: measurements}

	consolidated, err := domain.Consolidate(ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: consolidate: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(ds),
		validateJoin(ds, consolidated),
		validateStandardization(consolidated),
		validateReport(consolidated),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d travels, %d measurements, %d consolidated\n",
		travels.Nrow(), measurements.Nrow(), consolidated.Nrow())

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateSchema checks that the loaded tables carry usable values: no empty
// cruise or station, no negative depth, at least one row each.
func validateSchema(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 1: Schema"}
	fmt.Println("Phase 1: Schema")

	if ds.Travels.Nrow() == 0 {
		p.errorf("travel table is empty")
	}
	if ds.Measurements.Nrow() == 0 {
		p.errorf("measurement table is empty")
	}

	for _, col := range []string{domain.ColCruise, domain.ColStation} {
		if n := countMissing(ds.Travels, col); n > 0 {
			p.errorf("%d travel rows have no %q", n, col)
		}
	}
	if n := countMissing(ds.Travels, domain.ColDate); n > 0 {
		p.warnf("%d travel rows have no timestamp", n)
	}
	if n := countMissing(ds.Measurements, domain.ColVariable); n > 0 {
		p.errorf("%d measurement rows have no variable", n)
	}

	negative := 0
	for _, d := range ds.Measurements.Col(domain.ColDepth).Float() {
		if !math.IsNaN(d) && d < 0 {
			negative++
		}
	}
	if negative > 0 {
		p.warnf("%d measurements have a negative depth and fall in no depth bucket", negative)
	}
	return p
}

// validateJoin checks that travel ids are unique and that the join keeps
// exactly the measurements whose id has a travel.
func validateJoin(ds domain.Dataset, consolidated dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 2: Join integrity"}
	fmt.Println("Phase 2: Join integrity")

	travelIDs, err := ds.Travels.Col(domain.ColID).Int()
	if err != nil {
		p.errorf("travel ids: %v", err)
		return p
	}
	measurementIDs, err := ds.Measurements.Col(domain.ColID).Int()
	if err != nil {
		p.errorf("measurement ids: %v", err)
		return p
	}

	perID := make(map[int]int, len(travelIDs))
	for _, id := range travelIDs {
		perID[id]++
	}
	for id, n := range perID {
		if n > 1 {
			p.errorf("travel id %d appears %d times", id, n)
		}
	}

	expected, orphans := 0, 0
	for _, id := range measurementIDs {
		if n, ok := perID[id]; ok {
			expected += n
		} else {
			orphans++
		}
	}
	if orphans > 0 {
		p.warnf("%d measurements reference no travel and are dropped", orphans)
	}
	if consolidated.Nrow() != expected {
		p.errorf("joined rows: got %d, want %d", consolidated.Nrow(), expected)
	}
	return p
}

// validateStandardization checks canonical labels and values and that the
// standardized date is constant per (cruise, station).
func validateStandardization(df dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 3: Standardization"}
	fmt.Println("Phase 3: Standardization")

	for _, name := range df.Names() {
		if c := domain.Canonicalize(name); c != name {
			p.errorf("column %q is not canonical (want %q)", name, c)
		}
	}

	variables := df.Col(domain.ColVariable).Records()
	bad := 0
	for _, v := range variables {
		if domain.Canonicalize(v) != v {
			bad++
		}
	}
	if bad > 0 {
		p.errorf("%d variable values are not canonical", bad)
	}

	cruises := df.Col(domain.Canonicalize(domain.ColCruise)).Records()
	stations := df.Col(domain.Canonicalize(domain.ColStation)).Records()
	dates := df.Col(domain.ColStandardizedDate).Records()

	type visit struct{ cruise, station string }
	seen := make(map[visit]string)
	for i := range dates {
		k := visit{cruises[i], stations[i]}
		if prev, ok := seen[k]; ok && prev != dates[i] {
			p.errorf("cruise %q station %s: standardized date %s differs from %s", k.cruise, k.station, dates[i], prev)
			continue
		}
		seen[k] = dates[i]
	}
	fmt.Printf("  %d station visits\n", len(seen))
	return p
}

// validateReport checks the report shape: one average per variable, cruise
// and bucket, a valid hour and at least one non-empty bin.
func validateReport(df dataframe.DataFrame) *phase {
	p := &phase{name: "Phase 4: Report shape"}
	fmt.Println("Phase 4: Report shape")

	report, err := domain.BuildReport(df)
	if err != nil {
		p.errorf("build report: %v", err)
		return p
	}

	cruises := make(map[string]struct{})
	for _, c := range df.Col(domain.Canonicalize(domain.ColCruise)).Records() {
		cruises[c] = struct{}{}
	}
	if _, ok := cruises[report.MostSampledCruise]; !ok {
		p.errorf("most sampled cruise %q is not in the table", report.MostSampledCruise)
	}
	if report.PeakSamplingHour < 0 || report.PeakSamplingHour > 23 {
		p.errorf("peak sampling hour %d out of range", report.PeakSamplingHour)
	}

	_, buckets, err := domain.AddDepthBucketColumn(df)
	if err != nil {
		p.errorf("depth buckets: %v", err)
		return p
	}
	want := len(domain.ReportVariables) * len(cruises) * len(buckets)
	if got := len(report.DepthAverages); got != want {
		p.errorf("depth averages: got %d rows, want %d", got, want)
	}
	if report.EmptyBins() == len(report.DepthAverages) {
		p.errorf("every depth bin is empty")
	}

	fmt.Printf("  most sampled cruise: %s, peak hour: %d, %d bins (%d empty)\n",
		report.MostSampledCruise, report.PeakSamplingHour, len(report.DepthAverages), report.EmptyBins())
	return p
}

func countMissing(df dataframe.DataFrame, col string) int {
	s := df.Col(col)
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			n++
		}
	}
	return n
}
