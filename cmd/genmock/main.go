// Command genmock writes a synthetic input set for local runs: a GeoJSON
// boundary grid, its classification table, a vaccination series and a
// datastore-shaped case response. With -serve it also serves the directory
// so CASES_URL can point at the generated response.
//
// Usage:
//
//	go run ./cmd/genmock -dir data/mock -serve :8081
//
//	CASES_URL=http://localhost:8081/cases.json \
//	BOUNDARY_PATH=data/mock/lga_boundaries.geojson \
//	CLASSIFICATION_PATH=data/mock/lga_classification.csv \
//	VACCINATION_PATH=data/mock/nsw_vaccinations.csv \
//	go run ./cmd/covidmap run
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	opts := fixture.DefaultOptions
	dir := flag.String("dir", "data/mock", "output directory")
	flag.IntVar(&opts.Columns, "columns", opts.Columns, "boundary grid columns (the eastern column is Greater Sydney)")
	flag.IntVar(&opts.Rows, "rows", opts.Rows, "boundary grid rows")
	flag.IntVar(&opts.Days, "days", opts.Days, "number of case dates")
	start := flag.String("start", opts.Start.Format(domain.DateLayout), "first case date (YYYY-MM-DD)")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed for daily counts")
	serve := flag.String("serve", "", "serve the output directory on this address after writing")
	flag.Parse()

	var err error
	if opts.Start, err = domain.ParseDate(*start); err != nil {
		return fmt.Errorf("-start: %w", err)
	}

	paths, summary, err := fixture.Write(*dir, opts)
	if err != nil {
		return err
	}
	log.Printf("boundaries:      %s (%d classified regions)", paths.Boundaries, summary.Regions)
	log.Printf("classifications: %s", paths.Classifications)
	log.Printf("vaccinations:    %s", paths.Vaccinations)
	log.Printf("cases:           %s (%d records over %d days, %d without region, %d unknown code)",
		paths.Cases, summary.CaseRecords, summary.Dates, summary.WithoutRegion, summary.UnknownRegion)

	if *serve == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              *serve,
		Handler:           http.FileServer(http.Dir(*dir)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("serving %s on %s (CASES_URL=http://localhost%s/%s)", *dir, *serve, *serve, fixture.CasesFile)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
