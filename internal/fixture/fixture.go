// Package fixture writes a small synthetic input set for local runs and
// tests: a GeoJSON boundary grid, its classification table, cumulative
// vaccination counts and a datastore-shaped case response.
package fixture

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/filewriter"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// File names written by Write.
const (
	BoundaryFile       = "lga_boundaries.geojson"
	ClassificationFile = "lga_classification.csv"
	VaccinationFile    = "nsw_vaccinations.csv"
	CasesFile          = "cases.json"
)

// State is the state name carried by every generated in-state boundary.
const State = "New South Wales"

// Options sizes the generated data.
type Options struct {
	Columns int       // boundary grid width
	Rows    int       // boundary grid height
	Days    int       // number of case dates
	Start   time.Time // first case date
	Seed    uint64
}

// DefaultOptions is a 4x3 grid with three weeks of cases from 1 July 2021.
var DefaultOptions = Options{
	Columns: 4,
	Rows:    3,
	Days:    21,
	Start:   time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC),
	Seed:    2021,
}

// Paths lists the generated files.
type Paths struct {
	Boundaries      string
	Classifications string
	Vaccinations    string
	Cases           string
}

// Summary describes what was generated, for asserting against a run.
type Summary struct {
	Regions       int // classified in-state regions
	CaseRecords   int // records in the case response, including unmappable ones
	WithoutRegion int
	UnknownRegion int
	Dates         int
}

// Region codes of the deliberately unmappable extras.
const (
	OutsideStateCode = "29999"
	UnclassifiedCode = "19499"
	UnknownCaseCode  = "18888"
)

type region struct {
	code, name, state string
	class             domain.Classification
	ring              orb.Ring
}

// Write generates the fixture set in dir.
func Write(dir string, opts Options) (Paths, Summary, error) {
	if opts.Columns <= 0 || opts.Rows <= 0 || opts.Days <= 0 {
		return Paths{}, Summary{}, errors.New("fixture: columns, rows and days must be positive")
	}
	paths := Paths{
		Boundaries:      filepath.Join(dir, BoundaryFile),
		Classifications: filepath.Join(dir, ClassificationFile),
		Vaccinations:    filepath.Join(dir, VaccinationFile),
		Cases:           filepath.Join(dir, CasesFile),
	}

	regions := grid(opts.Columns, opts.Rows)
	if err := writeBoundaries(paths.Boundaries, regions); err != nil {
		return paths, Summary{}, err
	}
	if err := writeClassifications(paths.Classifications, regions); err != nil {
		return paths, Summary{}, err
	}
	if err := writeVaccinations(paths.Vaccinations, opts); err != nil {
		return paths, Summary{}, err
	}
	summary, err := writeCases(paths.Cases, regions, opts)
	if err != nil {
		return paths, Summary{}, err
	}
	return paths, summary, nil
}

// grid lays out Columns x Rows square LGAs west of Sydney. The eastern
// column is Greater Sydney. One extra region sits outside the state and
// one is left out of the classification table.
func grid(cols, rows int) []region {
	const size = 0.5
	var out []region
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := 151.0 - float64(cols-c)*size
			y := -34.5 + float64(r)*size
			class := domain.ClassOther
			if c == cols-1 {
				class = domain.ClassCapital
			}
			n := r*cols + c
			out = append(out, region{
				code:  strconv.Itoa(10050 + n*50),
				name:  fmt.Sprintf("Synthetic %02d (A)", n+1),
				state: State,
				class: class,
				ring:  square(x, y, size),
			})
		}
	}
	out = append(out,
		region{code: OutsideStateCode, name: "Elsewhere", state: "Victoria", class: domain.ClassOther, ring: square(146, -37, size)},
		region{code: UnclassifiedCode, name: "Unincorporated NSW", state: State, ring: square(141.5, -31, size)},
	)
	return out
}

func square(x, y, size float64) orb.Ring {
	return orb.Ring{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}
}

func writeBoundaries(path string, regions []region) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(orb.Polygon{r.ring})
		f.Properties["LGA_CODE21"] = r.code
		f.Properties["LGA_NAME21"] = r.name
		f.Properties["STE_NAME21"] = r.state
		fc.Append(f)
	}
	return filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		return json.NewEncoder(fw).Encode(fc)
	})
}

func writeClassifications(path string, regions []region) error {
	return filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		w := csv.NewWriter(fw)
		if err := w.Write([]string{"lga_name", "classification"}); err != nil {
			return err
		}
		for _, r := range regions {
			if r.class == "" || r.state != State {
				continue
			}
			if err := w.Write([]string{r.name, string(r.class)}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// writeVaccinations covers every case date but the first, so one date is
// always dropped by the join.
func writeVaccinations(path string, opts Options) error {
	return filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		w := csv.NewWriter(fw)
		if err := w.Write([]string{"date", "first_dose_cumulative", "second_dose_cumulative"}); err != nil {
			return err
		}
		first, second := int64(2_400_000), int64(1_100_000)
		for d := 1; d < opts.Days; d++ {
			first += 60_000
			second += 35_000
			date := opts.Start.AddDate(0, 0, d).Format("02/01/2006")
			if err := w.Write([]string{date, thousands(first), thousands(second)}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

type caseRecord struct {
	NotificationDate string  `json:"notification_date"`
	LGACode          *string `json:"lga_code19"`
	LGAName          *string `json:"lga_name19"`
}

type caseEnvelope struct {
	Success bool `json:"success"`
	Result  struct {
		Records []caseRecord `json:"records"`
	} `json:"result"`
}

// writeCases draws a rising then falling daily count per region, plus one
// record without a region and one with an unknown code on every date.
func writeCases(path string, regions []region, opts Options) (Summary, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	var env caseEnvelope
	env.Success = true

	summary := Summary{Dates: opts.Days}
	for d := 0; d < opts.Days; d++ {
		date := opts.Start.AddDate(0, 0, d).Format(domain.DateLayout)
		peak := 1 + min(d, opts.Days-1-d)
		for _, r := range regions {
			if r.state != State || r.class == "" {
				continue
			}
			weight := 1
			if r.class == domain.ClassCapital {
				weight = 3
			}
			for range rng.IntN(peak*weight + 1) {
				env.Result.Records = append(env.Result.Records, caseRecord{NotificationDate: date, LGACode: ptr(r.code), LGAName: ptr(r.name)})
			}
		}
		env.Result.Records = append(env.Result.Records,
			caseRecord{NotificationDate: date},
			caseRecord{NotificationDate: date, LGACode: ptr(UnknownCaseCode), LGAName: ptr("Correctional settings")},
		)
		summary.WithoutRegion++
		summary.UnknownRegion++
	}
	for _, r := range regions {
		if r.state == State && r.class != "" {
			summary.Regions++
		}
	}
	summary.CaseRecords = len(env.Result.Records)

	err := filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		return json.NewEncoder(fw).Encode(env)
	})
	return summary, err
}

func ptr(s string) *string { return &s }
