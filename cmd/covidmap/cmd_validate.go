package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/boundary"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/vaccination"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/config"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check boundary, classification and vaccination inputs",
	Long: `Loads the boundary file, the classification table and the vaccination
series without fetching cases or rendering, and reports per-phase results.
Exits non-zero when any phase fails.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	phases := validateInputs(cfg, vaccination.NewLoader(cfg.VaccinationPath, logger))
	if !report(cmd.OutOrStdout(), phases) {
		return errValidationFailed
	}
	return nil
}

func validateInputs(cfg *config.Config, vacc *vaccination.Loader) []*phase {
	regions, boundaries := validateBoundaries(cfg)
	phases := []*phase{boundaries, validateClassification(cfg, regions)}
	if cfg.VaccinationPath == "" {
		skipped := &phase{name: "vaccination series"}
		skipped.notef("VACCINATION_PATH is empty; the join is disabled")
		return append(phases, skipped)
	}
	return append(phases, validateVaccinations(cfg, vacc))
}

func validateBoundaries(cfg *config.Config) ([]domain.Region, *phase) {
	p := &phase{name: "boundary file"}
	regions, err := boundary.LoadBoundaries(cfg.BoundaryPath, boundaryFields(cfg))
	if err != nil {
		p.errorf("load %s: %v", cfg.BoundaryPath, err)
		return nil, p
	}
	if len(regions) == 0 {
		p.errorf("%s has no polygon features", cfg.BoundaryPath)
		return nil, p
	}

	byState := make(map[string]int)
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		byState[r.State]++
		if seen[r.Code] {
			p.errorf("region code %s appears more than once", r.Code)
		}
		seen[r.Code] = true
	}
	states := make([]string, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		p.notef("%d regions in %q", byState[s], s)
	}
	if cfg.BoundaryState != "" && byState[cfg.BoundaryState] == 0 {
		p.errorf("no regions in BOUNDARY_STATE %q", cfg.BoundaryState)
	}
	return regions, p
}

func validateClassification(cfg *config.Config, regions []domain.Region) *phase {
	p := &phase{name: "classification join"}
	lookup, err := boundary.LoadClassifications(cfg.ClassificationPath)
	if err != nil {
		p.errorf("load %s: %v", cfg.ClassificationPath, err)
		return p
	}
	if regions == nil {
		p.notef("skipped: no boundaries loaded")
		return p
	}

	set, classified := domain.ClassifyRegions(regions, cfg.BoundaryState, lookup)
	counts := set.CountByClass()
	p.notef("%d capital, %d other, %d outside state", counts[domain.ClassCapital], counts[domain.ClassOther], classified.OutsideState)
	if counts[domain.ClassCapital] == 0 {
		p.errorf("no %s regions", domain.ClassCapital)
	}
	if counts[domain.ClassOther] == 0 {
		p.errorf("no %s regions", domain.ClassOther)
	}
	if n := len(classified.Unclassified); n > 0 {
		p.notef("%d regions without a classification will be dropped: %s", n, strings.Join(classified.Unclassified, ", "))
	}

	matched := make(map[string]bool, set.Len())
	for _, r := range set.Regions() {
		matched[domain.NormalizeRegionName(r.Name)] = true
	}
	var unused []string
	for name := range lookup {
		if !matched[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		p.notef("%d classification rows match no boundary: %s", len(unused), strings.Join(unused, ", "))
	}
	return p
}

func validateVaccinations(cfg *config.Config, vacc *vaccination.Loader) *phase {
	p := &phase{name: "vaccination series"}
	snaps, err := vacc.LoadVaccinations()
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	p.notef("%d snapshots, %s to %s", len(snaps),
		snaps[0].Date.Format(domain.DateLayout), snaps[len(snaps)-1].Date.Format(domain.DateLayout))

	for i, s := range snaps {
		date := s.Date.Format(domain.DateLayout)
		if s.SecondDoseCumulative > s.FirstDoseCumulative {
			p.errorf("%s: second doses (%d) exceed first doses (%d)", date, s.SecondDoseCumulative, s.FirstDoseCumulative)
		}
		if s.FirstDoseCumulative > cfg.VaccinationPopulation {
			p.errorf("%s: first doses (%d) exceed VACCINATION_POPULATION (%d)", date, s.FirstDoseCumulative, cfg.VaccinationPopulation)
		}
		if i == 0 {
			continue
		}
		prev := snaps[i-1]
		if s.Date.Equal(prev.Date) {
			p.errorf("%s: duplicate date", date)
		}
		if s.FirstDoseCumulative < prev.FirstDoseCumulative || s.SecondDoseCumulative < prev.SecondDoseCumulative {
			p.errorf("%s: cumulative count decreased", date)
		}
	}
	return p
}

// report prints the phase table followed by details, and returns whether
// every phase passed.
func report(w io.Writer, phases []*phase) bool {
	fmt.Fprintln(w, "=== Input Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-28s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}
