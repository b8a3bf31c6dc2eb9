// Package vaccination reads the NSW cumulative vaccination series.
package vaccination

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
)

// Dates are ISO in the NSW Health export and day-first in older
// spreadsheet copies.
var dateLayouts = []string{"02/01/2006", "2/1/2006"}

var columns = []string{"date", "first_dose_cumulative", "second_dose_cumulative"}

// Loader implements pipeline.VaccinationSource for a CSV file.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// LoadVaccinations returns the snapshots in the file sorted by date.
// Rows with an empty dose count are skipped. A file without any usable rows
// is an error, since it would silently exclude every frame.
func (l *Loader) LoadVaccinations() ([]domain.VaccinationSnapshot, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snaps, skipped, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	if skipped > 0 {
		l.logger.Warn("vaccination rows without dose counts skipped", "rows", skipped, "path", l.path)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%s: no vaccination rows", l.path)
	}
	return snaps, nil
}

func read(r io.Reader) (snaps []domain.VaccinationSnapshot, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, 0, err
		}

		first, second := strings.TrimSpace(row[idx[1]]), strings.TrimSpace(row[idx[2]])
		if first == "" || second == "" {
			skipped++
			continue
		}

		date, err := domain.ParseDate(row[idx[0]], dateLayouts...)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		snap := domain.VaccinationSnapshot{Date: date}
		if snap.FirstDoseCumulative, err = parseCount(first); err != nil {
			return nil, 0, fmt.Errorf("line %d: first dose: %w", line, err)
		}
		if snap.SecondDoseCumulative, err = parseCount(second); err != nil {
			return nil, 0, fmt.Errorf("line %d: second dose: %w", line, err)
		}
		snaps = append(snaps, snap)
	}

	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Date.Before(snaps[j].Date) })
	return snaps, skipped, nil
}

// parseCount accepts integers with thousands separators, e.g. "5,123,456".
func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}
