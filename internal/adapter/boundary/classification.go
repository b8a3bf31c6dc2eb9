package boundary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
)

// LoadClassifications reads a CSV with "lga_name" and "classification"
// columns and returns classifications keyed by normalised region name.
func LoadClassifications(path string) (map[string]domain.Classification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readClassifications(f)
}

func readClassifications(r io.Reader) (map[string]domain.Classification, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := findColumns(header, "lga_name", "classification")
	if err != nil {
		return nil, err
	}
	nameCol, classCol := cols[0], cols[1]

	lookup := make(map[string]domain.Classification)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		class, err := domain.ParseClassification(row[classCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lookup[domain.NormalizeRegionName(name)] = class
	}
	return lookup, nil
}

// findColumns returns the index of each named column, ignoring case and a
// UTF-8 byte-order mark on the first header cell.
func findColumns(header []string, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = -1
		for j, h := range header {
			h = strings.TrimPrefix(h, "\ufeff")
			if strings.EqualFold(strings.TrimSpace(h), name) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}
