package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

// Classification splits LGAs into the two map panels.
type Classification string

const (
	ClassCapital Classification = "capital"
	ClassOther   Classification = "other"
)

// ParseClassification maps a lookup-table value to a Classification.
// Matching is case-insensitive and accepts the common labels used in
// NSW Health and ABS tables.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "capital", "greater sydney", "metropolitan":
		return ClassCapital, nil
	case "other", "regional", "rest of nsw":
		return ClassOther, nil
	default:
		return "", fmt.Errorf("unknown classification %q", s)
	}
}

// Region is one LGA boundary with its classification.
type Region struct {
	Code     string
	Name     string
	State    string
	Class    Classification
	Geometry orb.MultiPolygon
}

// RegionSet is the immutable set of mapped regions for a run, keyed by code.
type RegionSet struct {
	byCode map[string]Region
	codes  []string
}

// NewRegionSet builds a RegionSet. Later duplicates of a code replace
// earlier ones.
func NewRegionSet(regions []Region) RegionSet {
	rs := RegionSet{byCode: make(map[string]Region, len(regions))}
	for _, r := range regions {
		if _, ok := rs.byCode[r.Code]; !ok {
			rs.codes = append(rs.codes, r.Code)
		}
		rs.byCode[r.Code] = r
	}
	sort.Strings(rs.codes)
	return rs
}

// Len returns the number of regions.
func (rs RegionSet) Len() int { return len(rs.codes) }

// Lookup returns the region with the given code.
func (rs RegionSet) Lookup(code string) (Region, bool) {
	r, ok := rs.byCode[code]
	return r, ok
}

// Regions returns all regions ordered by code.
func (rs RegionSet) Regions() []Region {
	out := make([]Region, len(rs.codes))
	for i, c := range rs.codes {
		out[i] = rs.byCode[c]
	}
	return out
}

// CountByClass returns how many regions fall into each classification.
func (rs RegionSet) CountByClass() map[Classification]int {
	m := make(map[Classification]int, 2)
	for _, r := range rs.byCode {
		m[r.Class]++
	}
	return m
}

// ClassifyReport counts regions dropped while building a RegionSet.
type ClassifyReport struct {
	OutsideState int
	Unclassified []string // names of in-state regions missing from the lookup
}

var suffixPattern = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// NormalizeRegionName canonicalises an LGA name for joining across datasets:
// "Bathurst Regional (A)" and "bathurst  regional" both become
// "bathurst regional".
func NormalizeRegionName(name string) string {
	name = suffixPattern.ReplaceAllString(name, "")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ClassifyRegions keeps the regions in state (all regions when state is
// empty) and inner-joins them against lookup, which is keyed by normalised
// name. Regions absent from the lookup are dropped and reported.
func ClassifyRegions(regions []Region, state string, lookup map[string]Classification) (RegionSet, ClassifyReport) {
	var report ClassifyReport
	kept := make([]Region, 0, len(regions))
	for _, r := range regions {
		if state != "" && !strings.EqualFold(strings.TrimSpace(r.State), state) {
			report.OutsideState++
			continue
		}
		class, ok := lookup[NormalizeRegionName(r.Name)]
		if !ok {
			report.Unclassified = append(report.Unclassified, r.Name)
			continue
		}
		r.Class = class
		kept = append(kept, r)
	}
	sort.Strings(report.Unclassified)
	return NewRegionSet(kept), report
}
