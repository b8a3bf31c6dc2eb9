package boundary

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
)

// Source loads boundaries and classifications and joins them into the set
// of regions that frames are drawn from.
type Source struct {
	boundaryPath       string
	classificationPath string
	fields             Fields
	state              string
	logger             *slog.Logger
}

// NewSource creates a Source. An empty state keeps regions from every state.
func NewSource(boundaryPath, classificationPath string, fields Fields, state string, logger *slog.Logger) *Source {
	return &Source{
		boundaryPath:       boundaryPath,
		classificationPath: classificationPath,
		fields:             fields,
		state:              state,
		logger:             logger,
	}
}

// LoadRegions reads both files and classifies the in-state regions.
// It fails when no region survives the join.
func (s *Source) LoadRegions() (domain.RegionSet, domain.ClassifyReport, error) {
	regions, err := LoadBoundaries(s.boundaryPath, s.fields)
	if err != nil {
		return domain.RegionSet{}, domain.ClassifyReport{}, err
	}
	lookup, err := LoadClassifications(s.classificationPath)
	if err != nil {
		return domain.RegionSet{}, domain.ClassifyReport{}, err
	}

	set, report := domain.ClassifyRegions(regions, s.state, lookup)
	s.logger.Info("regions loaded",
		"boundaries", len(regions),
		"classified", set.Len(),
		"outside_state", report.OutsideState,
		"unclassified", len(report.Unclassified),
	)
	if set.Len() == 0 {
		return set, report, fmt.Errorf("no regions left after classifying %d boundaries from %s", len(regions), s.boundaryPath)
	}
	return set, report, nil
}
