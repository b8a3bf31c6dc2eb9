package pipeline

import (
	"time"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/couchcryptid/nsw-covid-lga-map/internal/filewriter"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML record of a run written next to its outputs.
type Manifest struct {
	GeneratedAt time.Time        `yaml:"generated_at"`
	FrameDir    string           `yaml:"frame_dir"`
	Animation   string           `yaml:"animation"`
	FirstDate   string           `yaml:"first_date"`
	LastDate    string           `yaml:"last_date"`
	Frames      int              `yaml:"frames"`
	MaxCount    int              `yaml:"max_count"`
	Records     ManifestRecords  `yaml:"records"`
	Regions     ManifestRegions  `yaml:"regions"`
	Vaccination ManifestVaccines `yaml:"vaccination"`
	Published   int              `yaml:"aggregates_published"`
}

// ManifestRecords counts fetched case records and why unmapped ones were skipped.
type ManifestRecords struct {
	Fetched            int      `yaml:"fetched"`
	Mapped             int      `yaml:"mapped"`
	WithoutRegion      int      `yaml:"without_region"`
	UnknownRegion      int      `yaml:"unknown_region"`
	UnknownRegionCodes []string `yaml:"unknown_region_codes,omitempty"`
}

// ManifestRegions describes the region set after the state filter and
// classification join.
type ManifestRegions struct {
	Loaded       int      `yaml:"loaded"`
	OutsideState int      `yaml:"outside_state"`
	Unclassified []string `yaml:"unclassified,omitempty"`
}

// ManifestVaccines summarises the vaccination join.
type ManifestVaccines struct {
	Snapshots    int      `yaml:"snapshots"`
	DatesDropped []string `yaml:"dates_dropped,omitempty"`
}

func newManifest(s Summary, opts Options) Manifest {
	m := Manifest{
		GeneratedAt: domain.Now().UTC(),
		FrameDir:    opts.FrameDir,
		Animation:   opts.AnimationPath,
		FirstDate:   s.FirstDate.Format(domain.DateLayout),
		LastDate:    s.LastDate.Format(domain.DateLayout),
		Frames:      s.FramesRendered,
		MaxCount:    s.MaxCount,
		Records: ManifestRecords{
			Fetched:            s.RecordsFetched,
			Mapped:             s.RecordsMapped(),
			WithoutRegion:      s.RecordsWithoutRegion,
			UnknownRegion:      s.RecordsUnknownRegion,
			UnknownRegionCodes: s.UnknownRegionCodes,
		},
		Regions: ManifestRegions{
			Loaded:       s.RegionsLoaded,
			OutsideState: s.RegionsOutsideState,
			Unclassified: s.RegionsUnclassified,
		},
		Vaccination: ManifestVaccines{Snapshots: s.VaccinationSnapshots},
		Published:   s.AggregatesPublished,
	}
	for _, d := range s.DatesWithoutVaccination {
		m.Vaccination.DatesDropped = append(m.Vaccination.DatesDropped, d.Format(domain.DateLayout))
	}
	return m
}

func writeManifest(path string, m Manifest) error {
	return filewriter.WriteFile(path, func(fw *filewriter.FileWriter) error {
		enc := yaml.NewEncoder(fw)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	})
}
