package domain

import "time"

// Report accounts for every input row that did not make it onto a map.
type Report struct {
	RecordsFetched          int
	RecordsWithoutRegion    int
	RecordsUnknownRegion    int
	UnknownRegionCodes      []string
	RegionsLoaded           int
	RegionsOutsideState     int
	RegionsUnclassified     []string
	VaccinationSnapshots    int
	DatesWithoutVaccination []time.Time
	FramesPlanned           int
	MaxCount                int
}

// RecordsMapped returns the number of case records matched to a known region.
func (r Report) RecordsMapped() int {
	return r.RecordsFetched - r.RecordsWithoutRegion - r.RecordsUnknownRegion
}
