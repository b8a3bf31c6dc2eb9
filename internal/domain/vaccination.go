package domain

import "time"

// VaccinationSnapshot holds cumulative dose counts reported for a date.
type VaccinationSnapshot struct {
	Date                 time.Time
	FirstDoseCumulative  int64
	SecondDoseCumulative int64
}

// Percentages returns first and second dose coverage of population as
// percentages clamped to [0, 100]. A non-positive population yields zeros.
func (v VaccinationSnapshot) Percentages(population int64) (first, second float64) {
	if population <= 0 {
		return 0, 0
	}
	return clampPercent(float64(v.FirstDoseCumulative) / float64(population) * 100),
		clampPercent(float64(v.SecondDoseCumulative) / float64(population) * 100)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// IndexVaccinations keys snapshots by date. A later snapshot for the same
// date replaces an earlier one.
func IndexVaccinations(snaps []VaccinationSnapshot) map[time.Time]VaccinationSnapshot {
	m := make(map[time.Time]VaccinationSnapshot, len(snaps))
	for _, s := range snaps {
		m[s.Date] = s
	}
	return m
}
