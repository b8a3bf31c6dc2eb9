package domain

import (
	"sort"
	"time"
)

// DailyAggregate is the number of cases notified in one region on one date.
type DailyAggregate struct {
	Date       time.Time
	RegionCode string
	RegionName string
	Count      int
}

type aggregateKey struct {
	date time.Time
	code string
	name string
}

// AggregateCases counts records per (date, region code, region name).
// Records without a region code cannot be mapped; they are skipped and
// their number is returned as withoutRegion. Rows are sorted by date, then
// code, then name, so identical input always yields identical output.
func AggregateCases(records []CaseRecord) (rows []DailyAggregate, withoutRegion int) {
	counts := make(map[aggregateKey]int)
	for _, r := range records {
		if r.RegionCode == "" {
			withoutRegion++
			continue
		}
		counts[aggregateKey{date: r.Date, code: r.RegionCode, name: r.RegionName}]++
	}

	rows = make([]DailyAggregate, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, DailyAggregate{Date: k.date, RegionCode: k.code, RegionName: k.name, Count: n})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.RegionCode != b.RegionCode {
			return a.RegionCode < b.RegionCode
		}
		return a.RegionName < b.RegionName
	})
	return rows, withoutRegion
}

// MaxCount returns the largest single (date, region) count in rows, or 0.
func MaxCount(rows []DailyAggregate) int {
	highest := 0
	for _, r := range rows {
		if r.Count > highest {
			highest = r.Count
		}
	}
	return highest
}

// Dates returns the distinct dates in rows in ascending order.
func Dates(rows []DailyAggregate) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, r := range rows {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
