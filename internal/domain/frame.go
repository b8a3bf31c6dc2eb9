package domain

import (
	"sort"
	"time"
)

// RegionCount pairs a region with its case count for one frame.
type RegionCount struct {
	Region Region
	Count  int
}

// Frame is everything needed to render the image for one date.
type Frame struct {
	Date        time.Time
	Capital     []RegionCount
	Other       []RegionCount
	Vaccination *VaccinationSnapshot
}

// FileName is the frame's image name, e.g. "2021-11-10.png".
func (f Frame) FileName() string {
	return f.Date.Format(DateLayout) + ".png"
}

// Total returns the number of cases drawn in the frame.
func (f Frame) Total() int {
	n := 0
	for _, rc := range f.Capital {
		n += rc.Count
	}
	for _, rc := range f.Other {
		n += rc.Count
	}
	return n
}

// FramePlan is the ordered list of frames for a run with the shared colour
// ceiling and the rows that could not be placed.
type FramePlan struct {
	Frames   []Frame
	MaxCount int

	// RecordsUnknownRegion is the number of case records whose region code
	// is not in the region set.
	RecordsUnknownRegion int
	UnknownRegionCodes   []string

	// DatesWithoutVaccination lists dates dropped by the vaccination join.
	DatesWithoutVaccination []time.Time
}

// PlanFrames turns aggregate rows into one frame per date.
//
// Vaccination snapshots are left-joined by date and dates without a snapshot
// are excluded from the plan. When vaccinations is empty the join is skipped:
// every date is planned and frames carry no vaccination data.
//
// Each frame lists every region in regions exactly once, with a zero count
// where no cases were reported, split by classification. MaxCount is taken
// over the whole aggregate table, including dates excluded by the join.
func PlanFrames(rows []DailyAggregate, regions RegionSet, vaccinations []VaccinationSnapshot) FramePlan {
	plan := FramePlan{MaxCount: MaxCount(rows)}

	byDate := make(map[time.Time]map[string]int)
	unknown := make(map[string]struct{})
	for _, r := range rows {
		if _, ok := regions.Lookup(r.RegionCode); !ok {
			plan.RecordsUnknownRegion += r.Count
			unknown[r.RegionCode] = struct{}{}
			continue
		}
		counts, ok := byDate[r.Date]
		if !ok {
			counts = make(map[string]int)
			byDate[r.Date] = counts
		}
		// The same code can appear under more than one spelling of its name.
		counts[r.RegionCode] += r.Count
	}
	for code := range unknown {
		plan.UnknownRegionCodes = append(plan.UnknownRegionCodes, code)
	}
	sort.Strings(plan.UnknownRegionCodes)

	joinVaccinations := len(vaccinations) > 0
	vaccByDate := IndexVaccinations(vaccinations)
	all := regions.Regions()

	for _, date := range Dates(rows) {
		frame := Frame{Date: date}
		if joinVaccinations {
			snap, ok := vaccByDate[date]
			if !ok {
				plan.DatesWithoutVaccination = append(plan.DatesWithoutVaccination, date)
				continue
			}
			frame.Vaccination = &snap
		}

		counts := byDate[date]
		for _, region := range all {
			rc := RegionCount{Region: region, Count: counts[region.Code]}
			if region.Class == ClassCapital {
				frame.Capital = append(frame.Capital, rc)
			} else {
				frame.Other = append(frame.Other, rc)
			}
		}
		plan.Frames = append(plan.Frames, frame)
	}
	return plan
}
