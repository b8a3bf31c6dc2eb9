package pipeline

import "github.com/couchcryptid/nsw-covid-lga-map/internal/domain"

// Plan aggregates the fetched records and lays them out as frames, returning
// the aggregate table, the frame plan, and a report of everything dropped
// along the way.
func Plan(records []domain.CaseRecord, regions domain.RegionSet, classified domain.ClassifyReport, vaccinations []domain.VaccinationSnapshot) ([]domain.DailyAggregate, domain.FramePlan, domain.Report) {
	rows, withoutRegion := domain.AggregateCases(records)
	plan := domain.PlanFrames(rows, regions, vaccinations)

	report := domain.Report{
		RecordsFetched:          len(records),
		RecordsWithoutRegion:    withoutRegion,
		RecordsUnknownRegion:    plan.RecordsUnknownRegion,
		UnknownRegionCodes:      plan.UnknownRegionCodes,
		RegionsLoaded:           regions.Len(),
		RegionsOutsideState:     classified.OutsideState,
		RegionsUnclassified:     classified.Unclassified,
		VaccinationSnapshots:    len(vaccinations),
		DatesWithoutVaccination: plan.DatesWithoutVaccination,
		FramesPlanned:           len(plan.Frames),
		MaxCount:                plan.MaxCount,
	}
	return rows, plan, report
}
