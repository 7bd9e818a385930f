package query

import (
	"context"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/ppiankov/gbdrill/internal/facts"
	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/worker"
)

// CountryHistory returns the yearly total for one location
func (s *Service) CountryHistory(locationID int, sexes, causes []int) map[int]float64 {
	defer s.observe("country_history", time.Now())

	totals := make(map[int]float64)
	s.facts.Each(facts.Filter{
		LocationID: locationID,
		SexIDs:     sexes,
		Causes:     s.scope(causes),
	}, func(row model.FactRow) {
		totals[row.Year] += row.Value
	})
	return totals
}

// CountryRates breaks one year down by location and sex
func (s *Service) CountryRates(year int, sexes, causes []int) *model.CountryRates {
	defer s.observe("country_rates", time.Now())

	locations := s.byLocation(year, sexes, s.scope(causes))
	return &model.CountryRates{
		Year:       year,
		Locations:  locations,
		Statistics: statistics(locations),
	}
}

// YearsData breaks every year down by location and sex. Years are computed
// concurrently on the service's worker pool; locations whose total is not
// positive are left out.
func (s *Service) YearsData(ctx context.Context, sexes, causes []int) (*model.YearsData, error) {
	defer s.observe("years_data", time.Now())

	scope := s.scope(causes)
	years := s.facts.Years()

	jobs := make([]worker.Job, len(years))
	for i, year := range years {
		jobs[i] = &yearJob{svc: s, year: year, sexes: sexes, scope: scope}
	}

	results := s.pool.Run(ctx, jobs)
	if err := worker.FirstError(results); err != nil {
		return nil, fmt.Errorf("years data: %w", err)
	}

	out := &model.YearsData{
		Years:      make(map[int]map[int]*model.SexTotals),
		Statistics: make(map[int]model.Stats),
	}
	for _, r := range results {
		yr := r.(*yearResult)
		if len(yr.locations) == 0 {
			continue
		}
		out.Years[yr.year] = yr.locations
		out.Statistics[yr.year] = statistics(yr.locations)
	}
	return out, nil
}

// RatesByLevel1 groups one location's rows under their top-level cause,
// per year and sex. Rows for causes outside the hierarchy are skipped.
func (s *Service) RatesByLevel1(locationID int, sexes, causes []int) []model.Level1Series {
	defer s.observe("rates_by_level1", time.Now())

	series := make(map[int]*model.Level1Series)
	s.facts.Each(facts.Filter{
		LocationID: locationID,
		SexIDs:     sexes,
		Causes:     s.scope(causes),
	}, func(row model.FactRow) {
		rootID, err := s.tree.RootOf(row.CauseID)
		if err != nil {
			return
		}
		sr, ok := series[rootID]
		if !ok {
			root, _ := s.tree.Get(rootID)
			sr = &model.Level1Series{ID: rootID, Name: root.Name, Data: make(map[int]*model.SexTotals)}
			series[rootID] = sr
		}
		addTo(sr.Data, row.Year, row)
	})

	out := make([]model.Level1Series, 0, len(series))
	for _, rootID := range s.tree.Roots() {
		if sr, ok := series[rootID]; ok {
			out = append(out, *sr)
		}
	}
	return out
}

func (s *Service) byLocation(year int, sexes []int, scope *roaring.Bitmap) map[int]*model.SexTotals {
	locations := make(map[int]*model.SexTotals)
	s.facts.Each(facts.Filter{
		Year:   year,
		SexIDs: sexes,
		Causes: scope,
	}, func(row model.FactRow) {
		addTo(locations, row.LocationID, row)
	})
	return locations
}

func addTo(m map[int]*model.SexTotals, key int, row model.FactRow) {
	t, ok := m[key]
	if !ok {
		t = &model.SexTotals{BySex: make(map[int]float64)}
		m[key] = t
	}
	t.BySex[row.SexID] += row.Value
	t.Total += row.Value
}

func statistics(locations map[int]*model.SexTotals) model.Stats {
	if len(locations) == 0 {
		return model.Stats{}
	}

	first := true
	var st model.Stats
	var sum float64
	for _, t := range locations {
		if first || t.Total < st.Min {
			st.Min = t.Total
		}
		if first || t.Total > st.Max {
			st.Max = t.Total
		}
		first = false
		sum += t.Total
	}
	st.Mean = sum / float64(len(locations))
	return st
}

type yearJob struct {
	svc   *Service
	year  int
	sexes []int
	scope *roaring.Bitmap
}

func (j *yearJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &yearResult{year: j.year, err: err}
	}

	locations := j.svc.byLocation(j.year, j.sexes, j.scope)
	for id, t := range locations {
		if t.Total <= 0 {
			delete(locations, id)
		}
	}
	return &yearResult{year: j.year, locations: locations}
}

type yearResult struct {
	year      int
	locations map[int]*model.SexTotals
	err       error
}

func (r *yearResult) GetError() error {
	return r.err
}
