package server

import (
	"net/http"

	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/query"
)

func (s *Server) diseases(*http.Request) (any, error) {
	return map[string][]model.CauseDef{"causes": s.svc.Diseases()}, nil
}

func (s *Server) locations(*http.Request) (any, error) {
	return s.svc.Locations(), nil
}

func (s *Server) years(*http.Request) (any, error) {
	return s.svc.Years(), nil
}

func (s *Server) diseaseChildren(r *http.Request) (any, error) {
	q := r.URL.Query()
	parentID, err := query.ParseID("parent_id", q.Get("parent_id"))
	if err != nil {
		return nil, err
	}
	sel, err := query.ParseSelection(query.SelectionParams{
		Location: q.Get("location_id"),
		Year:     q.Get("year"),
		Sexes:    q.Get("sexes"),
		Causes:   q.Get("diseases"),
	})
	if err != nil {
		return nil, err
	}
	return s.svc.ChildrenOf(parentID, sel), nil
}

func (s *Server) diseaseDetails(r *http.Request) (any, error) {
	q := r.URL.Query()
	diseaseID, err := query.ParseID("disease_id", q.Get("disease_id"))
	if err != nil {
		return nil, err
	}
	sel, err := query.ParseSelection(query.SelectionParams{
		Location: q.Get("location_id"),
		Year:     q.Get("year"),
		Sexes:    q.Get("sexes"),
		Causes:   q.Get("diseases"),
	})
	if err != nil {
		return nil, err
	}
	return s.svc.DetailOf(diseaseID, sel)
}

func (s *Server) hierarchicalData(r *http.Request) (any, error) {
	q := r.URL.Query()
	sel, err := query.ParseSelection(query.SelectionParams{
		Location: q.Get("location"),
		Year:     q.Get("year"),
		Sexes:    q.Get("sexes"),
		Causes:   q.Get("diseases"),
	})
	if err != nil {
		return nil, err
	}
	return s.svc.FlattenForDisplay(sel), nil
}

func (s *Server) countryHistory(r *http.Request) (any, error) {
	q := r.URL.Query()
	locationID, err := query.ParseID("location", q.Get("location"))
	if err != nil {
		return nil, err
	}
	sexes, causes, err := sexesAndCauses(r)
	if err != nil {
		return nil, err
	}
	return map[string]map[int]float64{
		"total": s.svc.CountryHistory(locationID, sexes, causes),
	}, nil
}

func (s *Server) allCountriesRates(r *http.Request) (any, error) {
	year, err := query.ParseID("year", r.URL.Query().Get("year"))
	if err != nil {
		return nil, err
	}
	sexes, causes, err := sexesAndCauses(r)
	if err != nil {
		return nil, err
	}
	return s.svc.CountryRates(year, sexes, causes), nil
}

func (s *Server) allYearsData(r *http.Request) (any, error) {
	sexes, causes, err := sexesAndCauses(r)
	if err != nil {
		return nil, err
	}
	return s.svc.YearsData(r.Context(), sexes, causes)
}

func (s *Server) ratesByLevel1(r *http.Request) (any, error) {
	locationID, err := query.ParseID("location", r.URL.Query().Get("location"))
	if err != nil {
		return nil, err
	}
	sexes, causes, err := sexesAndCauses(r)
	if err != nil {
		return nil, err
	}
	return s.svc.RatesByLevel1(locationID, sexes, causes), nil
}

func sexesAndCauses(r *http.Request) ([]int, []int, error) {
	q := r.URL.Query()
	sexes, err := query.ParseSexes(q.Get("sexes"))
	if err != nil {
		return nil, nil, err
	}
	causes, err := query.ParseIDList("diseases", q.Get("diseases"))
	if err != nil {
		return nil, nil, err
	}
	return sexes, causes, nil
}
