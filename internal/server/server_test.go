package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/gbdrill/internal/cache"
	"github.com/ppiankov/gbdrill/internal/facts"
	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/metrics"
	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/query"
	"github.com/ppiankov/gbdrill/internal/worker"
)

// A(1) -> {B(2) -> {D(4), E(5)}, C(3)}
func newTestService(t *testing.T) *query.Service {
	t.Helper()

	tree, err := hierarchy.Build([]model.CauseDef{
		{ID: 1, Name: "A", Subcauses: []model.CauseDef{
			{ID: 2, Name: "B", Subcauses: []model.CauseDef{
				{ID: 4, Name: "D"},
				{ID: 5, Name: "E"},
			}},
			{ID: 3, Name: "C"},
		}},
	})
	require.NoError(t, err)

	table := facts.NewTable([]model.FactRow{
		{LocationID: 10, Year: 2019, SexID: 1, CauseID: 4, Value: 10},
		{LocationID: 10, Year: 2019, SexID: 2, CauseID: 5, Value: 5},
		{LocationID: 10, Year: 2019, SexID: 1, CauseID: 3, Value: 3},
		{LocationID: 20, Year: 2020, SexID: 2, CauseID: 4, Value: 8},
	})

	return query.New(tree, table, query.WithLocations(map[int]string{10: "Laos"}))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestDiseaseChildren(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/disease_children?parent_id=1&year=2019&location_id=10&diseases=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	children := decode[[]model.Child](t, rec)
	assert.Equal(t, []model.Child{
		{ID: 2, Name: "B", HasChildren: true, Value: 15},
		{ID: 3, Name: "C", Value: 3},
	}, children)
}

func TestDiseaseChildren_UnknownParentIsEmptyList(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/disease_children?parent_id=99&year=2019&location_id=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDiseaseDetails(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/disease_details?disease_id=2&year=2019&location_id=10&sexes=1,2")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode[model.Detail](t, rec)
	assert.Equal(t, "B", detail.Name)
	assert.Equal(t, 15.0, detail.Total)
	assert.Equal(t, map[int]float64{1: 10, 2: 5}, detail.ValueBySex)
	assert.Equal(t, "Laos", detail.Location)
}

func TestDiseaseDetails_UncoveredCause(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/disease_details?disease_id=3&year=2019&location_id=10&diseases=4")
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode[model.Detail](t, rec)
	assert.Zero(t, detail.Total)
	assert.Equal(t, map[int]float64{1: 0, 2: 0}, detail.ValueBySex)
}

func TestDiseaseDetails_NotFound(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/disease_details?disease_id=99&year=2019&location_id=10")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[errorResponse](t, rec)
	assert.Equal(t, "not_found", body.Error)
	assert.NotEmpty(t, body.Description)
}

func TestInvalidParameters(t *testing.T) {
	h := New(newTestService(t)).Router()

	targets := []string{
		"/api/disease_children?year=2019&location_id=10",
		"/api/disease_children?parent_id=1&year=latest&location_id=10",
		"/api/disease_details?disease_id=2&year=2019",
		"/api/disease_details?disease_id=0&year=2019&location_id=10",
		"/api/hierarchical-disease-data?year=0&location=0",
		"/api/disease_children?parent_id=1&year=2019&location_id=-10",
		"/api/hierarchical-disease-data?year=2019&location=10&sexes=m",
		"/api/country-history",
		"/api/all-countries-rates?year=",
		"/api/all-years-data?diseases=a,b",
		"/api/disease-rates-by-level1?location=x",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", decode[errorResponse](t, rec).Error)
		})
	}
}

func TestHierarchicalData(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/hierarchical-disease-data?year=2019&location=10&diseases=4")
	require.Equal(t, http.StatusOK, rec.Code)

	records := decode[[]model.DisplayRecord](t, rec)
	require.Len(t, records, 4)
	assert.Equal(t, model.DisplayRecord{ID: "root", Name: query.RootName, Value: 10}, records[0])
	assert.Equal(t, "4", records[3].ID)
	assert.Equal(t, "2", records[3].Parent)
}

func TestSummaries(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/country-history?location=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":{"2019":18}}`, rec.Body.String())

	rec = get(t, h, "/api/all-countries-rates?year=2020&sexes=2")
	require.Equal(t, http.StatusOK, rec.Code)
	rates := decode[model.CountryRates](t, rec)
	assert.Equal(t, 8.0, rates.Locations[20].Total)

	rec = get(t, h, "/api/all-years-data")
	require.Equal(t, http.StatusOK, rec.Code)
	years := decode[model.YearsData](t, rec)
	assert.Len(t, years.Years, 2)

	rec = get(t, h, "/api/disease-rates-by-level1?location=10&sexes=1")
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[[]model.Level1Series](t, rec)
	require.Len(t, series, 1)
	assert.Equal(t, 13.0, series[0].Data[2019].Total)
}

func TestListings(t *testing.T) {
	h := New(newTestService(t)).Router()

	rec := get(t, h, "/api/years")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[2019,2020]`, rec.Body.String())

	rec = get(t, h, "/api/locations")
	assert.JSONEq(t, `{"10":"Laos"}`, rec.Body.String())

	rec = get(t, h, "/api/diseases")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `{"causes":[`))

	rec = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponseCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := New(newTestService(t),
		WithCache(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute),
		WithMetrics(m, reg),
	).Router()

	target := "/api/disease_children?parent_id=1&year=2019&location_id=10"
	first := get(t, h, target)
	second := get(t, h, target)

	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
}

func TestResponseCache_ErrorsNotCached(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	h := New(newTestService(t), WithCache(c, time.Minute)).Router()

	rec := get(t, h, "/api/disease_details?disease_id=99&year=2019&location_id=10")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, c.Len())
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := New(newTestService(t),
		WithLimiter(worker.NewLimiter(0.001, 1, time.Minute)),
		WithMetrics(m, reg),
	).Router()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[errorResponse](t, rec).Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := New(newTestService(t), WithMetrics(m, reg)).Router()

	get(t, h, "/api/years")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gbdrill_http_requests_total")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/years", "200")))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4312"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientKey(req))
}
