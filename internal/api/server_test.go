package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/loader"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

var testRegions = []region.Region{
	{Name: "Fairview", Centroid: region.Point{Lat: 49.2640, Lng: -123.1300}},
	{Name: "Kitsilano", Centroid: region.Point{Lat: 49.2680, Lng: -123.1650}},
	{Name: "Stanley Park", Centroid: region.Point{Lat: 49.3010, Lng: -123.1420}},
}

func incidents(name, typ string, n, hour int) []crime.IncidentRecord {
	out := make([]crime.IncidentRecord, n)
	for i := range out {
		out[i] = crime.IncidentRecord{Region: name, Type: typ, Hour: crime.HourOf(hour)}
	}
	return out
}

type fixture struct {
	server *Server
	store  *crime.Store
	srv    *httptest.Server
}

func newFixture(t *testing.T, reloader Reloader, analyst Analyzer, opts Options) *fixture {
	t.Helper()
	idx, err := region.NewIndex(testRegions)
	require.NoError(t, err)

	store := crime.NewStore()
	var recs []crime.IncidentRecord
	recs = append(recs, incidents("Fairview", "Mischief", 150, 22)...)
	recs = append(recs, incidents("Kitsilano", "Theft of Bicycle", 10, 14)...)
	store.Rebuild(recs, "2023")
	store.Rebuild(incidents("Fairview", "Mischief", 5, 3), "2022")

	s := NewServer(context.Background(), idx, store, route.NewScorer(idx, store), reloader, analyst, opts)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{server: s, store: store, srv: srv}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	return f.do(t, http.MethodGet, path)
}

func (f *fixture) do(t *testing.T, method, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, body := f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[map[string]any](t, body)
	assert.Equal(t, "ok", got["status"])
	assert.EqualValues(t, 2, got["periods"])
	assert.EqualValues(t, 3, got["regions"])
}

func TestPeriods(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, body := f.get(t, "/api/v1/periods")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[map[string][]string](t, body)
	assert.Equal(t, []string{"2022", "2023"}, got["periods"])
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	resp, body := f.get(t, "/api/v1/stats/2023")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[crime.Snapshot](t, body)
	assert.Equal(t, "2023", snap.Period)
	assert.Equal(t, 160, snap.Accepted)
	require.Contains(t, snap.Regions, "Fairview")
	assert.Equal(t, 150, snap.Regions["Fairview"].Counts.All)

	resp, _ = f.get(t, "/api/v1/stats/1999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// seedIncidents installs period 2021 with dated, located incidents.
func seedIncidents(f *fixture) {
	day := func(m time.Month, d int) time.Time { return time.Date(2021, m, d, 0, 0, 0, 0, time.UTC) }
	f.store.Rebuild([]crime.IncidentRecord{
		{Region: "Kitsilano", Type: "Theft of Bicycle", Hour: crime.HourOf(14), Date: day(1, 4),
			Block: "29XX W 4TH AVE", Location: &crime.Location{Lat: 49.268, Lng: -123.165}},
		{Region: "Kitsilano", Type: "Mischief", Hour: crime.HourOf(22), Date: day(3, 9),
			Location: &crime.Location{Lat: 49.262, Lng: -123.170}},
		{Region: "Fairview", Type: "Theft from Vehicle", Hour: crime.HourOf(3), Date: day(6, 1),
			Location: &crime.Location{Lat: 49.264, Lng: -123.130}},
		{Region: "Fairview", Type: "Homicide", Date: day(6, 2)},
	}, "2021")
}

func TestStats_Filtered(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	seedIncidents(f)

	resp, body := f.get(t, "/api/v1/stats/2021?start=2021-03-01&end=2021-06-01&type=theft,mischief")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	snap := decode[crime.Snapshot](t, body)
	assert.Equal(t, 2, snap.Accepted)
	assert.Equal(t, 1, snap.Regions["Kitsilano"].Counts.Mischief)
	assert.Equal(t, 1, snap.Regions["Fairview"].Counts.Vehicle)

	resp, body = f.get(t, "/api/v1/stats/2021?start=june")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", decode[errorBody](t, body).Error.Code)
}

func TestIncidents(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	seedIncidents(f)

	type feed struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}

	resp, body := f.get(t, "/api/v1/incidents/2021")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	all := decode[feed](t, body)
	assert.Equal(t, "FeatureCollection", all.Type)
	require.Len(t, all.Features, 3, "the unlocated homicide is not a feature")
	assert.Equal(t, []float64{-123.165, 49.268}, all.Features[0].Geometry.Coordinates)
	assert.Equal(t, "2021-01-04", all.Features[0].Properties["date"])
	assert.Equal(t, "29XX W 4TH AVE", all.Features[0].Properties["hundred_block"])

	_, body = f.get(t, "/api/v1/incidents/2021?type=BICYCLE,vehicle")
	assert.Len(t, decode[feed](t, body).Features, 2)

	_, body = f.get(t, "/api/v1/incidents/2021?neighbourhood=kits&end=2021-01-31")
	got := decode[feed](t, body)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "Theft of Bicycle", got.Features[0].Properties["type"])

	_, body = f.get(t, "/api/v1/incidents/2023")
	assert.Empty(t, decode[feed](t, body).Features, "fixture records carry no coordinates")

	resp, _ = f.get(t, "/api/v1/incidents/2021?start=2021-06-01&end=2021-01-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.get(t, "/api/v1/incidents/1999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBounds(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	seedIncidents(f)

	resp, body := f.get(t, "/api/v1/bounds/2021")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[[]regionBounds](t, body)
	require.Len(t, got, 2)
	assert.Equal(t, "Fairview", got[0].Region)
	assert.Equal(t, crime.Extent{MinLng: -123.130, MinLat: 49.264, MaxLng: -123.130, MaxLat: 49.264}, got[0].Bounds)
	assert.Equal(t, "Kitsilano", got[1].Region)
	assert.Equal(t, crime.Extent{MinLng: -123.170, MinLat: 49.262, MaxLng: -123.165, MaxLat: 49.268}, got[1].Bounds)

	_, body = f.get(t, "/api/v1/bounds/2023")
	assert.JSONEq(t, `[]`, string(body))

	_, body = f.get(t, "/api/v1/regions?period=2021")
	regions := decode[struct {
		Features []struct {
			ID   string    `json:"id"`
			BBox []float64 `json:"bbox"`
		} `json:"features"`
	}](t, body)
	require.Len(t, regions.Features, 3)
	assert.Equal(t, []float64{-123.170, 49.262, -123.165, 49.268}, regions.Features[1].BBox)
	assert.Nil(t, regions.Features[2].BBox, "Stanley Park has no located incidents")
}

func TestRegionStats(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	t.Run("case folded lookup", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/stats/2023/FAIRVIEW")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[struct {
			Region    string                `json:"region"`
			Aggregate crime.RegionAggregate `json:"aggregate"`
		}](t, body)
		assert.Equal(t, "Fairview", got.Region)
		assert.Equal(t, 150, got.Aggregate.Counts.All)
		assert.Equal(t, "Night", got.Aggregate.PeakTimeSlot)
	})

	t.Run("escaped name", func(t *testing.T) {
		resp, _ := f.get(t, "/api/v1/stats/2023/Stanley%20Park")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("known region without incidents", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/stats/2022/Kitsilano")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[struct {
			Aggregate crime.RegionAggregate `json:"aggregate"`
		}](t, body)
		assert.Zero(t, got.Aggregate.Counts.All)
		assert.Equal(t, crime.NoPeak, got.Aggregate.PeakTimeSlot)
	})

	t.Run("unknown region", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/stats/2023/Atlantis")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		got := decode[errorBody](t, body)
		assert.Equal(t, "NOT_FOUND", got.Error.Code)
	})
}

func TestTypes(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, body := f.get(t, "/api/v1/types/2023")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Mischief", "Theft of Bicycle"}, decode[[]string](t, body))
}

func TestRegions(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	resp, body := f.get(t, "/api/v1/regions?period=2023")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	got := decode[map[string]any](t, body)
	assert.Equal(t, "FeatureCollection", got["type"])
	assert.Len(t, got["features"], 3)

	resp, _ = f.get(t, "/api/v1/regions?period=1999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	resp, body := f.get(t, "/api/v1/export/2023")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "region,all,"), string(body))
	assert.Contains(t, string(body), "Fairview,150,")

	resp, body = f.get(t, "/api/v1/export/2023?format=xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "PK"))

	resp, _ = f.get(t, "/api/v1/export/2023?format=pdf")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoute(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	t.Run("json", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=2023")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		got := decode[struct {
			Query  route.Query  `json:"query"`
			Result route.Result `json:"result"`
		}](t, body)
		assert.Equal(t, "2023", got.Query.Period)
		assert.Equal(t, crime.CategoryAll, got.Query.Category)
		assert.Equal(t, 150, got.Result.Total)
		assert.Equal(t, []string{"Fairview"}, got.Result.Regions)
		assert.NotEmpty(t, got.Result.Tier)
	})

	t.Run("defaults to latest period", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		got := decode[struct {
			Query route.Query `json:"query"`
		}](t, body)
		assert.Equal(t, "2023", got.Query.Period)
	})

	t.Run("hour window", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=2023&hours=0-5")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		got := decode[struct {
			Result route.Result `json:"result"`
		}](t, body)
		assert.Zero(t, got.Result.Total)
	})

	t.Run("geojson", func(t *testing.T) {
		resp, body := f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=2023&format=geojson")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
		got := decode[map[string]any](t, body)
		assert.Equal(t, "FeatureCollection", got["type"])
	})
}

func TestRoute_InvalidInput(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing from", "to=49.26,-123.13", ""},
		{"nan latitude", "from=NaN,-123.13&to=49.26,-123.13", "FromLat"},
		{"latitude out of range", "from=95,-123.13&to=49.26,-123.13", "FromLat"},
		{"longitude out of range", "from=49.26,-123.13&to=49.26,-190", "ToLng"},
		{"unknown category", "from=49.26,-123.13&to=49.26,-123.13&category=arson", "Category"},
		{"hour out of range", "from=49.26,-123.13&to=49.26,-123.13&hours=25-3", "HourStart"},
		{"malformed hours", "from=49.26,-123.13&to=49.26,-123.13&hours=late", ""},
		{"category with hour window", "from=49.26,-123.13&to=49.26,-123.13&category=theft&hours=22-3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.get(t, "/api/v1/route?"+tt.query+"&period=2023")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			got := decode[errorBody](t, body)
			assert.Equal(t, "INVALID_INPUT", got.Error.Code)
			if tt.field != "" {
				assert.Contains(t, got.Error.Fields, tt.field)
			}
		})
	}
}

func TestRoute_UnknownPeriodScoresZero(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, body := f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=1999")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[struct {
		Result route.Result `json:"result"`
	}](t, body)
	assert.Zero(t, got.Result.Total)
	assert.True(t, got.Result.NoData)
}

// blockingReloader holds each SyncPeriod call until release is closed.
type blockingReloader struct {
	release chan struct{}
	periods []string
	mu      sync.Mutex
	calls   int
	err     error
}

func (b *blockingReloader) Configured(period string) bool {
	return slices.Contains(b.periods, period)
}

func (b *blockingReloader) SyncPeriod(_ context.Context, store *crime.Store, period string) (loader.PeriodResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	if b.err != nil {
		return loader.PeriodResult{Period: period, Err: b.err}, b.err
	}
	snap := store.Rebuild(incidents("Kitsilano", "Mischief", 7, 1), period)
	return loader.PeriodResult{Period: period, Accepted: snap.Accepted, Regions: len(snap.Regions)}, nil
}

func pollJob(t *testing.T, f *fixture, id string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		resp, body := f.get(t, "/api/v1/jobs/"+id)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		job = decode[Job](t, body)
		return job.Status != JobRunning
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestReload(t *testing.T) {
	reloader := &blockingReloader{release: make(chan struct{}), periods: []string{"2024"}}
	f := newFixture(t, reloader, nil, Options{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/reload/2024")
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	job := decode[Job](t, body)
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, "2024", job.Period)
	require.NotEmpty(t, job.ID)

	resp, body = f.do(t, http.MethodPost, "/api/v1/reload/2024")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "RELOAD_IN_PROGRESS", decode[errorBody](t, body).Error.Code)

	close(reloader.release)
	done := pollJob(t, f, job.ID)
	assert.Equal(t, JobSucceeded, done.Status)
	assert.Equal(t, 7, done.Accepted)
	assert.Equal(t, 1, done.Regions)
	assert.NotNil(t, done.FinishedAt)

	agg, ok := f.store.Region("2024", "Kitsilano")
	require.True(t, ok)
	assert.Equal(t, 7, agg.Counts.All)

	// The period is free again once the job finishes.
	resp, body = f.do(t, http.MethodPost, "/api/v1/reload/2024")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	pollJob(t, f, decode[Job](t, body).ID)
}

func TestReload_Failure(t *testing.T) {
	reloader := &blockingReloader{release: make(chan struct{}), err: errors.New("source unreachable")}
	close(reloader.release)
	f := newFixture(t, reloader, nil, Options{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/reload/2023")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	done := pollJob(t, f, decode[Job](t, body).ID)
	assert.Equal(t, JobFailed, done.Status)
	assert.Contains(t, done.Error, "source unreachable")
}

func TestReload_UnknownPeriod(t *testing.T) {
	reloader := &blockingReloader{release: make(chan struct{}), periods: []string{"2024"}}
	close(reloader.release)
	f := newFixture(t, reloader, nil, Options{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/reload/zzz")
	require.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, body).Error.Code)

	resp, body = f.do(t, http.MethodPost, "/api/v1/reload/2023.bak")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	assert.Equal(t, "INVALID_INPUT", decode[errorBody](t, body).Error.Code)

	assert.Equal(t, []string{"2022", "2023"}, f.store.Periods())
	reloader.mu.Lock()
	assert.Zero(t, reloader.calls)
	reloader.mu.Unlock()
}

func TestReload_UnconfiguredPeriodKeepsDefaultRoute(t *testing.T) {
	l := loader.New(config.DataConfig{Sources: map[string]string{
		"2023": filepath.Join(t.TempDir(), "missing.csv"),
	}})
	f := newFixture(t, l, nil, Options{})

	resp, _ := f.do(t, http.MethodPost, "/api/v1/reload/zzz")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := f.get(t, "/api/v1/periods")
	assert.JSONEq(t, `{"periods":["2022","2023"]}`, string(body))

	resp, body = f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2680,-123.1650")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[struct {
		Query  route.Query  `json:"query"`
		Result route.Result `json:"result"`
	}](t, body)
	assert.Equal(t, "2023", got.Query.Period)
	assert.Positive(t, got.Result.Total)
}

func TestReload_EvictsFinishedJobs(t *testing.T) {
	reloader := &blockingReloader{release: make(chan struct{}), periods: []string{"2024"}}
	close(reloader.release)
	f := newFixture(t, reloader, nil, Options{})
	f.server.jobLimit = 2

	var ids []string
	for range 3 {
		resp, body := f.do(t, http.MethodPost, "/api/v1/reload/2024")
		require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
		id := decode[Job](t, body).ID
		pollJob(t, f, id)
		ids = append(ids, id)
	}

	resp, _ := f.get(t, "/api/v1/jobs/"+ids[0])
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	for _, id := range ids[1:] {
		resp, _ := f.get(t, "/api/v1/jobs/"+id)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestReload_Disabled(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, _ := f.do(t, http.MethodPost, "/api/v1/reload/2023")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestJob_Unknown(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, _ := f.get(t, "/api/v1/jobs/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, subject, prompt string) (string, error) {
	args := m.Called(ctx, subject, prompt)
	return args.String(0), args.Error(1)
}

func TestAnalyzeRegion(t *testing.T) {
	analyst := &mockAnalyzer{}
	analyst.On("Analyze", mock.Anything, "region", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Fairview") && strings.Contains(p, "2023")
	})).Return("Evenings are busiest.", nil)

	f := newFixture(t, nil, analyst, Options{})
	resp, body := f.do(t, http.MethodPost, "/api/v1/analyze/region/2023/fairview")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	got := decode[map[string]any](t, body)
	assert.Equal(t, "Fairview", got["region"])
	assert.Equal(t, "Evenings are busiest.", got["analysis"])
	analyst.AssertExpectations(t)
}

func TestAnalyzeRoute(t *testing.T) {
	analyst := &mockAnalyzer{}
	analyst.On("Analyze", mock.Anything, "route", mock.Anything).Return("", errors.New("overloaded"))

	f := newFixture(t, nil, analyst, Options{})
	resp, body := f.do(t, http.MethodPost, "/api/v1/analyze/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=2023")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode, string(body))
	assert.Equal(t, "ANALYSIS_FAILED", decode[errorBody](t, body).Error.Code)
	analyst.AssertExpectations(t)
}

func TestAnalyze_Disabled(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	resp, _ := f.do(t, http.MethodPost, "/api/v1/analyze/region/2023/Fairview")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, nil, Options{RateLimit: 2})

	for range 2 {
		resp, _ := f.get(t, "/api/v1/periods")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := f.get(t, "/api/v1/periods")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode[errorBody](t, body).Error.Code)

	// Health checks sit outside the limited group.
	resp, _ = f.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, nil, nil, Options{})
	f.get(t, "/api/v1/stats/2023")
	f.get(t, "/api/v1/route?from=49.2640,-123.1300&to=49.2645,-123.1305&period=2023")

	resp, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `saferoute_api_requests_total{method="GET",route="/api/v1/stats/{period}",status="200"} 1`)
	assert.Contains(t, text, "saferoute_route_score_count")
	assert.Contains(t, text, "go_goroutines")
}
