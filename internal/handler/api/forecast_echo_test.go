package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/repository"
	"TrendCast/internal/service/ratelimit"
	"TrendCast/internal/services/regression"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/cache"
	xlogger "TrendCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

var start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func series(id string, days int) []models.ObservationRecord {
	out := make([]models.ObservationRecord, days)
	for d := range out {
		out[d] = models.ObservationRecord{
			EntityID: id,
			Category: "electronics",
			Date:     start.AddDate(0, 0, d),
			Target:   100 + float64(d),
			Covariates: map[string]float64{
				models.CovariatePrice:           200,
				models.CovariateSearchVolume:    3000,
				models.CovariateMarketingSpend:  400,
				models.CovariateCompetitorPrice: 210,
			},
		}
	}
	return out
}

func newServer(t *testing.T, opts ...HandlerOption) *echo.Echo {
	t.Helper()
	flat := series("flat_000", 120)
	for i := range flat {
		flat[i].Category = "sports"
		flat[i].Target = 50
	}
	recs := append(series("prod_000", 120), series("prod_001", 10)...)
	recs = append(recs, flat...)
	store, err := repository.NewMemoryStore(recs)
	if err != nil {
		t.Fatal(err)
	}
	params := regression.DefaultParams()
	params.Trees = 4
	params.Stages = 10
	p := usecase.NewForecastPipeline(store, usecase.PipelineConfig{
		HorizonDays:      30,
		MinDemandHistory: 30,
		MinTrendHistory:  60,
		BatchWorkers:     2,
		Params:           params,
		BootstrapRounds:  4,
		BootstrapTrees:   2,
		BootstrapWorkers: 2,
	}, usecase.WithClock(func() time.Time { return start }))

	e := echo.New()
	NewForecastEchoHandler(xlogger.Nop(), p, opts...).RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func TestDemandServesAndCaches(t *testing.T) {
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	e := newServer(t, WithCache(store, time.Minute))

	rec := get(e, "/api/forecast/demand?entity_id=prod_000&days=14")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first request should miss")
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	var fr models.ForecastRecord
	if err := json.Unmarshal(env.Data, &fr); err != nil {
		t.Fatal(err)
	}
	if fr.EntityID != "prod_000" || len(fr.Forecast) != 14 {
		t.Fatalf("record %s with %d days", fr.EntityID, len(fr.Forecast))
	}

	again := get(e, "/api/forecast/demand?entity_id=prod_000&days=14")
	if again.Header().Get("X-Cache") != "HIT" || again.Body.String() != rec.Body.String() {
		t.Fatalf("second request not served from cache")
	}
}

func TestDegradedForecastNotCached(t *testing.T) {
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	e := newServer(t, WithCache(store, time.Minute))

	for i := 0; i < 2; i++ {
		rec := get(e, "/api/forecast/demand?entity_id=flat_000&days=7")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Cache") != "MISS" {
			t.Fatalf("request %d served a cached fallback interval", i)
		}
		var env envelope
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
		var fr models.ForecastRecord
		if err := json.Unmarshal(env.Data, &fr); err != nil {
			t.Fatal(err)
		}
		if !fr.ConfidenceInterval.Degraded {
			t.Fatalf("flat series should use the fallback interval")
		}
	}
	if store.Len() != 0 {
		t.Fatalf("cache holds %d entries", store.Len())
	}
}

func TestDemandErrors(t *testing.T) {
	e := newServer(t)
	cases := []struct {
		url  string
		code int
	}{
		{"/api/forecast/demand", http.StatusBadRequest},
		{"/api/forecast/demand?entity_id=prod_000&days=0", http.StatusOK},
		{"/api/forecast/demand?entity_id=prod_000&days=500", http.StatusBadRequest},
		{"/api/forecast/demand?entity_id=nope", http.StatusNotFound},
		{"/api/forecast/demand?entity_id=prod_001", http.StatusUnprocessableEntity},
		{"/api/forecast/market", http.StatusBadRequest},
		{"/api/forecast/market?category=toys", http.StatusNotFound},
	}
	for _, c := range cases {
		if rec := get(e, c.url); rec.Code != c.code {
			t.Fatalf("%s: status %d want %d (%s)", c.url, rec.Code, c.code, rec.Body.String())
		}
	}
}

func TestTrendsLimit(t *testing.T) {
	e := newServer(t)
	rec := get(e, "/api/forecast/trends?category=electronics&days=7&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var report models.TrendReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Records) != 1 || len(report.Skipped) != 1 || report.Skipped[0] != "prod_001" {
		t.Fatalf("report records=%d skipped=%v", len(report.Records), report.Skipped)
	}
}

func TestCurrentTrendsAndSalesMetrics(t *testing.T) {
	e := newServer(t)
	rec := get(e, "/api/trends/current?category=electronics&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("current status %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var report models.CurrentTrendsReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Trends) != 2 || report.Summary.Total != 2 {
		t.Fatalf("current trends %+v", report)
	}

	cases := []struct {
		url  string
		code int
	}{
		{"/api/trends/metrics", http.StatusOK},
		{"/api/trends/metrics?category=electronics&start_date=2023-02-01&end_date=2023-02-28", http.StatusOK},
		{"/api/trends/metrics?start_date=2023-02-01&end_date=2023-01-01", http.StatusBadRequest},
		{"/api/trends/metrics?start_date=yesterday", http.StatusBadRequest},
		{"/api/trends/metrics?start_date=2030-01-01", http.StatusNotFound},
		{"/api/trends/current?limit=0", http.StatusOK},
		{"/api/trends/current?limit=500", http.StatusBadRequest},
	}
	for _, c := range cases {
		if rec := get(e, c.url); rec.Code != c.code {
			t.Fatalf("%s: status %d want %d (%s)", c.url, rec.Code, c.code, rec.Body.String())
		}
	}
}

func TestRateLimited(t *testing.T) {
	e := newServer(t, WithRateLimit(ratelimit.New(1, 0)))
	if rec := get(e, "/api/forecast/demand"); rec.Code != http.StatusBadRequest {
		t.Fatalf("first status %d", rec.Code)
	}
	if rec := get(e, "/api/forecast/demand"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status %d", rec.Code)
	}
	if rec := get(e, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health must not be limited: %d", rec.Code)
	}
}

func TestHealthReportsComponents(t *testing.T) {
	e := newServer(t,
		WithHealthCheck("store", func(context.Context) error { return nil }),
		WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
	)
	rec := get(e, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	var env struct {
		Data struct {
			Status     string            `json:"status"`
			Components map[string]string `json:"components"`
		} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Data.Status != "degraded" || env.Data.Components["store"] != "ok" {
		t.Fatalf("health %+v", env.Data)
	}
}
