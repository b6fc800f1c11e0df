package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/config"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func records() []models.ObservationRecord {
	return []models.ObservationRecord{
		{EntityID: "p1", Date: day0, Target: 10, Covariates: map[string]float64{models.CovariatePrice: 5}},
		{EntityID: "p1", Date: day0.AddDate(0, 0, 1), Target: 11, Covariates: map[string]float64{models.CovariateSentiment: 0.1}},
		{EntityID: "p1", Date: day0.AddDate(0, 0, 2), Target: 12},
	}
}

func TestEnrichFillsOnlyMissingDays(t *testing.T) {
	var asked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sentimentPath {
			http.NotFound(w, r)
			return
		}
		var req sentimentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		asked = req.Days
		_ = json.NewEncoder(w).Encode(sentimentResponse{Scores: map[string]float64{
			"2024-03-01": 0.4,
			"2024-03-02": 0.9,
			"2024-03-03": 3,
		}})
	}))
	defer srv.Close()

	c := NewSentimentClient(config.SentimentConfig{URL: srv.URL + "/", Timeout: time.Second, Attempts: 1})
	in := records()
	out, err := c.Enrich(context.Background(), "p1", in)
	if err != nil {
		t.Fatal(err)
	}
	if len(asked) != 2 || asked[0] != "2024-03-01" || asked[1] != "2024-03-03" {
		t.Fatalf("asked for %v", asked)
	}
	if v, _ := out[0].Covariate(models.CovariateSentiment); v != 0.4 {
		t.Fatalf("day 0 sentiment %v", v)
	}
	if v, _ := out[1].Covariate(models.CovariateSentiment); v != 0.1 {
		t.Fatalf("existing score overwritten: %v", v)
	}
	if v, _ := out[2].Covariate(models.CovariateSentiment); v != 1 {
		t.Fatalf("score not clamped: %v", v)
	}
	if _, ok := in[0].Covariate(models.CovariateSentiment); ok {
		t.Fatalf("input mutated")
	}
}

func TestEnrichRetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"scores":{}}`))
	}))
	defer srv.Close()

	c := NewSentimentClient(config.SentimentConfig{URL: srv.URL, Timeout: time.Second, Attempts: 3})
	if _, err := c.Enrich(context.Background(), "p1", records()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestEnrichDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewSentimentClient(config.SentimentConfig{URL: srv.URL, Timeout: time.Second, Attempts: 3})
	if _, err := c.Enrich(context.Background(), "p1", records()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestEnrichWithoutURL(t *testing.T) {
	c := NewSentimentClient(config.SentimentConfig{})
	_, err := c.Enrich(context.Background(), "p1", records())
	if !errors.Is(err, errNotConfigured) {
		t.Fatalf("got %v", err)
	}
}

func TestEnrichSkipsCallWhenComplete(t *testing.T) {
	c := NewSentimentClient(config.SentimentConfig{})
	in := []models.ObservationRecord{{EntityID: "p1", Date: day0, Covariates: map[string]float64{models.CovariateSentiment: 0.2}}}
	out, err := c.Enrich(context.Background(), "p1", in)
	if err != nil || len(out) != 1 {
		t.Fatalf("out=%v err=%v", out, err)
	}
}
