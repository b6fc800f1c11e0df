package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/repository"
	"TrendCast/pkg/util"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]models.ObservationRecord
	err     error
}

func (w *fakeWriter) InsertBatch(_ context.Context, recs []models.ObservationRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, append([]models.ObservationRecord(nil), recs...))
	return nil
}

// event renders one observation with every required covariate; extra is spliced in verbatim.
func event(id, date string, target float64, extra string) string {
	return fmt.Sprintf(`{"entity_id":%q,"category":"c","date":%q,"target":%v,"price":10,"search_volume":50,"marketing_spend":5,"competitor_price":11%s}`,
		id, date, target, extra)
}

func TestObservationsHandlerBatches(t *testing.T) {
	w := &fakeWriter{}
	h := NewObservationsHandler("obs", w, 3, time.Hour, nil)
	ctx := context.Background()

	if err := h.Handle(ctx, []byte(event("p1", "2024-01-01", 5, `,"sentiment_score":0.3`))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	batch := "[" + strings.Join([]string{
		event("p1", "2024-01-02", 6, ""),
		event("p1", "not-a-day", 6, ""),
		event("p2", "2024-01-02", -1, ""),
	}, ",") + "]"
	if err := h.Handle(ctx, []byte(batch)); err != nil {
		t.Fatalf("handle batch: %v", err)
	}
	if len(w.batches) != 0 || h.Pending() != 2 {
		t.Fatalf("flushed early: %d batches, %d pending", len(w.batches), h.Pending())
	}
	if err := h.Handle(ctx, []byte(event("p3", "1704240000", 1, ""))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(w.batches) != 1 || len(w.batches[0]) != 3 || h.Pending() != 0 {
		t.Fatalf("expected one batch of 3, got %v", w.batches)
	}
	first := w.batches[0][0]
	if v, ok := first.Covariate(models.CovariateSentiment); !ok || v != 0.3 {
		t.Fatalf("sentiment %v %v", v, ok)
	}
	if _, ok := w.batches[0][1].Covariate(models.CovariateSentiment); ok {
		t.Fatal("missing sentiment must stay absent")
	}

	if err := h.Handle(ctx, []byte(`{not json`)); err != nil {
		t.Fatalf("undecodable payload should be dropped, got %v", err)
	}
}

func TestObservationsHandlerKeepsBufferOnFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("clickhouse down")}
	h := NewObservationsHandler("obs", w, 100, time.Hour, nil)
	_ = h.Handle(context.Background(), []byte(event("p1", "2024-01-01", 5, "")))
	if err := h.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if h.Pending() != 1 {
		t.Fatalf("pending %d", h.Pending())
	}
	w.err = nil
	if err := h.Flush(context.Background()); err != nil || h.Pending() != 0 || len(w.batches) != 1 {
		t.Fatalf("retry flush: %v pending=%d", err, h.Pending())
	}
}

func TestObservationEventRejectsIncompleteCovariates(t *testing.T) {
	w := &fakeWriter{}
	h := NewObservationsHandler("obs", w, 1, time.Hour, nil)
	payloads := []string{
		`{"entity_id":"p1","category":"c","date":"2024-01-01","target":5,"price":10,"search_volume":50,"marketing_spend":5}`,
		`{"entity_id":"p1","category":"c","date":"2024-01-01","target":5,"price":10,"search_volume":50,"marketing_spend":5,"competitor_price":0}`,
		`{"entity_id":"p1","category":"c","date":"2024-01-01","target":5,"search_volume":50,"marketing_spend":5,"competitor_price":11}`,
	}
	for _, p := range payloads {
		if err := h.Handle(context.Background(), []byte(p)); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(w.batches) != 0 || h.Pending() != 0 {
		t.Fatalf("incomplete events were kept: %v", w.batches)
	}

	var ev ObservationEvent
	_ = json.Unmarshal([]byte(payloads[1]), &ev)
	_, err := ev.Record()
	var me *models.MalformedRecordError
	if !errors.As(err, &me) || me.EntityID != "p1" {
		t.Fatalf("zero competitor price: %v", err)
	}
}

func TestObservationsHandlerAcceptsOversizedMessage(t *testing.T) {
	w := &fakeWriter{}
	h := NewObservationsHandler("obs", w, 2, time.Hour, nil)
	events := make([]string, 25)
	for i := range events {
		events[i] = event("p1", util.FormatDay(start.AddDate(0, 0, i)), 1, "")
	}
	msg := []byte("[" + strings.Join(events, ",") + "]")
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("oversized message rejected: %v", err)
	}
	if len(w.batches) != 13 || len(w.batches[0]) != 2 || len(w.batches[12]) != 1 || h.Pending() != 0 {
		t.Fatalf("chunks %d pending %d", len(w.batches), h.Pending())
	}

	// with a backlog the buffer applies backpressure
	w.err = errors.New("clickhouse down")
	_ = h.Handle(context.Background(), []byte(event("p2", "2024-01-01", 1, "")))
	_ = h.Handle(context.Background(), []byte(event("p2", "2024-01-02", 1, "")))
	if err := h.Handle(context.Background(), msg); !errors.Is(err, errBufferFull) {
		t.Fatalf("expected backpressure, got %v", err)
	}
}

func TestObservationsHandlerRunFlushesOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	h := NewObservationsHandler("obs", w, 100, time.Hour, nil)
	_ = h.Handle(context.Background(), []byte(event("p1", "2024-01-01", 5, "")))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	if len(w.batches) != 1 {
		t.Fatalf("batches %d", len(w.batches))
	}
}

type fakePublisher struct {
	recs []*models.ForecastRecord
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, r *models.ForecastRecord) error {
	return p.PublishBatch(ctx, []*models.ForecastRecord{r})
}

func (p *fakePublisher) PublishBatch(_ context.Context, recs []*models.ForecastRecord) error {
	p.recs = append(p.recs, recs...)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeBroadcaster struct{ n int }

func (b *fakeBroadcaster) Broadcast(*models.ForecastRecord) { b.n++ }

func TestSchedulerRunOnce(t *testing.T) {
	var recs []models.ObservationRecord
	recs = append(recs, product("a", "electronics", 70, func(d int) float64 { return 100 + float64(d) })...)
	recs = append(recs, product("b", "sports", 70, func(d int) float64 { return 200 - float64(d) })...)
	p := newPipeline(t, recs)

	pub := &fakePublisher{err: errors.New("broker down")}
	b := &fakeBroadcaster{}
	s := NewForecastScheduler(p, pub, b, time.Hour, time.Minute, nil)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(pub.recs) != 2 || b.n != 2 {
		t.Fatalf("published %d broadcast %d", len(pub.recs), b.n)
	}
}

// cancelOnForecast cancels the batch context once the first record is produced.
type cancelOnForecast struct {
	nopMetrics
	once   sync.Once
	cancel context.CancelFunc
}

func (m *cancelOnForecast) RecordForecast(models.EntityKind, string) { m.once.Do(m.cancel) }

func TestSchedulerDeliversPartialBatch(t *testing.T) {
	var recs []models.ObservationRecord
	for _, id := range []string{"a", "b", "c"} {
		recs = append(recs, product(id, "electronics", 70, func(d int) float64 { return 100 + float64(d) })...)
	}
	store, err := repository.NewMemoryStore(recs)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.BatchWorkers = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewForecastPipeline(store, cfg, WithMetrics(&cancelOnForecast{cancel: cancel}))

	pub := &fakePublisher{}
	b := &fakeBroadcaster{}
	s := NewForecastScheduler(p, pub, b, time.Hour, time.Minute, nil)
	if err := s.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(pub.recs) != 1 || b.n != 1 {
		t.Fatalf("published %d broadcast %d", len(pub.recs), b.n)
	}
}
