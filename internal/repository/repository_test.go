package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	pkgkafka "TrendCast/pkg/kafka"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func rec(id, cat string, d int, target float64) models.ObservationRecord {
	return models.ObservationRecord{
		EntityID: id,
		Category: cat,
		Date:     day0.AddDate(0, 0, d),
		Target:   target,
		Covariates: map[string]float64{
			models.CovariatePrice:           10,
			models.CovariateSearchVolume:    100,
			models.CovariateMarketingSpend:  5,
			models.CovariateCompetitorPrice: 11,
		},
	}
}

func TestMemoryStoreOrdersAndCopies(t *testing.T) {
	s, err := NewMemoryStore([]models.ObservationRecord{
		rec("b", "sports", 2, 3), rec("b", "sports", 0, 1), rec("a", "electronics", 0, 7), rec("b", "sports", 1, 2),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	got, err := s.Observations(ctx, "b")
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	for i, r := range got {
		if r.Target != float64(i+1) {
			t.Fatalf("not ordered: %+v", got)
		}
	}
	got[0].Covariates[models.CovariatePrice] = -1
	again, _ := s.Observations(ctx, "b")
	if again[0].Covariates[models.CovariatePrice] != 10 {
		t.Fatal("store leaked its internal map")
	}

	ids, _ := s.Entities(ctx, "")
	if strings.Join(ids, ",") != "a,b" {
		t.Fatalf("entities %v", ids)
	}
	ids, _ = s.Entities(ctx, "sports")
	if strings.Join(ids, ",") != "b" {
		t.Fatalf("sports entities %v", ids)
	}
	cats, _ := s.Categories(ctx)
	if strings.Join(cats, ",") != "electronics,sports" {
		t.Fatalf("categories %v", cats)
	}
	if _, err := s.Observations(ctx, "zzz"); !errors.Is(err, models.ErrEntityNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreRejectsDuplicatesAtomically(t *testing.T) {
	s, err := NewMemoryStore([]models.ObservationRecord{rec("a", "c", 0, 1)})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = s.InsertBatch(context.Background(), []models.ObservationRecord{rec("a", "c", 1, 2), rec("a", "c", 0, 9)})
	var me *models.MalformedRecordError
	if !errors.As(err, &me) || me.EntityID != "a" {
		t.Fatalf("expected malformed record, got %v", err)
	}
	got, _ := s.Observations(context.Background(), "a")
	if len(got) != 1 {
		t.Fatalf("partial insert applied: %d records", len(got))
	}

	err = s.InsertBatch(context.Background(), []models.ObservationRecord{rec("a", "other", 5, 1)})
	if !errors.Is(err, models.ErrMalformedRecord) {
		t.Fatalf("expected category conflict, got %v", err)
	}
}

func TestMemoryStoreCategoryObservations(t *testing.T) {
	s, _ := NewMemoryStore([]models.ObservationRecord{
		rec("b", "c", 1, 1), rec("a", "c", 1, 1), rec("a", "c", 0, 1), rec("x", "d", 0, 1),
	})
	got, err := s.CategoryObservations(context.Background(), "c")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	order := make([]string, len(got))
	for i, r := range got {
		order[i] = r.EntityID
	}
	if strings.Join(order, ",") != "a,a,b" {
		t.Fatalf("order %v", order)
	}
}

func TestSampleObservations(t *testing.T) {
	a := SampleObservations(42, 60, day0)
	b := SampleObservations(42, 60, day0)
	if len(a) != 600 {
		t.Fatalf("rows %d", len(a))
	}
	for i := range a {
		if a[i].Target != b[i].Target || a[i].Covariates[models.CovariatePrice] != b[i].Covariates[models.CovariatePrice] {
			t.Fatalf("sample not deterministic at %d", i)
		}
		if a[i].Target < 0 {
			t.Fatalf("negative target at %d", i)
		}
	}
	if a[0].EntityID != "prod_000" || a[0].Category != "electronics" || a[599].Category != "sports" {
		t.Fatalf("layout %+v %+v", a[0], a[599])
	}
	if _, err := NewMemoryStore(a); err != nil {
		t.Fatalf("sample table must load: %v", err)
	}
}

func TestInsertStatement(t *testing.T) {
	r1 := rec("a", "c", 0, 1)
	r1.Covariates[models.CovariateSentiment] = 0.4
	q, args := insertStatement("db.obs", []models.ObservationRecord{r1, {}, rec("b", "c", 0, 2)})
	if strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)") != 2 || !strings.HasPrefix(q, "INSERT INTO db.obs (") {
		t.Fatalf("query %s", q)
	}
	if len(args) != 20 {
		t.Fatalf("args %d", len(args))
	}
	if args[7] != 0.4 || args[17] != nil {
		t.Fatalf("sentiment args %v %v", args[7], args[17])
	}
	if q, _ := insertStatement("db.obs", nil); q != "" {
		t.Fatalf("empty batch query %q", q)
	}
}

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
}

func (p *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestKafkaForecastPublisher(t *testing.T) {
	fp := &fakeProducer{}
	pub := &KafkaForecastPublisher{producer: fp, topic: "forecasts"}
	err := pub.PublishBatch(context.Background(), []*models.ForecastRecord{{EntityID: "p1", Forecast: []int{1, 2}}, nil})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "forecasts" || len(fp.msgs) != 1 || string(fp.msgs[0].Key) != "p1" {
		t.Fatalf("messages %+v", fp.msgs)
	}
	b, _ := json.Marshal(fp.msgs[0].Value)
	if !strings.Contains(string(b), `"forecast":[1,2]`) {
		t.Fatalf("payload %s", b)
	}
}
