package metrics

import (
	"testing"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ domrepo.Metrics = (*Recorder)(nil)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())
	r.RecordForecast(models.KindProduct, "linear")
	r.RecordForecast(models.KindProduct, "linear")
	r.RecordForecast(models.KindCategory, "random_forest")
	r.RecordError("training")

	if got := testutil.ToFloat64(r.forecasts.WithLabelValues("product", "linear")); got != 2 {
		t.Fatalf("product/linear = %v", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("training")); got != 1 {
		t.Fatalf("errors = %v", got)
	}
}

func TestRecorderHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)
	r.RecordConfidence(models.KindProduct, 0.7)
	r.RecordLatency("predict_demand", 0.3)

	if n := testutil.CollectAndCount(r.confidence); n != 1 {
		t.Fatalf("confidence series = %d", n)
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("latency series = %d", n)
	}
}
