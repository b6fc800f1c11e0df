package forecast

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/services/features"
	"TrendCast/internal/services/regression"
	"TrendCast/pkg/util"
)

var origin = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// series builds product history where target = f(day) and covariates are noisy but uninformative.
func series(id string, days int, f func(d int) float64) []models.ObservationRecord {
	rnd := rand.New(rand.NewPCG(1, 2))
	out := make([]models.ObservationRecord, days)
	for d := 0; d < days; d++ {
		price := 100 + rnd.Float64()*10
		out[d] = models.ObservationRecord{
			EntityID: id,
			Category: "electronics",
			Date:     util.AddDays(origin, d),
			Target:   math.Max(0, f(d)),
			Covariates: map[string]float64{
				features.Price:           price,
				features.CompetitorPrice: price * (0.9 + rnd.Float64()*0.2),
				features.SearchVolume:    1000 + rnd.Float64()*100,
				features.MarketingSpend:  300 + rnd.Float64()*50,
				features.Sentiment:       rnd.Float64() - 0.5,
			},
		}
	}
	return out
}

func smallParams() regression.Params {
	p := regression.DefaultParams()
	p.Trees = 8
	p.Stages = 25
	return p
}

func synth(t *testing.T, recs []models.ObservationRecord, horizon int) (*features.Set, []float64, *features.Set) {
	t.Helper()
	s := features.NewSynthesizer(models.KindProduct)
	hist, y, err := s.Historical(recs)
	if err != nil {
		t.Fatalf("historical: %v", err)
	}
	return hist, y, s.FutureFrom(hist, horizon)
}
