// Package trend reduces a forecast sequence into growth, direction,
// seasonality, risk and advisory text.
package trend

import (
	"math"

	"TrendCast/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	recentWindow       = 30
	risingThreshold    = 5.0
	fallingThreshold   = -5.0
	volatileThreshold  = 0.3
	mediumSeasonality  = 0.1
	strongTrendGrowth  = 15.0
	minReliableHistory = 90
	safetyStockShare   = 0.2
	stockCoverDays     = 7
)

// HistoryStats is the part of the history the summary needs.
type HistoryStats struct {
	RecentMean float64
	Records    int
}

// NewHistoryStats takes the mean of the last 30 targets.
func NewHistoryStats(targets []float64) HistoryStats {
	h := HistoryStats{Records: len(targets)}
	if len(targets) == 0 {
		return h
	}
	h.RecentMean = stat.Mean(tail(targets, recentWindow), nil)
	return h
}

// Summarizer is stateless apart from its recommendation policy.
type Summarizer struct {
	policy Policy
}

type Option func(*Summarizer)

func WithPolicy(p Policy) Option {
	return func(s *Summarizer) {
		if p != nil {
			s.policy = p
		}
	}
}

func NewSummarizer(opts ...Option) *Summarizer {
	s := &Summarizer{policy: DefaultPolicy{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Summarizer) Policy() Policy { return s.policy }

// Summarize is a pure function of h and forecast.
func (s *Summarizer) Summarize(h HistoryStats, forecast []int) models.TrendSummary {
	values := toFloats(forecast)
	mean, std := 0.0, 0.0
	if len(values) > 0 {
		mean, std = meanStd(values)
	}

	growth := GrowthRate(h.RecentMean, mean)
	volatility := std / math.Max(1, mean)

	sum := models.TrendSummary{
		GrowthRate:    growth,
		Direction:     Classify(growth, volatility),
		TrendStrength: trendStrength(growth),
		Slope:         slope(values),
		Seasonal:      seasonal(forecast, volatility),
		Inventory:     inventory(values, mean, std),
	}

	var flags []string
	if len(values) > 0 {
		if std > 0.5*mean {
			flags = append(flags, models.RiskHighVariability)
		}
		if mean < 0.8*h.RecentMean {
			flags = append(flags, models.RiskDecliningTrend)
		}
		if float64(sum.Seasonal.PeakValue) > 3*float64(sum.Seasonal.ValleyValue) {
			flags = append(flags, models.RiskExtremeSeasonality)
		}
	}
	if h.Records < minReliableHistory {
		flags = append(flags, models.RiskInsufficientHistory)
	}
	sum.RiskFlags = flags
	if sum.RiskFlags == nil {
		sum.RiskFlags = []string{}
	}
	sum.RiskLevel = RiskLevelFor(len(flags))
	sum.Recommendations = s.policy.Recommend(sum)
	return sum
}

// Flag adds a risk flag raised outside the summary, re-deriving level and advice.
func (s *Summarizer) Flag(sum models.TrendSummary, flag string) models.TrendSummary {
	for _, f := range sum.RiskFlags {
		if f == flag {
			return sum
		}
	}
	sum.RiskFlags = append(append([]string(nil), sum.RiskFlags...), flag)
	sum.RiskLevel = RiskLevelFor(len(sum.RiskFlags))
	sum.Recommendations = s.policy.Recommend(sum)
	return sum
}

// GrowthRate is the percent change of the forecast mean over the recent mean,
// or 0 when the recent mean is not positive.
func GrowthRate(recentMean, forecastMean float64) float64 {
	if recentMean <= 0 {
		return 0
	}
	return (forecastMean - recentMean) / recentMean * 100
}

// Classify maps growth and volatility to a direction.
func Classify(growth, volatility float64) models.Direction {
	switch {
	case growth > risingThreshold:
		return models.DirectionRising
	case growth < fallingThreshold:
		return models.DirectionFalling
	case volatility > volatileThreshold:
		return models.DirectionVolatile
	default:
		return models.DirectionStable
	}
}

func SeasonalStrength(volatility float64) models.Strength {
	switch {
	case volatility > volatileThreshold:
		return models.StrengthHigh
	case volatility > mediumSeasonality:
		return models.StrengthMedium
	default:
		return models.StrengthLow
	}
}

func RiskLevelFor(flags int) models.RiskLevel {
	switch {
	case flags <= 0:
		return models.RiskNone
	case flags == 1:
		return models.RiskLow
	case flags == 2:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func trendStrength(growth float64) models.Strength {
	g := math.Abs(growth)
	switch {
	case g > strongTrendGrowth:
		return models.StrengthStrong
	case g > risingThreshold:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

// slope is the least squares slope of the forecast against its day offset.
func slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i + 1)
	}
	_, beta := stat.LinearRegression(x, values, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}

func seasonal(forecast []int, volatility float64) models.SeasonalFactors {
	f := models.SeasonalFactors{Variability: volatility, Strength: SeasonalStrength(volatility)}
	if len(forecast) == 0 {
		return f
	}
	hi, lo := 0, 0
	for i, v := range forecast {
		if v > forecast[hi] {
			hi = i
		}
		if v < forecast[lo] {
			lo = i
		}
	}
	f.PeakDay, f.PeakValue = hi+1, forecast[hi]
	f.ValleyDay, f.ValleyValue = lo+1, forecast[lo]

	period := min(7, len(forecast))
	sums := make([]float64, period)
	counts := make([]float64, period)
	for i, v := range forecast {
		sums[i%period] += float64(v)
		counts[i%period]++
	}
	f.WeeklyPattern = make([]float64, period)
	for i := range sums {
		f.WeeklyPattern[i] = sums[i] / counts[i]
	}
	return f
}

func inventory(values []float64, mean, std float64) models.InventoryAdvice {
	adv := models.InventoryAdvice{}
	if len(values) == 0 {
		return adv
	}
	peak := values[0]
	for i, v := range values {
		peak = math.Max(peak, v)
		if v > 2*mean {
			adv.PeakDays = append(adv.PeakDays, i+1)
		}
		if v < 0.5*mean {
			adv.LowDays = append(adv.LowDays, i+1)
		}
	}
	safety := safetyStockShare * peak
	adv.SafetyStock = int(safety)
	adv.RecommendedStock = int(mean*stockCoverDays + safety)
	adv.HighVariability = std > 0.3*mean
	return adv
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

func toFloats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func tail(v []float64, n int) []float64 {
	if len(v) > n {
		return v[len(v)-n:]
	}
	return v
}
