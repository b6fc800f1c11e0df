package trend

import (
	"math"
	"reflect"
	"testing"

	"TrendCast/internal/domain/models"
)

func constant(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestConstantSeriesIsStable(t *testing.T) {
	s := NewSummarizer()
	sum := s.Summarize(HistoryStats{RecentMean: 100, Records: 365}, constant(30, 100))
	if sum.GrowthRate != 0 {
		t.Fatalf("growth %v", sum.GrowthRate)
	}
	if sum.Direction != models.DirectionStable || sum.TrendStrength != models.StrengthWeak {
		t.Fatalf("direction %s strength %s", sum.Direction, sum.TrendStrength)
	}
	if sum.Slope != 0 || sum.Seasonal.Strength != models.StrengthLow {
		t.Fatalf("slope %v seasonal %+v", sum.Slope, sum.Seasonal)
	}
	if len(sum.RiskFlags) != 0 || sum.RiskLevel != models.RiskNone {
		t.Fatalf("flags %v level %s", sum.RiskFlags, sum.RiskLevel)
	}
	if sum.Inventory.SafetyStock != 20 || sum.Inventory.RecommendedStock != 720 {
		t.Fatalf("inventory %+v", sum.Inventory)
	}
}

func TestGrowthGuard(t *testing.T) {
	if g := GrowthRate(0, 50); g != 0 {
		t.Fatalf("zero mean growth %v", g)
	}
	if g := GrowthRate(-3, 50); g != 0 {
		t.Fatalf("negative mean growth %v", g)
	}
	if g := GrowthRate(100, 110); math.Abs(g-10) > 1e-12 {
		t.Fatalf("growth %v", g)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		growth, vol float64
		want        models.Direction
	}{
		{5.1, 0, models.DirectionRising},
		{5, 0.9, models.DirectionVolatile},
		{-5.1, 0.9, models.DirectionFalling},
		{0, 0.31, models.DirectionVolatile},
		{0, 0.3, models.DirectionStable},
	}
	for _, c := range cases {
		if got := Classify(c.growth, c.vol); got != c.want {
			t.Errorf("Classify(%v,%v)=%s want %s", c.growth, c.vol, got, c.want)
		}
	}
}

func TestRisingSummary(t *testing.T) {
	f := make([]int, 30)
	for i := range f {
		f[i] = 120 + i
	}
	sum := NewSummarizer().Summarize(HistoryStats{RecentMean: 100, Records: 400}, f)
	if sum.Direction != models.DirectionRising || sum.GrowthRate <= 0 {
		t.Fatalf("summary %+v", sum)
	}
	if sum.TrendStrength != models.StrengthStrong {
		t.Fatalf("strength %s", sum.TrendStrength)
	}
	if math.Abs(sum.Slope-1) > 1e-9 {
		t.Fatalf("slope %v", sum.Slope)
	}
	if sum.Seasonal.PeakDay != 30 || sum.Seasonal.ValleyDay != 1 {
		t.Fatalf("seasonal %+v", sum.Seasonal)
	}
	if sum.Recommendations[0] != "Increase inventory to meet the expected demand" {
		t.Fatalf("recommendations %v", sum.Recommendations)
	}
}

func TestOscillatingSeriesHasHighSeasonality(t *testing.T) {
	f := make([]int, 28)
	for i := range f {
		if i%7 < 3 {
			f[i] = 1000
		}
	}
	sum := NewSummarizer().Summarize(HistoryStats{RecentMean: 430, Records: 365}, f)
	if sum.Direction != models.DirectionVolatile && sum.Direction != models.DirectionStable {
		t.Fatalf("direction %s", sum.Direction)
	}
	if sum.Seasonal.Strength != models.StrengthHigh {
		t.Fatalf("strength %s", sum.Seasonal.Strength)
	}
	want := []float64{1000, 1000, 1000, 0, 0, 0, 0}
	if !reflect.DeepEqual(sum.Seasonal.WeeklyPattern, want) {
		t.Fatalf("weekly %v", sum.Seasonal.WeeklyPattern)
	}
	wantFlags := []string{models.RiskHighVariability, models.RiskExtremeSeasonality}
	if !reflect.DeepEqual(sum.RiskFlags, wantFlags) || sum.RiskLevel != models.RiskMedium {
		t.Fatalf("flags %v level %s", sum.RiskFlags, sum.RiskLevel)
	}
}

func TestRiskFlagsIndependent(t *testing.T) {
	// falling, spiky, short history
	f := []int{10, 10, 10, 90, 10, 10}
	sum := NewSummarizer().Summarize(HistoryStats{RecentMean: 100, Records: 20}, f)
	want := []string{
		models.RiskHighVariability,
		models.RiskDecliningTrend,
		models.RiskExtremeSeasonality,
		models.RiskInsufficientHistory,
	}
	if !reflect.DeepEqual(sum.RiskFlags, want) {
		t.Fatalf("flags %v", sum.RiskFlags)
	}
	if sum.RiskLevel != models.RiskHigh || sum.Direction != models.DirectionFalling {
		t.Fatalf("level %s direction %s", sum.RiskLevel, sum.Direction)
	}
	if !reflect.DeepEqual(sum.Inventory.PeakDays, []int{4}) {
		t.Fatalf("peaks %v", sum.Inventory.PeakDays)
	}
}

func TestFlagRecomputesLevel(t *testing.T) {
	s := NewSummarizer()
	sum := s.Summarize(HistoryStats{RecentMean: 100, Records: 365}, constant(10, 100))
	sum = s.Flag(sum, models.RiskHighUncertainty)
	sum = s.Flag(sum, models.RiskHighUncertainty)
	if len(sum.RiskFlags) != 1 || sum.RiskLevel != models.RiskLow {
		t.Fatalf("flags %v level %s", sum.RiskFlags, sum.RiskLevel)
	}
}

func TestNewHistoryStats(t *testing.T) {
	targets := make([]float64, 40)
	for i := range targets {
		targets[i] = float64(i)
	}
	h := NewHistoryStats(targets)
	if h.Records != 40 || h.RecentMean != 24.5 {
		t.Fatalf("stats %+v", h)
	}
}

func TestMonthly(t *testing.T) {
	f := append(constant(30, 10), constant(15, 20)...)
	f[40] = 50
	got := Monthly(f)
	if len(got) != 2 {
		t.Fatalf("months %v", got)
	}
	if got[0].Total != 300 || got[0].AverageDaily != 10 || got[0].PeakDay != 1 {
		t.Fatalf("first month %+v", got[0])
	}
	if got[1].Total != 330 || got[1].PeakDay != 11 {
		t.Fatalf("second month %+v", got[1])
	}
}

func TestOutlookExpanding(t *testing.T) {
	hist := make([]float64, 365)
	for i := range hist {
		hist[i] = 100
	}
	h := NewMarketHistory(hist, []float64{0.6, 0.7})
	o := NewSummarizer().Outlook(h, constant(60, 150))
	if o.Trend != MarketExpanding || math.Abs(o.GrowthRate-50) > 1e-9 {
		t.Fatalf("outlook %+v", o)
	}
	if !reflect.DeepEqual(o.Opportunities, []string{OpportunityExpansion, OpportunityPremium}) {
		t.Fatalf("opportunities %v", o.Opportunities)
	}
	if len(o.Risks) != 0 || o.Confidence != 0.95 {
		t.Fatalf("risks %v confidence %v", o.Risks, o.Confidence)
	}
	if o.Recommendations[0] != "Increase marketing investment" {
		t.Fatalf("recommendations %v", o.Recommendations)
	}
}

func TestOutlookContracting(t *testing.T) {
	hist := make([]float64, 120)
	for i := range hist {
		hist[i] = 100
	}
	o := NewSummarizer().Outlook(NewMarketHistory(hist, []float64{-0.5}), constant(30, 50))
	if o.Trend != MarketContracting {
		t.Fatalf("trend %s", o.Trend)
	}
	if !reflect.DeepEqual(o.Risks, []string{RiskMarketDecline, RiskNegativeSentiment}) {
		t.Fatalf("risks %v", o.Risks)
	}
	if o.PeakMonth != 1 || o.LowestMonth != 1 {
		t.Fatalf("months %d %d", o.PeakMonth, o.LowestMonth)
	}
}

type fixedPolicy struct{}

func (fixedPolicy) Recommend(models.TrendSummary) []string { return []string{"x"} }
func (fixedPolicy) Market(models.MarketOutlook) []string { return []string{"y"} }

func TestPolicyReplaceable(t *testing.T) {
	s := NewSummarizer(WithPolicy(fixedPolicy{}))
	if got := s.Summarize(HistoryStats{RecentMean: 1, Records: 1}, []int{1}).Recommendations; !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("recommendations %v", got)
	}
}
