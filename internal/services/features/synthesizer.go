package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"TrendCast/internal/domain/models"
	"TrendCast/pkg/util"
)

// Synthesizer turns observation histories into fixed-width feature vectors.
type Synthesizer struct {
	schema     Schema
	minRecords int
}

type Option func(*Synthesizer)

// WithMinRecords sets the history length below which Historical fails.
func WithMinRecords(n int) Option {
	return func(s *Synthesizer) {
		if n >= 0 {
			s.minRecords = n
		}
	}
}

func NewSynthesizer(kind models.EntityKind, opts ...Option) *Synthesizer {
	s := &Synthesizer{schema: SchemaFor(kind)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) Schema() Schema { return s.schema }

func (s *Synthesizer) MinRecords() int { return s.minRecords }

// Historical builds one vector and one target per observation, ordered by date.
func (s *Synthesizer) Historical(records []models.ObservationRecord) (*Set, []float64, error) {
	sorted, err := s.Validate(records)
	if err != nil {
		return nil, nil, err
	}
	if len(sorted) < s.minRecords || len(sorted) == 0 {
		id := ""
		if len(sorted) > 0 {
			id = sorted[0].EntityID
		}
		return nil, nil, &models.InsufficientHistoryError{EntityID: id, Have: len(sorted), Need: max(s.minRecords, 1)}
	}

	set := &Set{
		Schema: s.schema,
		Dates:  make([]time.Time, len(sorted)),
		X:      make([][]float64, len(sorted)),
	}
	y := make([]float64, len(sorted))
	for i, r := range sorted {
		y[i] = r.Target
	}
	// Search ratio is taken against mean demand, never the row's own target.
	level := math.Max(1, stat.Mean(y, nil))
	for i, r := range sorted {
		set.Dates[i] = r.Date
		set.X[i] = s.vector(r, level)
	}
	return set, y, nil
}

// Future builds vectors for the daysAhead calendar days after the last observation.
// Covariate columns take their historical mean.
func (s *Synthesizer) Future(records []models.ObservationRecord, daysAhead int) (*Set, error) {
	if daysAhead <= 0 {
		return nil, fmt.Errorf("future features: days ahead must be positive, got %d", daysAhead)
	}
	hist, _, err := s.Historical(records)
	if err != nil {
		return nil, err
	}
	return s.FutureFrom(hist, daysAhead), nil
}

// FutureFrom is Future for an already synthesized history.
func (s *Synthesizer) FutureFrom(hist *Set, daysAhead int) *Set {
	width := s.schema.Width()
	means := make([]float64, width)
	col := make([]float64, hist.Len())
	for j := calendarWidth; j < width; j++ {
		for i, row := range hist.X {
			col[i] = row[j]
		}
		means[j] = stat.Mean(col, nil)
	}

	last := hist.Dates[hist.Len()-1]
	out := &Set{
		Schema: s.schema,
		Dates:  make([]time.Time, daysAhead),
		X:      make([][]float64, daysAhead),
	}
	for i := 0; i < daysAhead; i++ {
		d := util.AddDays(last, i+1)
		row := make([]float64, width)
		copy(row, calendarRow(d))
		copy(row[calendarWidth:], means[calendarWidth:])
		out.Dates[i] = d
		out.X[i] = row
	}
	return out
}

// Validate checks every record and returns a date-sorted copy.
func (s *Synthesizer) Validate(records []models.ObservationRecord) ([]models.ObservationRecord, error) {
	out := make([]models.ObservationRecord, len(records))
	for i, r := range records {
		if err := s.check(r); err != nil {
			return nil, err
		}
		r.Date = util.TruncateDay(r.Date)
		out[i] = r
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if out[i].EntityID != out[0].EntityID {
			return nil, &models.MalformedRecordError{EntityID: out[i].EntityID, Date: out[i].Date,
				Reason: fmt.Sprintf("mixed entities %s and %s", out[0].EntityID, out[i].EntityID)}
		}
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, &models.MalformedRecordError{EntityID: out[i].EntityID, Date: out[i].Date, Reason: "duplicate date"}
		}
	}
	return out, nil
}

func (s *Synthesizer) check(r models.ObservationRecord) error {
	return CheckRecord(s.schema, r)
}

// CheckRecord reports the first reason r cannot be synthesized under schema.
func CheckRecord(schema Schema, r models.ObservationRecord) error {
	if r.EntityID == "" {
		return &models.MalformedRecordError{Date: r.Date, Reason: "empty entity id"}
	}
	if r.Date.IsZero() {
		return &models.MalformedRecordError{EntityID: r.EntityID, Reason: "missing date"}
	}
	if math.IsNaN(r.Target) || math.IsInf(r.Target, 0) || r.Target < 0 {
		return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: fmt.Sprintf("invalid target %v", r.Target)}
	}
	for _, name := range schema.Required {
		v, ok := r.Covariate(name)
		if !ok {
			return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: "missing " + name}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: "non-finite " + name}
		}
	}
	if v, ok := r.Covariate(Sentiment); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: "non-finite " + Sentiment}
	}
	if schema.Kind == models.KindProduct {
		if cp := r.Covariates[CompetitorPrice]; cp == 0 {
			return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: "zero competitor_price"}
		}
	}
	return nil
}

func (s *Synthesizer) vector(r models.ObservationRecord, level float64) []float64 {
	row := make([]float64, 0, s.schema.Width())
	row = append(row, calendarRow(r.Date)...)
	c := r.Covariates
	if s.schema.Kind == models.KindCategory {
		return append(row, c[Price], c[Sentiment], c[SearchVolume], c[MarketingSpend])
	}
	return append(row,
		c[Price],
		c[Sentiment],
		c[SearchVolume],
		c[CompetitorPrice],
		c[MarketingSpend],
		c[Price]/c[CompetitorPrice],
		c[SearchVolume]/level,
	)
}

func calendarRow(d time.Time) []float64 {
	return []float64{
		float64(util.WeekdayIndex(d)),
		float64(d.Month()),
		float64(d.YearDay()),
		boolFloat(util.IsWeekend(d)),
		boolFloat(util.IsHolidayWindow(d)),
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
