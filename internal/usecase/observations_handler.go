package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/internal/services/features"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/util"
)

// ObservationEvent is the wire form of one observed day.
type ObservationEvent struct {
	EntityID        string   `json:"entity_id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Date            string   `json:"date"`
	Target          float64  `json:"target"`
	Price           *float64 `json:"price"`
	SearchVolume    *float64 `json:"search_volume"`
	SentimentScore  *float64 `json:"sentiment_score,omitempty"`
	MarketingSpend  *float64 `json:"marketing_spend"`
	CompetitorPrice *float64 `json:"competitor_price"`
}

// Record converts the event and runs the per-record checks forecasting applies.
func (e ObservationEvent) Record() (models.ObservationRecord, error) {
	day, ok := util.ParseDay(e.Date)
	if !ok {
		return models.ObservationRecord{}, &models.MalformedRecordError{EntityID: e.EntityID, Reason: fmt.Sprintf("bad date %q", e.Date)}
	}
	if e.EntityID == "" || e.Category == "" {
		return models.ObservationRecord{}, &models.MalformedRecordError{EntityID: e.EntityID, Date: day, Reason: "entity_id and category are required"}
	}
	r := models.ObservationRecord{
		EntityID:   e.EntityID,
		Name:       e.Name,
		Category:   e.Category,
		Date:       day,
		Target:     e.Target,
		Covariates: make(map[string]float64, 5),
	}
	for name, v := range map[string]*float64{
		models.CovariatePrice:           e.Price,
		models.CovariateSearchVolume:    e.SearchVolume,
		models.CovariateMarketingSpend:  e.MarketingSpend,
		models.CovariateCompetitorPrice: e.CompetitorPrice,
		models.CovariateSentiment:       e.SentimentScore,
	} {
		if v != nil {
			r.Covariates[name] = *v
		}
	}
	if err := features.CheckRecord(features.SchemaFor(models.KindProduct), r); err != nil {
		return models.ObservationRecord{}, err
	}
	return r, nil
}

var errBufferFull = errors.New("observation buffer full")

// ObservationsHandler consumes observation events and writes them in batches.
// Malformed events are logged and dropped so they never block the partition.
type ObservationsHandler struct {
	topic      string
	writer     domrepo.ObservationWriter
	l          *applogger.Logger
	batchSize  int
	flushEvery time.Duration

	mu  sync.Mutex
	buf []models.ObservationRecord
}

func NewObservationsHandler(topic string, writer domrepo.ObservationWriter, batchSize int, flushEvery time.Duration, l *applogger.Logger) *ObservationsHandler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ObservationsHandler{topic: topic, writer: writer, l: l, batchSize: batchSize, flushEvery: flushEvery}
}

func (h *ObservationsHandler) Topic() string { return h.topic }

// Handle accepts a single event object or an array of events.
func (h *ObservationsHandler) Handle(ctx context.Context, data []byte) error {
	events, err := decodeEvents(data)
	if err != nil {
		h.l.Warn("observation decode failed", applogger.String("topic", h.topic), applogger.Error(err))
		return nil
	}
	recs := make([]models.ObservationRecord, 0, len(events))
	for _, e := range events {
		r, err := e.Record()
		if err != nil {
			h.l.Warn("observation dropped", applogger.String("entity_id", e.EntityID), applogger.Error(err))
			continue
		}
		recs = append(recs, r)
	}

	h.mu.Lock()
	// an empty buffer always accepts, so an oversized message is not redelivered forever
	if len(h.buf) > 0 && len(h.buf)+len(recs) > 10*h.batchSize {
		h.mu.Unlock()
		return errBufferFull
	}
	h.buf = append(h.buf, recs...)
	full := len(h.buf) >= h.batchSize
	h.mu.Unlock()

	if full {
		if err := h.Flush(ctx); err != nil {
			h.l.Error("observation flush failed", applogger.Error(err))
		}
	}
	return nil
}

// Flush writes the buffered records in chunks of the batch size; chunks that were not
// written stay buffered for the next flush.
func (h *ObservationsHandler) Flush(ctx context.Context) error {
	h.mu.Lock()
	batch := h.buf
	h.buf = nil
	h.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	for i := 0; i < len(batch); i += h.batchSize {
		end := min(i+h.batchSize, len(batch))
		if err := h.writer.InsertBatch(ctx, batch[i:end]); err != nil {
			h.mu.Lock()
			h.buf = append(append([]models.ObservationRecord(nil), batch[i:]...), h.buf...)
			h.mu.Unlock()
			return err
		}
	}
	h.l.Debug("observations flushed", applogger.Int("rows", len(batch)))
	return nil
}

// Run flushes periodically until ctx ends, then flushes once more.
func (h *ObservationsHandler) Run(ctx context.Context) {
	t := time.NewTicker(h.flushEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := h.Flush(fctx); err != nil {
				h.l.Error("final observation flush failed", applogger.Error(err))
			}
			cancel()
			return
		case <-t.C:
			if err := h.Flush(ctx); err != nil {
				h.l.Error("observation flush failed", applogger.Error(err))
			}
		}
	}
}

func (h *ObservationsHandler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buf)
}

func decodeEvents(data []byte) ([]ObservationEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var out []ObservationEvent
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode observation batch: %w", err)
		}
		return out, nil
	}
	var e ObservationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode observation: %w", err)
	}
	return []ObservationEvent{e}, nil
}
