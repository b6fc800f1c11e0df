package usecase

import (
	"context"
	"time"

	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	applogger "TrendCast/pkg/logger"
)

// ForecastScheduler periodically runs the full trend batch and fans the
// records out to the publisher and live subscribers.
type ForecastScheduler struct {
	pipeline    *ForecastPipeline
	publisher   domrepo.ForecastPublisher
	broadcaster domsvc.ForecastBroadcaster
	interval    time.Duration
	timeout     time.Duration
	l           *applogger.Logger
}

func NewForecastScheduler(p *ForecastPipeline, pub domrepo.ForecastPublisher, b domsvc.ForecastBroadcaster, interval, timeout time.Duration, l *applogger.Logger) *ForecastScheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &ForecastScheduler{pipeline: p, publisher: pub, broadcaster: b, interval: interval, timeout: timeout, l: l}
}

// Run executes one batch immediately and then on every tick until ctx ends.
// A non-positive interval disables the schedule.
func (s *ForecastScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.l.Error("scheduled forecast failed", applogger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// deliverTimeout bounds publishing a batch that was cut short by its context.
const deliverTimeout = 10 * time.Second

// RunOnce forecasts every entity once. Publish failures are logged; the batch still counts.
// When the batch is cut short, the records that finished are still delivered and the
// context error is returned.
func (s *ForecastScheduler) RunOnce(ctx context.Context) error {
	parent := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	report, err := s.pipeline.PredictTrends(ctx, "", 0)
	if report == nil {
		return err
	}
	pubCtx := ctx
	if err != nil {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(context.WithoutCancel(parent), deliverTimeout)
		defer cancel()
		s.l.Warn("scheduled forecast cut short",
			applogger.Int("records", len(report.Records)),
			applogger.Int("failed", len(report.Errors)),
			applogger.Error(err),
		)
	}
	if s.publisher != nil && len(report.Records) > 0 {
		if perr := s.publisher.PublishBatch(pubCtx, report.Records); perr != nil {
			s.l.Error("forecast publish failed", applogger.Int("records", len(report.Records)), applogger.Error(perr))
		}
	}
	if s.broadcaster != nil {
		for _, rec := range report.Records {
			s.broadcaster.Broadcast(rec)
		}
	}
	s.l.Info("scheduled forecast done",
		applogger.Int("records", len(report.Records)),
		applogger.Int("skipped", len(report.Skipped)),
		applogger.Int("failed", len(report.Errors)),
	)
	return err
}
