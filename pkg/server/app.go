package server

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"TrendCast/internal/handler/ws"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	pkgkafka "TrendCast/pkg/kafka"
	applogger "TrendCast/pkg/logger"
)

// Closer is a named resource released after the workers stop.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	http      *xhttp.Server
	scheduler *usecase.ForecastScheduler
	hub       *ws.Hub
	consumer  *pkgkafka.Consumer
	ingest    *usecase.ObservationsHandler
	closers   []Closer
}

// New builds the app. consumer and ingest are nil when Kafka ingestion is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	scheduler *usecase.ForecastScheduler,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	ingest *usecase.ObservationsHandler,
	closers []Closer,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		http:      httpServer,
		scheduler: scheduler,
		hub:       hub,
		consumer:  consumer,
		ingest:    ingest,
		closers:   closers,
	}
}

// Run starts every component and blocks until ctx ends or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ingestion outlives ctx so events drained by the consumer still get flushed
	ingestCtx, stopIngest := context.WithCancel(context.WithoutCancel(ctx))
	defer stopIngest()

	var wg sync.WaitGroup
	var ingestWG sync.WaitGroup

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
		ingestWG.Add(1)
		go func() {
			defer ingestWG.Done()
			a.ingest.Run(ingestCtx)
		}()
		a.l.Info("kafka ingestion started", applogger.String("topic", a.ingest.Topic()))
	}

	if err := a.http.Start(); err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.scheduler.Run(ctx)
	}()
	a.l.Info("forecast scheduler started", applogger.Duration("interval", a.cfg.Forecast.ScheduleInterval))

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown(&wg, &ingestWG, stopIngest)
}

func (a *App) shutdown(wg, ingestWG *sync.WaitGroup, stopIngest context.CancelFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.http.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	a.hub.Close()

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	stopIngest()
	ingestWG.Wait()
	wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}
	a.l.Info("shutdown complete")
	return nil
}
