package di

import (
	"context"
	"fmt"
	"time"

	domrepo "TrendCast/internal/domain/repository"
	domsvc "TrendCast/internal/domain/service"
	"TrendCast/internal/handler/api"
	"TrendCast/internal/handler/ws"
	internalrepo "TrendCast/internal/repository"
	"TrendCast/internal/service/ratelimit"
	"TrendCast/internal/services/analytics"
	"TrendCast/internal/services/regression"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/cache"
	pkgch "TrendCast/pkg/clickhouse"
	"TrendCast/pkg/config"
	xhttp "TrendCast/pkg/http"
	pkgkafka "TrendCast/pkg/kafka"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/metrics"
	"TrendCast/pkg/server"
	"TrendCast/pkg/util"
)

// ObservationRepository is both the read view and the ingestion sink.
type ObservationRepository interface {
	domrepo.ObservationStore
	domrepo.ObservationWriter
}

func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient connects only when ClickHouse backs the observation store.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Store.Type != "clickhouse" {
		return nil, nil
	}
	c := cfg.ClickHouse
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddress(c.Host, c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithAsyncInsert(c.AsyncInsert, c.WaitForAsync),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
		pkgch.WithMaxExecutionTime(c.MaxExecutionTime),
		pkgch.WithCompression(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.ObservationSchema(c.Database, c.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideObservationRepository picks ClickHouse or an in-memory table seeded with sample history.
func ProvideObservationRepository(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (ObservationRepository, error) {
	if ch != nil {
		return internalrepo.NewCHObservationStore(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l), nil
	}
	days := cfg.Store.SampleDays
	start := util.AddDays(time.Now(), -days)
	store, err := internalrepo.NewMemoryStore(internalrepo.SampleObservations(cfg.Store.SampleSeed, days, start))
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	l.Info("memory observation store seeded",
		applogger.Int("days", days),
		applogger.String("start", util.FormatDay(start)),
	)
	return store, nil
}

func ProvideObservationStore(r ObservationRepository) domrepo.ObservationStore { return r }

func ProvideObservationWriter(r ObservationRepository) domrepo.ObservationWriter { return r }

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.Linger),
		pkgkafka.WithWriteTimeout(k.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideForecastPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.ForecastPublisher {
	if producer == nil {
		return internalrepo.NopForecastPublisher{}
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.ForecastsTopic)
}

// ProvideKafkaConsumer returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideObservationsHandler returns nil when Kafka is disabled.
func ProvideObservationsHandler(cfg *config.Config, w domrepo.ObservationWriter, l *applogger.Logger) *usecase.ObservationsHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	c := cfg.Kafka.Consumer
	return usecase.NewObservationsHandler(cfg.Kafka.ObservationsTopic, w, c.BatchSize, c.FlushEvery, l)
}

// ProvideSentiment returns nil when no sentiment service is configured.
func ProvideSentiment(cfg *config.Config) domsvc.SentimentProvider {
	if cfg.Sentiment.URL == "" {
		return nil
	}
	return analytics.NewSentimentClient(cfg.Sentiment)
}

func ProvidePipelineConfig(cfg *config.Config) usecase.PipelineConfig {
	f := cfg.Forecast
	params := regression.DefaultParams()
	params.Trees = f.ForestTrees
	params.Stages = f.BoostingStages
	params.Seed = f.Seed
	return usecase.PipelineConfig{
		HorizonDays:      f.HorizonDays,
		MinDemandHistory: f.MinDemandHistory,
		MinTrendHistory:  f.MinTrendHistory,
		BatchWorkers:     f.BatchWorkers,
		Params:           params,
		BootstrapRounds:  f.BootstrapRounds,
		BootstrapTrees:   f.BootstrapTrees,
		BootstrapWorkers: f.BootstrapWorkers,
	}
}

func ProvideForecastPipeline(
	store domrepo.ObservationStore,
	pc usecase.PipelineConfig,
	sentiment domsvc.SentimentProvider,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ForecastPipeline {
	opts := []usecase.PipelineOption{usecase.WithMetrics(m), usecase.WithLogger(l)}
	if sentiment != nil {
		opts = append(opts, usecase.WithSentiment(sentiment))
	}
	return usecase.NewForecastPipeline(store, pc, opts...)
}

// ProvideCache layers a small in-process cache over Redis when Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Store, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryDefaultTTL(cfg.Forecast.CacheTTL)), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("addr", cfg.Redis.Addr))
	return cache.NewLayeredCache(rc, 256, 30*time.Second), nil
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.Server.RateLimit
	return ratelimit.New(rl.Capacity, rl.RefillPerSec)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l, 0)
}

func ProvideForecastHandler(
	cfg *config.Config,
	l *applogger.Logger,
	p *usecase.ForecastPipeline,
	c cache.Store,
	limiter *ratelimit.Limiter,
	ch *pkgch.Client,
) *api.ForecastEchoHandler {
	opts := []api.HandlerOption{
		api.WithCache(c, cfg.Forecast.CacheTTL),
		api.WithRateLimit(limiter),
		api.WithRequestTimeout(cfg.Forecast.RequestTimeout),
	}
	if ch != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", ch.Health))
	}
	if pc, ok := c.(interface{ Ping(context.Context) error }); ok && cfg.Redis.Enabled {
		opts = append(opts, api.WithHealthCheck("redis", pc.Ping))
	}
	return api.NewForecastEchoHandler(l, p, opts...)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideScheduler bounds each scheduled batch by the schedule interval.
func ProvideScheduler(
	cfg *config.Config,
	p *usecase.ForecastPipeline,
	pub domrepo.ForecastPublisher,
	hub *ws.Hub,
	l *applogger.Logger,
) *usecase.ForecastScheduler {
	every := cfg.Forecast.ScheduleInterval
	return usecase.NewForecastScheduler(p, pub, hub, every, every, l)
}

// ProvideClosers lists resources in acquisition order; the app releases them in reverse.
func ProvideClosers(ch *pkgch.Client, pub domrepo.ForecastPublisher, c cache.Store) []server.Closer {
	var out []server.Closer
	if ch != nil {
		out = append(out, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	out = append(out,
		server.Closer{Name: "forecast publisher", Close: pub.Close},
		server.Closer{Name: "cache", Close: c.Close},
	)
	return out
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sched *usecase.ForecastScheduler,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	ingest *usecase.ObservationsHandler,
	closers []server.Closer,
) *server.App {
	return server.New(cfg, l, srv, sched, hub, consumer, ingest, closers)
}
