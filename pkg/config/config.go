package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"TrendCast/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	Log         LogConfig       `yaml:"log"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Store       StoreConfig     `yaml:"store"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Redis       RedisConfig     `yaml:"redis"`
	Sentiment   SentimentConfig `yaml:"sentiment"`
	Forecast    ForecastConfig  `yaml:"forecast"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
	} `yaml:"rate_limit"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// StoreConfig selects where observations are read from.
type StoreConfig struct {
	Type       string `yaml:"type" default:"memory"` // memory or clickhouse
	SampleDays int    `yaml:"sample_days" default:"730"`
	SampleSeed uint64 `yaml:"sample_seed" default:"42"`
}

type ClickHouse struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"trendcast"`
	Table            string        `yaml:"table" default:"observations"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	ForecastsTopic    string   `yaml:"forecasts_topic" default:"trendcast.forecasts"`
	ObservationsTopic string   `yaml:"observations_topic" default:"trendcast.observations"`
	RequiredAcks      int      `yaml:"required_acks" default:"-1"`
	Compression       string   `yaml:"compression" default:"gzip"`
	Producer          struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"500ms"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"trendcast-ingest"`
		Workers    int           `yaml:"workers" default:"2"`
		BufferSize int           `yaml:"buffer_size" default:"256"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		BatchSize  int           `yaml:"batch_size" default:"500"`
		FlushEvery time.Duration `yaml:"flush_every" default:"2s"`
	} `yaml:"consumer"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SentimentConfig points at the external NLP service that scores daily sentiment.
type SentimentConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout" default:"3s"`
	Attempts int           `yaml:"attempts" default:"2"`
}

type ForecastConfig struct {
	Seed             uint64        `yaml:"seed" default:"42"`
	HorizonDays      int           `yaml:"horizon_days" default:"30"`
	MinDemandHistory int           `yaml:"min_demand_history" default:"30"`
	MinTrendHistory  int           `yaml:"min_trend_history" default:"60"`
	ForestTrees      int           `yaml:"forest_trees" default:"100"`
	BoostingStages   int           `yaml:"boosting_stages" default:"100"`
	BootstrapRounds  int           `yaml:"bootstrap_rounds" default:"100"`
	BootstrapTrees   int           `yaml:"bootstrap_trees" default:"50"`
	BootstrapWorkers int           `yaml:"bootstrap_workers" default:"4"`
	BatchWorkers     int           `yaml:"batch_workers" default:"4"`
	ScheduleInterval time.Duration `yaml:"schedule_interval" default:"1h"`
	CacheTTL         time.Duration `yaml:"cache_ttl" default:"5m"`
	RequestTimeout   time.Duration `yaml:"request_timeout" default:"45s"`
}

// Default returns a config populated from struct defaults only.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the struct defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TRENDCAST_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Sentiment.URL = v
	}
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		c.Forecast.Seed = util.ParseUint64Default(v, c.Forecast.Seed)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	switch c.Store.Type {
	case "memory", "clickhouse":
	default:
		return fmt.Errorf("store.type must be 'memory' or 'clickhouse', got '%s'", c.Store.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	f := c.Forecast
	if f.HorizonDays <= 0 {
		return errors.New("forecast.horizon_days must be positive")
	}
	if f.MinDemandHistory < 0 || f.MinTrendHistory < 0 {
		return errors.New("forecast minimum history cannot be negative")
	}
	if f.ForestTrees <= 0 || f.BoostingStages <= 0 || f.BootstrapTrees <= 0 {
		return errors.New("forecast model sizes must be positive")
	}
	if f.BootstrapRounds < 2 {
		return errors.New("forecast.bootstrap_rounds must be at least 2")
	}
	if f.BootstrapWorkers <= 0 || f.BatchWorkers <= 0 {
		return errors.New("forecast worker counts must be positive")
	}
	return nil
}
