package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Store.Type != "memory" {
		t.Fatalf("store type %q", c.Store.Type)
	}
	if c.Forecast.BootstrapRounds != 100 || c.Forecast.BootstrapTrees != 50 {
		t.Fatalf("bootstrap defaults %+v", c.Forecast)
	}
	if c.Forecast.MinTrendHistory != 60 || c.Forecast.MinDemandHistory != 30 {
		t.Fatalf("history defaults %+v", c.Forecast)
	}
	if c.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout %v", c.Server.ShutdownTimeout)
	}
	if c.Kafka.RequiredAcks != -1 {
		t.Fatalf("required acks %d", c.Kafka.RequiredAcks)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	yml := `
environment: prod
store:
  type: clickhouse
forecast:
  seed: 7
  bootstrap_rounds: 20
`
	c, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Store.Type != "clickhouse" || c.Forecast.Seed != 7 || c.Forecast.BootstrapRounds != 20 {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"store":     "store:\n  type: sqlite\n",
		"kafka":     "kafka:\n  enabled: true\n",
		"bootstrap": "forecast:\n  bootstrap_rounds: 1\n",
		"horizon":   "forecast:\n  horizon_days: -3\n",
	}
	for name, yml := range cases {
		if _, err := Parse([]byte(yml)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: dev\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("FORECAST_SEED", "99")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka env override: %+v", c.Kafka)
	}
	if c.Forecast.Seed != 99 {
		t.Fatalf("seed override %d", c.Forecast.Seed)
	}
}
