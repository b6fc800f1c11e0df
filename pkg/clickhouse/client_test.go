package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

func TestOptionsRequiresHost(t *testing.T) {
	if _, err := Options(defaultConfig()); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestOptionsSettings(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddress("ch.local", 9440),
		WithDatabase("trendcast"),
		WithCredentials("svc", "secret"),
		WithHTTP(true),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(30 * time.Second),
		WithCompression(true),
	} {
		opt(&cfg)
	}
	o, err := Options(cfg)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if o.Addr[0] != "ch.local:9440" || o.Auth.Database != "trendcast" || o.Auth.Username != "svc" {
		t.Fatalf("unexpected options %+v", o)
	}
	if o.Protocol != ch.HTTP {
		t.Fatalf("protocol %v", o.Protocol)
	}
	if o.Settings["max_execution_time"] != 30 || o.Settings["async_insert"] != 1 || o.Settings["wait_for_async_insert"] != 1 {
		t.Fatalf("settings %v", o.Settings)
	}
	if o.Compression == nil || o.Compression.Method != ch.CompressionLZ4 {
		t.Fatalf("compression %+v", o.Compression)
	}
}
