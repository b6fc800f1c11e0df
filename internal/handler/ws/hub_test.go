package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
	xlogger "TrendCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(xlogger.Nop(), time.Second)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/forecasts"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	h, url := startHub(t)
	all := dial(t, url)
	toys := dial(t, url+"?category=toys")
	waitClients(t, h, 2)

	h.Broadcast(&models.ForecastRecord{EntityID: "prod_001", Category: "electronics", Forecast: []int{1, 2}})
	h.Broadcast(&models.ForecastRecord{EntityID: "prod_009", Category: "toys"})

	var first envelope
	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := all.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Type != "forecast" || first.Data.EntityID != "prod_001" || len(first.Data.Forecast) != 2 {
		t.Fatalf("got %+v", first)
	}

	_ = toys.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := toys.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var got envelope
	if err := json.Unmarshal(b, &got); err != nil || got.Data.EntityID != "prod_009" {
		t.Fatalf("filtered feed got %s (%v)", b, err)
	}
}

func TestSubscriberLeaves(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, h, 1)
	_ = conn.Close()
	waitClients(t, h, 0)
	h.Broadcast(&models.ForecastRecord{EntityID: "p"})
}
