package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
	domsvc "TrendCast/internal/domain/service"
	xlogger "TrendCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 64
)

type envelope struct {
	Type string                 `json:"type"`
	Data *models.ForecastRecord `json:"data"`
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	category string
}

// Hub fans finished forecasts out to WebSocket subscribers. Slow subscribers lose messages
// instead of blocking the broadcaster.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	l            *xlogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

var _ domsvc.ForecastBroadcaster = (*Hub)(nil)

func NewHub(l *xlogger.Logger, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 || pingInterval >= pongWait {
		pingInterval = pongWait * 9 / 10
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		l:            l,
		clients:      make(map[*client]struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/forecasts", h.Serve)
}

// Serve upgrades the request. ?category= restricts the feed to one category.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), category: c.QueryParam("category")}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.l.Debug("ws subscriber joined", xlogger.String("category", cl.category), xlogger.Int("subscribers", n))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Broadcast encodes rec once and queues it for every matching subscriber.
func (h *Hub) Broadcast(rec *models.ForecastRecord) {
	if rec == nil {
		return
	}
	b, err := json.Marshal(envelope{Type: "forecast", Data: rec})
	if err != nil {
		h.l.Error("ws encode failed", xlogger.String("entity_id", rec.EntityID), xlogger.Error(err))
		return
	}

	h.mu.RLock()
	dropped := 0
	for cl := range h.clients {
		if cl.category != "" && cl.category != rec.Category {
			continue
		}
		select {
		case cl.send <- b:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 {
		h.l.Warn("ws subscribers lagging", xlogger.String("entity_id", rec.EntityID), xlogger.Int("dropped", dropped))
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readLoop only consumes control frames; it returns when the peer goes away.
func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Debug("ws read closed", xlogger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
