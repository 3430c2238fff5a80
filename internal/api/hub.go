package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/busevent"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/logging"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// ChannelBusEvents carries every bus event.
const ChannelBusEvents = "bus.events"

// DeviceChannel returns the channel carrying the events of one device.
func DeviceChannel(id int) string {
	return "device." + strconv.Itoa(id)
}

// WSMessage is a frame sent to a stream client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload lists the channels of a subscribe or unsubscribe frame.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans bus events out to subscribed WebSocket clients.
// It implements bus.Observer.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// Run blocks until ctx is cancelled and then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*streamClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.shutdown()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Observe implements bus.Observer. Slow clients drop events rather than
// stall the bus. A reset concerns every device, so it reaches every client
// with at least one subscription.
func (h *Hub) Observe(ev bus.Event) {
	frame, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: string(ev.Op),
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
		Payload:   busevent.PayloadFromEvent(ev),
	})
	if err != nil {
		h.logger.Error("encoding bus event frame", "error", err)
		return
	}

	device := DeviceChannel(ev.DeviceID)
	for _, c := range h.snapshot() {
		if ev.Op == bus.OpReset && c.subscribed() || c.wants(ChannelBusEvents, device) {
			c.enqueue(frame)
		}
	}
}

func (h *Hub) snapshot() []*streamClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) attach(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) detach(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.shutdown()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// handleWebSocket upgrades the request and attaches the connection to the hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event stream is disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newStreamClient(s.hub, conn)
	s.hub.attach(c)

	go c.transmit()
	go c.receive()
}
