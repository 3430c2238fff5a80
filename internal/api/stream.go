package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/config"
)

const (
	streamQueueSize = 256

	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// keepalive holds the ping cadence and how long a peer may stay silent.
type keepalive struct {
	ping time.Duration
	wait time.Duration
}

func newKeepalive(cfg config.WebSocketConfig) keepalive {
	k := keepalive{
		ping: time.Duration(cfg.PingInterval) * time.Second,
		wait: time.Duration(cfg.PongTimeout) * time.Second,
	}
	if k.ping <= 0 {
		k.ping = defaultPingInterval
	}
	if k.wait <= 0 {
		k.wait = defaultPongTimeout
	}
	return k
}

func (k keepalive) readDeadline() time.Time {
	return time.Now().Add(k.ping + k.wait)
}

// inboundFrame is a client request. Payload is decoded per Type.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// streamClient is one WebSocket connection attached to a Hub.
type streamClient struct {
	hub  *Hub
	conn *websocket.Conn
	keep keepalive

	mu       sync.Mutex
	queue    chan []byte
	closed   bool
	channels map[string]struct{}
}

func newStreamClient(h *Hub, conn *websocket.Conn) *streamClient {
	return &streamClient{
		hub:      h,
		conn:     conn,
		keep:     newKeepalive(h.cfg),
		queue:    make(chan []byte, streamQueueSize),
		channels: make(map[string]struct{}),
	}
}

// wants reports whether the client follows any of the channels.
func (c *streamClient) wants(channels ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		if _, ok := c.channels[ch]; ok {
			return true
		}
	}
	return false
}

// subscribed reports whether the client follows any channel.
func (c *streamClient) subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels) > 0
}

// enqueue queues a frame without blocking. It reports false when the frame
// was dropped because the client is gone or its queue is full.
func (c *streamClient) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.queue <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the queue once, which makes transmit send a close frame.
func (c *streamClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
}

// receive reads client frames until the connection fails.
func (c *streamClient) receive() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	if n := c.hub.cfg.MaxMessageSize; n > 0 {
		c.conn.SetReadLimit(int64(n))
	}
	_ = c.conn.SetReadDeadline(c.keep.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(c.keep.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(c.keep.readDeadline())
		c.dispatch(data)
	}
}

// transmit drains the queue to the connection and pings on a timer.
func (c *streamClient) transmit() {
	ticker := time.NewTicker(c.keep.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.keep.wait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.keep.wait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *streamClient) dispatch(data []byte) {
	var in inboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		c.reply("", WSTypeError, errorBody("invalid JSON message"))
		return
	}

	switch in.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.changeSubscriptions(in)
	case WSTypePing:
		c.reply(in.ID, WSTypePong, nil)
	default:
		c.reply(in.ID, WSTypeError, errorBody("unknown message type: "+in.Type))
	}
}

func (c *streamClient) changeSubscriptions(in inboundFrame) {
	var sub WSSubscribePayload
	if len(in.Payload) == 0 || json.Unmarshal(in.Payload, &sub) != nil {
		c.reply(in.ID, WSTypeError, errorBody("invalid "+in.Type+" payload"))
		return
	}

	add := in.Type == WSTypeSubscribe
	c.mu.Lock()
	for _, ch := range sub.Channels {
		if add {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if add {
		key = "subscribed"
		c.hub.logger.Info("websocket client subscribed", "channels", sub.Channels)
	}
	c.reply(in.ID, WSTypeResponse, map[string][]string{key: sub.Channels})
}

func (c *streamClient) reply(id, msgType string, payload any) {
	frame, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}
