package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotConnected reports a write attempted without a live connection.
var ErrNotConnected = errors.New("stream: not connected")

// conn wraps a single WebSocket connection with serialized writes and
// ping/pong liveness tracking.
type conn struct {
	ws *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration

	mu         sync.Mutex
	lastPongAt time.Time
}

// dial opens a WebSocket connection to the exchange trade feed.
func dial(ctx context.Context, url, apiKey string, writeTimeout time.Duration) (*conn, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if apiKey != "" {
		header.Set("X-API-Key", apiKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	c := &conn{
		ws:           ws,
		writeTimeout: writeTimeout,
		lastPongAt:   time.Now(),
	}

	ws.SetPingHandler(func(data string) error {
		c.touch()
		return ws.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	ws.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	return c, nil
}

func (c *conn) touch() {
	c.mu.Lock()
	c.lastPongAt = time.Now()
	c.mu.Unlock()
}

// lastSeen returns the time of the last pong or server ping.
func (c *conn) lastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPongAt
}

// send writes a text message under the write deadline.
func (c *conn) send(data []byte) error {
	if c == nil || c.ws == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// ping sends a keepalive control frame.
func (c *conn) ping() error {
	return c.ws.WriteControl(
		websocket.PingMessage,
		[]byte("keepalive"),
		time.Now().Add(c.writeTimeout),
	)
}

// read blocks for the next message.
func (c *conn) read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// close sends a close frame and tears the connection down.
func (c *conn) close() error {
	if c == nil || c.ws == nil {
		return nil
	}
	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}
