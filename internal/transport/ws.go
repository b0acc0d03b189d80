// Package transport manages the persistent WebSocket connection to the dock
// server's strong search endpoint. It owns dialing, framed send/receive, and
// connection teardown; session semantics live in the engine package.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected = errors.New("websocket not connected")
	ErrConnection   = errors.New("websocket connection failed")
)

const readLimit = 16 * 1024 * 1024 // 16MB

// Conn wraps a *websocket.Conn with mutex-guarded writes and structured
// message reading/writing.
type Conn struct {
	c      *websocket.Conn
	mu     sync.Mutex // guards writes
	closed bool
}

// Dial opens the WebSocket connection at wsURL. The context bounds the
// handshake only; the connection outlives it.
func Dial(ctx context.Context, wsURL string) (*Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConnection, resp.Status, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return newConn(c), nil
}

func newConn(c *websocket.Conn) *Conn {
	c.SetReadLimit(readLimit)
	c.SetPongHandler(func(string) error {
		_ = c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &Conn{c: c}
}

// ReadMessage reads the next message from the WebSocket. It returns an error
// once the connection is closed from either side.
func (wc *Conn) ReadMessage() ([]byte, error) {
	_, data, err := wc.c.ReadMessage()
	return data, err
}

// Send marshals v as JSON and writes it as a WebSocket text message.
func (wc *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ws marshal: %w", err)
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if wc.closed {
		return ErrNotConnected
	}
	return wc.c.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying WebSocket connection. It is idempotent.
func (wc *Conn) Close() {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if !wc.closed {
		wc.closed = true
		_ = wc.c.Close()
	}
}

// Closed reports whether Close has been called.
func (wc *Conn) Closed() bool {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.closed
}

// StartPing sends a WebSocket ping every interval until the context is done
// or the connection is closed.
func (wc *Conn) StartPing(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				wc.mu.Lock()
				if wc.closed {
					wc.mu.Unlock()
					return
				}
				_ = wc.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				wc.mu.Unlock()
			}
		}
	}()
}

// IsCloseError reports whether err is a normal WebSocket closure rather than
// a transport failure.
func IsCloseError(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
