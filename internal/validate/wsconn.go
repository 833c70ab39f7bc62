package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// wsConn wraps a single reused control connection to one venue's public
// market-data WebSocket endpoint, tracking reconnect attempts the way
// validator.go's batch loop needs them.
type wsConn struct {
	url  string
	log  zerolog.Logger
	conn *websocket.Conn

	reconnects int
}

func newWSConn(url string, log zerolog.Logger) *wsConn {
	return &wsConn{url: url, log: log}
}

// dial opens (or re-opens) the underlying connection.
func (w *wsConn) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", w.url, err)
	}
	w.conn = conn
	return nil
}

// reconnect retries the dial up to maxAttempts times with exponential
// backoff (100ms base, 30s cap), matching the per-source connection
// policy.
func (w *wsConn) reconnect(ctx context.Context, maxAttempts int) error {
	backoff := 100 * time.Millisecond
	const cap_ = 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		w.reconnects++
		if err := w.dial(ctx); err == nil {
			w.log.Info().Str("url", w.url).Int("attempt", attempt).Msg("websocket reconnected")
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > cap_ {
			backoff = cap_
		}
	}
	return fmt.Errorf("reconnect exhausted after %d attempts: %w", maxAttempts, lastErr)
}

func (w *wsConn) close() {
	if w.conn != nil {
		w.conn.Close()
	}
}

func (w *wsConn) writeJSON(v interface{}) error {
	return w.conn.WriteJSON(v)
}

// readMessage applies read_slice as a per-message deadline; a timeout here
// is routine (absence of a message in the slice is expected) and is
// reported to the caller as timedOut=true with a nil error.
func (w *wsConn) readMessage(readSlice time.Duration) (messageType int, data []byte, timedOut bool, err error) {
	w.conn.SetReadDeadline(time.Now().Add(readSlice))
	messageType, data, err = w.conn.ReadMessage()
	if err != nil {
		if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
			return 0, nil, true, nil
		}
		return 0, nil, false, err
	}
	return messageType, data, false, nil
}
