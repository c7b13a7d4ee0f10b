package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket is a single-peer Transport over one *websocket.Conn, used for
// remote front-ends. Unlike a hub that fans one debuggee session out to
// many browser clients, this transport serves exactly one peer —
// aliceserver is explicitly single-session — so only the framing
// discipline (one message per WebSocket frame, written under a lock) is
// kept; register/unregister/broadcast machinery has no place here.
type WebSocket struct {
	conn *websocket.Conn

	mu      sync.Mutex // guards Send, since gorilla/websocket forbids concurrent writers
	pending []byte      // unread remainder of the last frame, for Read(n)
}

// NewWebSocket wraps conn as a Transport.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// ReadLine returns the next complete WebSocket text/binary frame,
// interpreted as one line (the frame boundary stands in for the newline
// the stdio line transport would otherwise require).
func (w *WebSocket) ReadLine() ([]byte, error) {
	if len(w.pending) > 0 {
		b := w.pending
		w.pending = nil
		return b, nil
	}
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("transport: websocket read: %w", err)
	}
	return data, nil
}

// Read returns exactly n bytes, drawn from (and across) WebSocket frames.
func (w *WebSocket) Read(n int) ([]byte, error) {
	for len(w.pending) < n {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("transport: websocket read: %w", err)
		}
		w.pending = append(w.pending, data...)
	}
	b := w.pending[:n]
	w.pending = w.pending[n:]
	return b, nil
}

// Send writes one WebSocket text frame, holding a lock since
// gorilla/websocket connections do not support concurrent writers.
func (w *WebSocket) Send(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

// Close closes the underlying connection.
func (w *WebSocket) Close() error {
	return w.conn.Close()
}
