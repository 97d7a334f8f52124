package chat

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients on other origins are allowed; there is no auth to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn carries the line protocol over WebSocket. A text frame normally
// holds one line; frames with embedded newlines are split so every line
// handed to the session is newline-free.
type wsConn struct {
	conn    *websocket.Conn
	pending []string
}

// NewWebSocketConn adapts an upgraded WebSocket connection to Conn.
func NewWebSocketConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadLine() (string, error) {
	for {
		if len(c.pending) > 0 {
			line := c.pending[0]
			c.pending = c.pending[1:]
			return line, nil
		}
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.pending = splitLines(string(data))
	}
}

func (c *wsConn) WriteLine(line string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// splitLines breaks a frame into lines, dropping the final terminator and
// any '\r' before each '\n'. A bare '\r' inside a line is also removed.
func splitLines(frame string) []string {
	frame = strings.TrimSuffix(frame, "\n")
	parts := strings.Split(frame, "\n")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "\r", "")
	}
	return parts
}
