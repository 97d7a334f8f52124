package chat

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
)

// Conn is one client's duplex line stream. ReadLine returns io.EOF once the
// peer has gone away cleanly. Implementations are not safe for concurrent
// writers; Outbound is the only caller of WriteLine.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

type lineConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// NewLineConn wraps a stream connection speaking newline-delimited text.
func NewLineConn(conn net.Conn) Conn {
	return &lineConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

func (c *lineConn) ReadLine() (string, error) {
	return readLine(c.reader)
}

func (c *lineConn) WriteLine(line string) error {
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}

func (c *lineConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
