// Command client is a terminal peer for the chat server. Lines typed on
// stdin are sent as chat lines; "name>>text" or "/w name text" sends a
// directed message.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/andy6609/linechat/internal/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:9001", "chat server address")
	name := flag.String("name", "", "screen name to submit first (prompted if rejected)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Error("failed to connect", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)
	c := &client{
		conn:    conn,
		stdin:   stdin,
		stdout:  os.Stdout,
		pending: *name,
	}
	if err := c.run(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		logger.Error("connection closed", "error", err)
		os.Exit(1)
	}
}

type client struct {
	conn    net.Conn
	stdin   *bufio.Scanner
	stdout  io.Writer
	pending string
}

func (c *client) run() error {
	reader := bufio.NewReader(c.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		msg := protocol.ParseServerLine(strings.TrimRight(line, "\r\n"))
		switch msg.Kind {
		case protocol.KindSubmitName:
			if err := c.submitName(); err != nil {
				return err
			}
		case protocol.KindNameAccepted:
			fmt.Fprintln(c.stdout, "* joined. Type a message, or /w name message to whisper.")
			go c.pumpStdin()
		case protocol.KindMessage:
			fmt.Fprintln(c.stdout, msg.Text)
		case protocol.KindUserList:
			fmt.Fprintf(c.stdout, "* online: %s\n", strings.Join(msg.Names, ", "))
		}
	}
}

func (c *client) submitName() error {
	name := c.pending
	c.pending = ""
	if name == "" {
		fmt.Fprint(c.stdout, "screen name: ")
		if !c.stdin.Scan() {
			return io.EOF
		}
		name = c.stdin.Text()
	}
	_, err := fmt.Fprintln(c.conn, name)
	return err
}

func (c *client) pumpStdin() {
	for c.stdin.Scan() {
		if _, err := fmt.Fprintln(c.conn, outgoing(c.stdin.Text())); err != nil {
			return
		}
	}
	// stdin closed: hang up so the server releases our name.
	_ = c.conn.Close()
}

// outgoing turns "/w name text" into the wire form of a directed message.
// Anything else is sent unchanged.
func outgoing(input string) string {
	rest, ok := strings.CutPrefix(input, "/w ")
	if !ok {
		return input
	}
	receiver, text, ok := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok || receiver == "" {
		return input
	}
	return protocol.RenderDirect(receiver, text)
}
