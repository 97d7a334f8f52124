package chat

import (
	"log/slog"
	"time"

	"github.com/andy6609/linechat/internal/protocol"
)

const (
	routeBroadcast     = "broadcast"
	routeDirect        = "direct"
	routeDirectDropped = "direct_dropped"
	routeUserList      = "userlist"
)

// Router decides where a chat line goes and renders it for the wire.
type Router struct {
	reg    *Registry
	logger *slog.Logger
}

func NewRouter(reg *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{reg: reg, logger: logger}
}

// Dispatch delivers msg from sender. Broadcasts reach every registered
// client including the sender. Directed messages reach the receiver and are
// echoed to the sender; an unknown receiver drops the message silently.
func (rt *Router) Dispatch(sender string, senderOut *Outbound, msg protocol.Message) {
	if msg.Direct {
		rt.direct(sender, senderOut, msg)
		return
	}
	rt.broadcast(sender, msg.Text)
}

func (rt *Router) broadcast(sender, text string) {
	start := time.Now()
	line := protocol.RenderMessage(sender, text)
	rt.reg.View(func(_ []string, outs []*Outbound) {
		for _, out := range outs {
			out.Send(line)
		}
	})
	observe(routeBroadcast, start)
}

func (rt *Router) direct(sender string, senderOut *Outbound, msg protocol.Message) {
	start := time.Now()
	receiver, ok := rt.reg.Lookup(msg.Receiver)
	if !ok {
		rt.logger.Debug("dropping message for unknown receiver", "from", sender, "to", msg.Receiver)
		MessagesTotal.WithLabelValues(routeDirectDropped).Inc()
		return
	}
	line := protocol.RenderMessage(sender, msg.Text)
	receiver.Send(line)
	if senderOut != nil {
		senderOut.Send(line)
	}
	observe(routeDirect, start)
}

// BroadcastUserList sends the current roster to every registered client.
// Rendering and fan-out happen against one registry state, so a client
// never receives a roster older than one it has already seen.
func (rt *Router) BroadcastUserList() {
	start := time.Now()
	rt.reg.View(func(names []string, outs []*Outbound) {
		line := protocol.RenderUserList(names)
		for _, out := range outs {
			out.Send(line)
		}
	})
	observe(routeUserList, start)
}

func observe(route string, start time.Time) {
	MessagesTotal.WithLabelValues(route).Inc()
	EventProcessingDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
