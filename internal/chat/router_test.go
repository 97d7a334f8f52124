package chat

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/andy6609/linechat/internal/protocol"
)

type member struct {
	out  *Outbound
	conn *fakeConn
}

func registerMembers(t *testing.T, r *Registry, names ...string) map[string]member {
	t.Helper()
	members := make(map[string]member, len(names))
	for _, name := range names {
		out, conn := newOutbound(t)
		if err := r.TryRegister(name, out); err != nil {
			t.Fatalf("register(%s) error: %v", name, err)
		}
		members[name] = member{out: out, conn: conn}
	}
	return members
}

func TestRouter_BroadcastReachesEveryoneOnce(t *testing.T) {
	reg := NewRegistry(0, nil)
	rt := NewRouter(reg, nil)
	m := registerMembers(t, reg, "alice", "bob", "carol")

	rt.Dispatch("alice", m["alice"].out, protocol.ParseClientLine("hello all"))

	for name, mem := range m {
		expectLine(t, mem.conn.out, "MESSAGE alice: hello all")
		select {
		case extra := <-mem.conn.out:
			t.Fatalf("%s got an extra line %q", name, extra)
		default:
		}
	}
}

func TestRouter_DirectedGoesToReceiverAndSender(t *testing.T) {
	reg := NewRegistry(0, nil)
	rt := NewRouter(reg, nil)
	m := registerMembers(t, reg, "alice", "bob", "carol")

	rt.Dispatch("alice", m["alice"].out, protocol.ParseClientLine("bob>>hello"))

	expectLine(t, m["bob"].conn.out, "MESSAGE alice: hello")
	expectLine(t, m["alice"].conn.out, "MESSAGE alice: hello")
	expectSilence(t, m["carol"].conn.out)
	expectSilence(t, m["bob"].conn.out)
	expectSilence(t, m["alice"].conn.out)
}

func TestRouter_DirectedToUnknownIsDropped(t *testing.T) {
	reg := NewRegistry(0, nil)
	rt := NewRouter(reg, nil)
	m := registerMembers(t, reg, "alice", "carol")

	dropped := MessagesTotal.WithLabelValues(routeDirectDropped)
	before := testutil.ToFloat64(dropped)

	rt.Dispatch("alice", m["alice"].out, protocol.ParseClientLine("bob>>hello"))

	expectSilence(t, m["alice"].conn.out)
	expectSilence(t, m["carol"].conn.out)
	if got := testutil.ToFloat64(dropped) - before; got != 1 {
		t.Fatalf("expected one dropped message counted, got %v", got)
	}
}

func TestRouter_DirectedKeepsLaterDelimiters(t *testing.T) {
	reg := NewRegistry(0, nil)
	rt := NewRouter(reg, nil)
	m := registerMembers(t, reg, "alice", "bob")

	rt.Dispatch("alice", m["alice"].out, protocol.ParseClientLine("bob>>a>>b"))

	expectLine(t, m["bob"].conn.out, "MESSAGE alice: a>>b")
}

func TestRouter_BroadcastUserList(t *testing.T) {
	reg := NewRegistry(0, nil)
	rt := NewRouter(reg, nil)
	m := registerMembers(t, reg, "bob", "alice")

	rt.BroadcastUserList()

	expectLine(t, m["alice"].conn.out, "USERLIST alice,bob")
	expectLine(t, m["bob"].conn.out, "USERLIST alice,bob")
}
