package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Outbound is the only path by which lines reach a client. Lines are queued
// and written by a single goroutine, so concurrent senders never interleave.
type Outbound struct {
	id     string
	conn   Conn
	onFail func(error)
	failed sync.Once

	mu     sync.Mutex
	queue  chan string
	closed bool
	err    error

	done chan struct{}
}

// StartOutbound creates the queue for conn and starts its writer goroutine.
// onFail runs once, on its own goroutine, when the queue overflows or a
// write fails; the owner is expected to release the client and close conn.
// A nil onFail closes conn directly.
func StartOutbound(conn Conn, buffer int, onFail func(error)) *Outbound {
	if buffer <= 0 {
		buffer = defaultOutboundBuffer
	}
	o := &Outbound{
		id:     uuid.NewString(),
		conn:   conn,
		onFail: onFail,
		queue:  make(chan string, buffer),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

// ID identifies the outbound channel in logs.
func (o *Outbound) ID() string { return o.id }

// Send queues line without blocking. It reports false once the channel is
// closed. A full queue means the client is not reading; the channel is then
// closed and the owner notified.
func (o *Outbound) Send(line string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	select {
	case o.queue <- line:
		return true
	default:
		o.closeLocked(ErrSlowConsumer)
		// Senders may hold the registry lock; the owner's cleanup needs it.
		go o.fail(ErrSlowConsumer)
		return false
	}
}

// Close stops accepting lines. Lines already queued are still written.
// Safe to call more than once.
func (o *Outbound) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked(nil)
}

// Done is closed when the writer goroutine has exited.
func (o *Outbound) Done() <-chan struct{} { return o.done }

// Err returns the reason the channel failed, if it did.
func (o *Outbound) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *Outbound) closeLocked(err error) {
	if o.closed {
		return
	}
	o.closed = true
	o.err = err
	close(o.queue)
}

func (o *Outbound) run() {
	defer close(o.done)
	for line := range o.queue {
		if err := o.conn.WriteLine(line); err != nil {
			o.mu.Lock()
			o.closeLocked(err)
			o.mu.Unlock()
			go o.fail(err)
			return
		}
	}
}

func (o *Outbound) fail(err error) {
	o.failed.Do(func() {
		if o.onFail != nil {
			o.onFail(err)
			return
		}
		_ = o.conn.Close()
	})
}
