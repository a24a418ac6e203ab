// Package agent implements the in-browser agent core: the message
// channel to the daemon, the window state synchronizer, the keep-alive
// controller, and the notification & badge pipeline.
//
// The agent is the only component with direct window access; everything
// browser-shaped is behind an interface so the state machines run (and
// test) without a real browser.
package agent

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/loft-chat/loft/internal/protocol"
)

// reconnectDelay is the fixed retry interval after a connect failure or
// channel loss. The daemon is a local always-on process, so quick
// reattachment matters more than avoiding retry storms.
const reconnectDelay = 5 * time.Second

// sendQueueSize bounds the outbound queue per connection. The daemon
// drains continuously; a full queue means the peer is stalled and
// further sends are dropped rather than blocking the caller.
const sendQueueSize = 32

// Dialer opens one duplex connection to the daemon relay endpoint.
type Dialer func() (io.ReadWriteCloser, error)

// Channel is the agent's message channel to the daemon. One channel per
// agent instance; a session never multiplexes services over a channel.
//
// Sends are fire-and-forget: callers never block on the peer. Outbound
// messages are queued to a per-connection writer goroutine and dropped
// when the channel is down or the queue is full.
type Channel struct {
	dial  Dialer
	delay time.Duration

	mu           sync.Mutex
	conn         io.ReadWriteCloser
	out          chan protocol.Message // nil while disconnected
	service      string                // empty until the service identity is known
	announced    bool
	closed       bool
	onMessage    func(protocol.Message)
	onDisconnect func()
}

// NewChannel creates a channel that will dial the daemon with the given
// dialer. Call Connect to start it.
func NewChannel(dial Dialer) *Channel {
	return &Channel{dial: dial, delay: reconnectDelay}
}

// OnMessage registers the handler for daemon→agent messages.
func (c *Channel) OnMessage(fn func(protocol.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// OnDisconnect registers the handler fired on any channel loss.
func (c *Channel) OnDisconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// Connect starts the connect-and-read loop. It returns immediately; the
// loop retries failed connects every 5s indefinitely until Close.
func (c *Channel) Connect() {
	go c.run()
}

// Connected reports whether a connection is currently established.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetService records the agent's service identity. If a connection is
// already up and the identity was not announced yet, the deferred
// ready announce is queued now.
func (c *Channel) SetService(name string) {
	c.mu.Lock()
	c.service = name
	out := c.out
	needAnnounce := c.conn != nil && !c.announced
	if needAnnounce {
		c.announced = true
	}
	c.mu.Unlock()

	if needAnnounce {
		enqueue(out, protocol.Ready(name))
	}
}

// Send queues a message to the daemon and returns immediately. A send
// on a down channel or a full queue is dropped, not buffered.
func (c *Channel) Send(m protocol.Message) {
	c.mu.Lock()
	out := c.out
	c.mu.Unlock()
	if out == nil {
		return
	}
	enqueue(out, m)
}

func enqueue(out chan protocol.Message, m protocol.Message) {
	select {
	case out <- m:
	default:
		log.Printf("[channel] dropped %s: send queue full", m.Type)
	}
}

// Close tears the channel down permanently.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.out = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (c *Channel) run() {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn, err := c.dial()
		if err != nil {
			time.Sleep(c.delay)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		out := make(chan protocol.Message, sendQueueSize)
		c.conn = conn
		c.out = out
		c.announced = c.service != ""
		// The ready announce is queued before c.out is visible to any
		// Send, so it is always the first frame on the wire.
		if c.service != "" {
			out <- protocol.Ready(c.service)
		}
		c.mu.Unlock()

		done := make(chan struct{})
		go writeLoop(conn, out, done)

		c.readLoop(conn)
		close(done)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
			c.out = nil
		}
		closed := c.closed
		onDisconnect := c.onDisconnect
		c.mu.Unlock()
		conn.Close()

		if closed {
			return
		}
		if onDisconnect != nil {
			onDisconnect()
		}
		time.Sleep(c.delay)
	}
}

func (c *Channel) readLoop(conn io.ReadWriteCloser) {
	for {
		m, err := protocol.ReadFrame(conn)
		if err != nil {
			return
		}
		c.mu.Lock()
		handler := c.onMessage
		c.mu.Unlock()
		if handler != nil {
			handler(m)
		}
	}
}

// writeLoop drains one connection's outbound queue. A write failure
// closes the connection, which ends the read loop and triggers the
// normal reconnect path.
func writeLoop(conn io.ReadWriteCloser, out <-chan protocol.Message, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case m := <-out:
			if err := protocol.WriteFrame(conn, m); err != nil {
				log.Printf("[channel] dropped %s: %v", m.Type, err)
				conn.Close()
				return
			}
		}
	}
}
