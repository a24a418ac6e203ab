package agent

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/loft-chat/loft/internal/protocol"
)

func pipeDialer(t *testing.T) (Dialer, <-chan net.Conn) {
	t.Helper()
	conns := make(chan net.Conn, 4)
	dial := func() (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		conns <- server
		return client, nil
	}
	return dial, conns
}

func readFrameTimeout(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	m, err := protocol.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	return m
}

func TestReadyAnnouncedOnConnect(t *testing.T) {
	dial, conns := pipeDialer(t)
	c := NewChannel(dial)
	c.SetService("whatsapp")
	c.Connect()
	defer c.Close()

	server := <-conns
	m := readFrameTimeout(t, server)
	if m.Type != protocol.TypeReady || m.Service != "whatsapp" {
		t.Errorf("announce = %+v", m)
	}
}

func TestReadyDeferredUntilServiceKnown(t *testing.T) {
	dial, conns := pipeDialer(t)
	c := NewChannel(dial)
	c.Connect()
	defer c.Close()

	server := <-conns

	// Nothing announced before the identity is known.
	server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := protocol.ReadFrame(server); err == nil {
		t.Fatal("frame sent before SetService")
	}

	c.SetService("messenger")
	m := readFrameTimeout(t, server)
	if m.Type != protocol.TypeReady || m.Service != "messenger" {
		t.Errorf("announce = %+v", m)
	}
}

func TestDaemonMessagesRouted(t *testing.T) {
	dial, conns := pipeDialer(t)
	c := NewChannel(dial)
	received := make(chan protocol.Message, 1)
	c.OnMessage(func(m protocol.Message) { received <- m })
	c.SetService("whatsapp")
	c.Connect()
	defer c.Close()

	server := <-conns
	readFrameTimeout(t, server) // drain the ready announce

	if err := protocol.WriteFrame(server, protocol.Message{Type: protocol.TypeShowWindow}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	select {
	case m := <-received:
		if m.Type != protocol.TypeShowWindow {
			t.Errorf("routed = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not routed")
	}
}

func TestReconnectReannouncesReady(t *testing.T) {
	dial, conns := pipeDialer(t)
	c := NewChannel(dial)
	c.delay = 10 * time.Millisecond
	disconnects := make(chan struct{}, 1)
	c.OnDisconnect(func() { disconnects <- struct{}{} })
	c.SetService("whatsapp")
	c.Connect()
	defer c.Close()

	server := <-conns
	readFrameTimeout(t, server)
	server.Close()

	select {
	case <-disconnects:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported")
	}

	// Every reconnect re-announces: the daemon may have restarted and
	// lost all session state.
	server = <-conns
	m := readFrameTimeout(t, server)
	if m.Type != protocol.TypeReady || m.Service != "whatsapp" {
		t.Errorf("re-announce = %+v", m)
	}
}

func TestSendDroppedWhileDisconnected(t *testing.T) {
	c := NewChannel(func() (io.ReadWriteCloser, error) {
		return nil, errors.New("daemon not running")
	})
	c.delay = time.Hour
	c.Connect()
	defer c.Close()

	// Must return immediately instead of blocking or buffering.
	done := make(chan struct{})
	go func() {
		c.Send(protocol.BadgeUpdate(3))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with no connection")
	}
	if c.Connected() {
		t.Error("Connected() = true with failing dialer")
	}
}

func TestSendNeverBlocksOnStalledPeer(t *testing.T) {
	dial, conns := pipeDialer(t)
	c := NewChannel(dial)
	c.Connect()
	defer c.Close()

	server := <-conns
	defer server.Close()

	// The peer never reads. Identity announce and a burst well past the
	// queue size must all return promptly; the overflow is dropped.
	done := make(chan struct{})
	go func() {
		c.SetService("whatsapp")
		for i := 0; i < sendQueueSize*3; i++ {
			c.Send(protocol.BadgeUpdate(uint32(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send blocked on a peer that never reads")
	}

	// The wire still carries what was queued, ready first.
	m := readFrameTimeout(t, server)
	if m.Type != protocol.TypeReady || m.Service != "whatsapp" {
		t.Errorf("first frame = %+v", m)
	}
	m = readFrameTimeout(t, server)
	if m.Type != protocol.TypeBadgeUpdate || m.Count != 0 {
		t.Errorf("second frame = %+v", m)
	}
}
