package daemon

import (
	"net"
	"testing"
	"time"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/protocol"
)

type recordingSink struct {
	got chan protocol.Message
}

func (r *recordingSink) HandleAgentNotification(m protocol.Message) { r.got <- m }

// startRelay binds a relay server on a throwaway runtime dir and dials
// one agent connection into it.
func startRelay(t *testing.T, state *State, sink NotificationSink) net.Conn {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	srv := NewRelayServer("whatsapp", state, sink)
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Stop)

	conn, err := net.Dial("unix", config.SocketPath("whatsapp"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn net.Conn, m protocol.Message) {
	t.Helper()
	if err := protocol.WriteFrame(conn, m); err != nil {
		t.Fatal(err)
	}
}

func recvFrame(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	m, err := protocol.ReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRelayUpdatesBadge(t *testing.T) {
	state := NewState(false, false)
	conn := startRelay(t, state, nil)

	send(t, conn, protocol.Message{Type: protocol.TypeReady, Service: "whatsapp"})
	send(t, conn, protocol.BadgeUpdate(7))

	waitFor(t, func() bool { return state.BadgeCount() == 7 }, "badge update")
}

func TestRelayTracksVisibility(t *testing.T) {
	state := NewState(false, false)
	conn := startRelay(t, state, nil)

	send(t, conn, protocol.Message{Type: protocol.TypeWindowShown})
	waitFor(t, state.Visible, "window shown")

	send(t, conn, protocol.Message{Type: protocol.TypeWindowHidden})
	waitFor(t, func() bool { return !state.Visible() }, "window hidden")
}

func TestRelayCountermandsFirstShowWhenMinimized(t *testing.T) {
	state := NewState(false, true)
	conn := startRelay(t, state, nil)

	send(t, conn, protocol.Message{Type: protocol.TypeWindowShown})

	// The daemon answers the first show with a hide command.
	m := recvFrame(t, conn)
	if m.Type != protocol.TypeHideWindow {
		t.Fatalf("expected hide_window, got %q", m.Type)
	}
	if state.Visible() {
		t.Fatal("window should stay hidden on minimized start")
	}

	// The second show sticks.
	send(t, conn, protocol.Message{Type: protocol.TypeWindowShown})
	waitFor(t, state.Visible, "second window shown")
}

func TestRelayForwardsBroadcasts(t *testing.T) {
	state := NewState(false, false)
	conn := startRelay(t, state, nil)

	// Connection subscription races the broadcast; make sure it is up.
	send(t, conn, protocol.Message{Type: protocol.TypeReady, Service: "whatsapp"})
	waitFor(t, func() bool {
		state.subMu.Lock()
		defer state.subMu.Unlock()
		return len(state.subs) > 0
	}, "relay subscription")

	state.RequestShow()
	m := recvFrame(t, conn)
	if m.Type != protocol.TypeShowWindow {
		t.Fatalf("expected show_window, got %q", m.Type)
	}
}

func TestRelayRoutesNotifications(t *testing.T) {
	state := NewState(false, false)
	sink := &recordingSink{got: make(chan protocol.Message, 1)}
	conn := startRelay(t, state, sink)

	send(t, conn, protocol.Message{
		Type:   protocol.TypeDOMNotification,
		Sender: "Alice",
		Body:   "hello",
		Href:   "/t/42",
	})

	select {
	case m := <-sink.got:
		if m.Sender != "Alice" || m.Href != "/t/42" {
			t.Fatalf("notification mangled: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never reached the sink")
	}
}
