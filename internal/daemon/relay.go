package daemon

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/protocol"
)

// NotificationSink receives notification-shaped agent messages for
// daemon-side rendering.
type NotificationSink interface {
	HandleAgentNotification(m protocol.Message)
}

// RelayServer accepts native-messaging relay connections on the
// per-service unix socket and bridges them to daemon state: agent
// reports update State, broadcast commands flow back out.
type RelayServer struct {
	service  string
	state    *State
	notify   NotificationSink
	listener net.Listener
}

// NewRelayServer creates the relay server. notify may be nil when no
// daemon-side notification service runs.
func NewRelayServer(service string, state *State, notify NotificationSink) *RelayServer {
	return &RelayServer{service: service, state: state, notify: notify}
}

// Start binds the socket and accepts connections until Stop. A stale
// socket file from a crashed daemon is removed first; the singleton
// check already ruled out a live one.
func (r *RelayServer) Start() error {
	path := config.SocketPath(r.service)
	if err := config.EnsureDir(config.RuntimeDir()); err != nil {
		return err
	}
	_ = os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to bind socket %s: %w", path, err)
	}
	r.listener = listener
	log.Printf("[relay] listening on %s", path)

	go r.acceptLoop()
	return nil
}

// Stop closes the listening socket. Established connections end when
// their peers disconnect.
func (r *RelayServer) Stop() {
	if r.listener != nil {
		r.listener.Close()
	}
}

func (r *RelayServer) acceptLoop() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}
		go r.handleConn(conn)
	}
}

// handleConn serves one relay connection: a reader loop for agent
// messages plus a writer draining the command broadcast.
func (r *RelayServer) handleConn(conn net.Conn) {
	defer conn.Close()

	cmds, cancel := r.state.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			m, err := protocol.ReadFrame(conn)
			if err != nil {
				return
			}
			r.handleAgentMessage(m)
		}
	}()

	for {
		select {
		case <-done:
			return
		case m := <-cmds:
			if err := protocol.WriteFrame(conn, m); err != nil {
				return
			}
		}
	}
}

func (r *RelayServer) handleAgentMessage(m protocol.Message) {
	switch m.Type {
	case protocol.TypeReady:
		log.Printf("[relay] agent ready for service %s", m.Service)
	case protocol.TypeBadgeUpdate:
		r.state.SetBadgeCount(m.Count)
	case protocol.TypeWindowShown:
		if r.state.ConsumeStartMinimized() {
			// `--minimized` launch: countermand the first show.
			log.Printf("[relay] start minimized, hiding window")
			r.state.RequestHide()
			return
		}
		r.state.SetVisible(true)
	case protocol.TypeWindowHidden:
		r.state.SetVisible(false)
	case protocol.TypeNotification, protocol.TypeDOMNotification:
		if r.notify != nil {
			r.notify.HandleAgentNotification(m)
		}
	default:
		log.Printf("[relay] unknown message type %q from agent", m.Type)
	}
}

// RunRelay is the `loftd --relay` entrypoint, launched by the browser
// as its native-messaging host. It bridges stdio to the daemon socket
// of the service named in the first message, which must be
// ready{service}.
func RunRelay() error {
	first, err := protocol.ReadFrame(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read initial message from browser: %w", err)
	}
	if first.Type != protocol.TypeReady || first.Service == "" {
		return fmt.Errorf("first message must be %q with a service, got %q", protocol.TypeReady, first.Type)
	}

	path := config.SocketPath(first.Service)
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon socket %s: %w", path, err)
	}
	defer conn.Close()
	log.Printf("[relay] bridging stdio for service %s", first.Service)

	if err := protocol.WriteFrame(conn, first); err != nil {
		return fmt.Errorf("failed to forward initial message: %w", err)
	}

	// Forward frames both ways without decoding them; the bridge has
	// no opinions about message content past the first frame.
	done := make(chan struct{}, 2)
	go func() {
		relayFrames(os.Stdin, conn)
		done <- struct{}{}
	}()
	go func() {
		relayFrames(conn, os.Stdout)
		done <- struct{}{}
	}()
	<-done
	return nil
}

func relayFrames(src io.Reader, dst io.Writer) {
	for {
		if err := protocol.RelayFrame(src, dst); err != nil {
			return
		}
	}
}
