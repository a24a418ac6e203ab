package agent

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/protocol"
	"github.com/loft-chat/loft/internal/service"
)

// sandboxState points the persisted service state at a throwaway
// directory so session tests never touch the real config tree.
func sandboxState(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
}

// safeSurface wraps fakeSurface for cross-goroutine use: the
// synchronizer loop mutates it while the test inspects it.
type safeSurface struct {
	mu    sync.Mutex
	inner *fakeSurface
}

func newSafeSurface() *safeSurface {
	return &safeSurface{inner: newFakeSurface()}
}

func (s *safeSurface) Windows() ([]WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Windows()
}

func (s *safeSurface) Query(id WindowID) (WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Query(id)
}

func (s *safeSurface) Show(id WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Show(id)
}

func (s *safeSurface) Minimize(id WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Minimize(id)
}

func (s *safeSurface) SetBounds(id WindowID, b config.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.SetBounds(id, b)
}

func (s *safeSurface) Create(url string, b *config.Bounds) (WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Create(url, b)
}

func (s *safeSurface) createdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.created
}

func (s *safeSurface) snapshot() []WindowInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, _ := s.inner.Windows()
	return out
}

// safeNavigator records navigations for cross-goroutine inspection.
type safeNavigator struct {
	mu        sync.Mutex
	navigated []string
}

func (n *safeNavigator) ActivateConversationLink(ref string) bool { return false }

func (n *safeNavigator) NavigateTo(url string) {
	n.mu.Lock()
	n.navigated = append(n.navigated, url)
	n.mu.Unlock()
}

func (n *safeNavigator) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.navigated...)
}

func waitUntil(t *testing.T, what string, cond func() bool) {
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

// readUntilType drains frames until one of the wanted type arrives.
// The poll loop may interleave repeated visibility reports, which the
// daemon side tolerates.
func readUntilType(t *testing.T, conn net.Conn, typ string) protocol.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m := readFrameTimeout(t, conn)
		if m.Type == typ {
			return m
		}
	}
	t.Fatalf("no %s frame received", typ)
	return protocol.Message{}
}

func startTestSession(t *testing.T) (*Session, net.Conn, *safeSurface, *safeNavigator) {
	t.Helper()
	sandboxState(t)
	dial, conns := pipeDialer(t)
	surface := newSafeSurface()
	nav := &safeNavigator{}

	sess := NewSession(SessionConfig{
		Service:   &service.WhatsApp,
		Dial:      dial,
		Surface:   surface,
		Notifier:  &fakeNotifier{},
		Navigator: nav,
	})
	if sess.ID == "" {
		t.Fatal("session has no id")
	}
	sess.Start()
	t.Cleanup(sess.Stop)

	server := <-conns
	t.Cleanup(func() { server.Close() })

	m := readFrameTimeout(t, server)
	if m.Type != protocol.TypeReady || m.Service != "whatsapp" {
		t.Fatalf("announce = %+v", m)
	}
	return sess, server, surface, nav
}

func TestSessionShowCreatesWindowAndReportsShown(t *testing.T) {
	_, server, surface, _ := startTestSession(t)

	if err := protocol.WriteFrame(server, protocol.Message{Type: protocol.TypeShowWindow}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	readUntilType(t, server, protocol.TypeWindowShown)
	if got := surface.createdCount(); got != 1 {
		t.Errorf("created %d windows, want 1", got)
	}
	windows := surface.snapshot()
	if len(windows) != 1 || windows[0].URL != service.WhatsApp.URL {
		t.Errorf("windows = %+v", windows)
	}
}

func TestSessionHideMinimizesAndReportsHidden(t *testing.T) {
	_, server, surface, _ := startTestSession(t)

	if err := protocol.WriteFrame(server, protocol.Message{Type: protocol.TypeShowWindow}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	readUntilType(t, server, protocol.TypeWindowShown)

	if err := protocol.WriteFrame(server, protocol.Message{Type: protocol.TypeHideWindow}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	readUntilType(t, server, protocol.TypeWindowHidden)

	windows := surface.snapshot()
	if len(windows) != 1 || !windows[0].Minimized {
		t.Errorf("windows = %+v, want one minimized", windows)
	}
}

func TestSessionRoutesDNDToPipeline(t *testing.T) {
	sess, server, _, _ := startTestSession(t)

	if sess.Pipeline.DND() {
		t.Fatal("DND enabled at start")
	}
	if err := protocol.WriteFrame(server, protocol.DNDChanged(true)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	waitUntil(t, "DND flag", sess.Pipeline.DND)
}

func TestSessionRoutesConversationNavigation(t *testing.T) {
	_, server, _, nav := startTestSession(t)

	m := protocol.Message{
		Type: protocol.TypeNavigateToConversation,
		URL:  "https://web.whatsapp.com/accept?code=x",
	}
	if err := protocol.WriteFrame(server, m); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	waitUntil(t, "navigation", func() bool { return len(nav.all()) == 1 })
	if got := nav.all()[0]; got != m.URL {
		t.Errorf("navigated to %q, want %q", got, m.URL)
	}
}

func TestSessionReportsBadgeChanges(t *testing.T) {
	sess, server, _, _ := startTestSession(t)

	sess.Badges.Evaluate("(4) WhatsApp")
	m := readUntilType(t, server, protocol.TypeBadgeUpdate)
	if m.Count != 4 {
		t.Errorf("count = %d, want 4", m.Count)
	}
}
