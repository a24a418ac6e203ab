// Package daemon implements the per-service loftd core: shared daemon
// state, the native-messaging relay socket server, and the browser
// process lifecycle loop.
package daemon

import (
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/loft-chat/loft/internal/protocol"
)

// State is the shared mutable state across all daemon components (tray,
// D-Bus service, relay server, notification service, lifecycle loop).
type State struct {
	visible atomic.Bool
	badge   atomic.Uint32
	dnd     atomic.Bool
	quit    atomic.Bool

	// startMinimized makes the relay hide the window on the first
	// window_shown after launch (`loftd --minimized`).
	startMinimized atomic.Bool

	browserPID atomic.Int64 // 0 = not running

	// show wakes the lifecycle loop out of hide-to-tray. Closed and
	// replaced on each signal so no permit is stored when nobody
	// waits: a stored permit would respawn the browser spuriously.
	showMu sync.Mutex
	show   chan struct{}

	// Broadcast of daemon→agent commands to all relay connections.
	subMu  sync.Mutex
	nextID int
	subs   map[int]chan protocol.Message
}

// NewState creates daemon state with the initial DND flag and
// start-minimized behavior.
func NewState(dnd, minimized bool) *State {
	s := &State{
		show: make(chan struct{}),
		subs: make(map[int]chan protocol.Message),
	}
	s.dnd.Store(dnd)
	s.startMinimized.Store(minimized)
	return s
}

// Visible reports whether the service window is currently visible.
func (s *State) Visible() bool { return s.visible.Load() }

// SetVisible records a visibility report from an agent.
func (s *State) SetVisible(v bool) { s.visible.Store(v) }

// BadgeCount reports the current unread count.
func (s *State) BadgeCount() uint32 { return s.badge.Load() }

// SetBadgeCount records a badge report from an agent.
func (s *State) SetBadgeCount(n uint32) { s.badge.Store(n) }

// DND reports the daemon-owned do-not-disturb flag.
func (s *State) DND() bool { return s.dnd.Load() }

// SetDND flips the DND flag and broadcasts the change to agents.
// Persisting the flag is the caller's job.
func (s *State) SetDND(enabled bool) {
	if s.dnd.Swap(enabled) == enabled {
		return
	}
	s.Broadcast(protocol.DNDChanged(enabled))
}

// QuitRequested reports whether shutdown was requested.
func (s *State) QuitRequested() bool { return s.quit.Load() }

// ConsumeStartMinimized reports the start-minimized flag and clears it,
// so only the first window_shown is countermanded.
func (s *State) ConsumeStartMinimized() bool {
	return s.startMinimized.Swap(false)
}

// SetBrowserPID records the running browser process, 0 for none.
func (s *State) SetBrowserPID(pid int) { s.browserPID.Store(int64(pid)) }

// BrowserPID reports the running browser process, 0 for none.
func (s *State) BrowserPID() int { return int(s.browserPID.Load()) }

// RequestShow makes the window visible: broadcasts show_window to
// agents and wakes the lifecycle loop in case the browser is gone.
func (s *State) RequestShow() {
	s.visible.Store(true)
	s.Broadcast(protocol.Message{Type: protocol.TypeShowWindow})
	s.signalShow()
}

// RequestHide minimizes the window via the agents.
func (s *State) RequestHide() {
	s.visible.Store(false)
	s.Broadcast(protocol.Message{Type: protocol.TypeHideWindow})
}

// RequestQuit initiates daemon shutdown: terminates the browser and
// wakes the lifecycle loop so it can observe the quit flag.
func (s *State) RequestQuit() {
	s.quit.Store(true)
	if pid := s.BrowserPID(); pid > 0 {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
	s.signalShow()
}

func (s *State) signalShow() {
	s.showMu.Lock()
	close(s.show)
	s.show = make(chan struct{})
	s.showMu.Unlock()
}

// ShowSignal returns a channel closed on the next show (or quit)
// request. Callers must re-fetch after each wakeup.
func (s *State) ShowSignal() <-chan struct{} {
	s.showMu.Lock()
	defer s.showMu.Unlock()
	return s.show
}

// Subscribe registers a daemon→agent command receiver. Slow receivers
// drop messages rather than blocking the broadcaster.
func (s *State) Subscribe() (<-chan protocol.Message, func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan protocol.Message, 16)
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers a command to every subscriber.
func (s *State) Broadcast(m protocol.Message) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- m:
		default:
		}
	}
}
