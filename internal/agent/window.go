package agent

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/loft-chat/loft/internal/config"
)

// pollInterval is the fallback cadence for querying the tracked
// window's minimized state. Focus events are not reliably delivered by
// every desktop environment; 500ms bounds CPU cost while staying under
// typical human perception of "instant".
const pollInterval = 500 * time.Millisecond

// Window lifecycle phases. Focused is an orthogonal flag, valid only in
// phaseNormal. An externally destroyed window collapses straight back
// to phaseNoWindow.
type phase int

const (
	phaseNoWindow phase = iota
	phaseNormal
	phaseMinimized
)

func (p phase) String() string {
	switch p {
	case phaseNormal:
		return "normal"
	case phaseMinimized:
		return "minimized"
	default:
		return "no-window"
	}
}

// windowEvent is one normalized external signal fed to the transition
// function. Every callback and poll result becomes one of these, so the
// machine is testable without a real window system.
type windowEvent interface{ isWindowEvent() }

type evShowRequest struct{}
type evHideRequest struct{}
type evFocusChanged struct {
	ID      WindowID
	Focused bool
}
type evBoundsChanged struct {
	ID     WindowID
	Bounds boundsValue
}
type evRemoved struct{ ID WindowID }
type evPollResult struct {
	ID        WindowID
	Minimized bool
}

func (evShowRequest) isWindowEvent()   {}
func (evHideRequest) isWindowEvent()   {}
func (evFocusChanged) isWindowEvent()  {}
func (evBoundsChanged) isWindowEvent() {}
func (evRemoved) isWindowEvent()       {}
func (evPollResult) isWindowEvent()    {}

type boundsValue = struct{ X, Y, Width, Height int }

func configBounds(b boundsValue) config.Bounds {
	return config.Bounds{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Synchronizer is the authoritative state machine for one managed
// window. It combines event-driven signals with a polling fallback and
// persists bounds so a recreated window reopens where the user left it.
//
// All events are processed on a single goroutine in arrival order;
// window-management requests from the daemon are therefore serialized.
type Synchronizer struct {
	service   string
	url       string
	prefixes  []string
	surface   WindowSurface
	store     BoundsStore
	keepAlive *KeepAlive

	// onVisibility reports level-triggered visibility upward. The
	// consumer must tolerate duplicates.
	onVisibility func(visible bool)

	events chan windowEvent
	done   chan struct{}

	// Machine state: owned by the run goroutine, never shared.
	phase      phase
	handle     WindowID
	focused    bool
	lastPolled *bool // last minimized value seen by the poll loop

	// connected gates the poll loop; set by the session from channel
	// state transitions.
	connected func() bool
}

// SynchronizerConfig carries the synchronizer's collaborators.
type SynchronizerConfig struct {
	Service string
	URL     string

	// URLPrefixes are the URL prefixes that identify the service's
	// window at adoption time. Services reachable under several hosts
	// (facebook.com and www.facebook.com) list all of them. Empty means
	// match on URL alone.
	URLPrefixes []string

	Surface      WindowSurface
	Store        BoundsStore
	KeepAlive    *KeepAlive
	OnVisibility func(visible bool)
	Connected    func() bool
}

// NewSynchronizer creates a synchronizer. Call Start to run it.
func NewSynchronizer(cfg SynchronizerConfig) *Synchronizer {
	prefixes := cfg.URLPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{cfg.URL}
	}
	return &Synchronizer{
		service:      cfg.Service,
		url:          cfg.URL,
		prefixes:     prefixes,
		surface:      cfg.Surface,
		store:        cfg.Store,
		keepAlive:    cfg.KeepAlive,
		onVisibility: cfg.OnVisibility,
		connected:    cfg.Connected,
		events:       make(chan windowEvent, 64),
		done:         make(chan struct{}),
	}
}

// Start adopts an existing window if one matches the service URL, then
// runs the event loop and poll ticker.
func (s *Synchronizer) Start() {
	s.adoptExisting()
	go s.run()
}

// Stop terminates the event loop.
func (s *Synchronizer) Stop() {
	close(s.done)
}

// RequestShow asks the synchronizer to make the window visible and
// focused, creating one if needed. Daemon-originated.
func (s *Synchronizer) RequestShow() { s.events <- evShowRequest{} }

// RequestHide asks the synchronizer to minimize the window.
// Daemon-originated.
func (s *Synchronizer) RequestHide() { s.events <- evHideRequest{} }

// NotifyFocusChanged feeds a browser focus/blur callback.
func (s *Synchronizer) NotifyFocusChanged(id WindowID, focused bool) {
	s.events <- evFocusChanged{ID: id, Focused: focused}
}

// NotifyBoundsChanged feeds a browser bounds-change callback.
func (s *Synchronizer) NotifyBoundsChanged(id WindowID, x, y, w, h int) {
	s.events <- evBoundsChanged{ID: id, Bounds: boundsValue{x, y, w, h}}
}

// NotifyRemoved feeds a browser window-removed callback.
func (s *Synchronizer) NotifyRemoved(id WindowID) {
	s.events <- evRemoved{ID: id}
}

// adoptExisting scans for a window whose content matches one of the
// service's URL prefixes. Persisted bounds take precedence over the
// window's spawn-time geometry; with nothing persisted, the current
// geometry becomes the initial saved state.
func (s *Synchronizer) adoptExisting() {
	windows, err := s.surface.Windows()
	if err != nil {
		log.Printf("[window %s] startup scan failed: %v", s.service, err)
		return
	}
	for _, w := range windows {
		if !s.matches(w.URL) {
			continue
		}
		s.handle = w.ID
		// An adopted window keeps the state it is found in.
		if w.Minimized {
			s.phase = phaseMinimized
			s.focused = false
		} else {
			s.phase = phaseNormal
			s.focused = w.Focused
		}

		saved, err := s.store.Load()
		if err != nil {
			log.Printf("[window %s] bounds load failed: %v", s.service, err)
		}
		if saved != nil && !saved.Zero() {
			if err := s.surface.SetBounds(w.ID, *saved); err != nil {
				log.Printf("[window %s] bounds restore failed: %v", s.service, err)
			}
		} else if !w.Bounds.Zero() {
			if err := s.store.Save(w.Bounds); err != nil {
				log.Printf("[window %s] bounds save failed: %v", s.service, err)
			}
		}
		return
	}
}

func (s *Synchronizer) matches(url string) bool {
	for _, p := range s.prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

func (s *Synchronizer) run() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.apply(ev)
		case <-ticker.C:
			s.poll()
		}
	}
}

// apply is the single transition function. Stale signals (a handle that
// is no longer the tracked one) are discarded here, which also covers
// async results arriving after the handle changed.
func (s *Synchronizer) apply(ev windowEvent) {
	switch ev := ev.(type) {
	case evShowRequest:
		s.show()
	case evHideRequest:
		s.hide()
	case evFocusChanged:
		if ev.ID != s.handle || s.phase != phaseNormal {
			return
		}
		s.focused = ev.Focused
		if ev.Focused {
			// Idempotent: the daemon tolerates redundant shown
			// reports without resetting badges or stealing focus.
			s.emit(true)
		}
	case evBoundsChanged:
		if ev.ID != s.handle || s.phase != phaseNormal {
			return
		}
		b := configBounds(ev.Bounds)
		if b.Zero() {
			return
		}
		if err := s.store.Save(b); err != nil {
			log.Printf("[window %s] bounds save failed: %v", s.service, err)
		}
	case evRemoved:
		if ev.ID != s.handle {
			return
		}
		s.destroyed()
	case evPollResult:
		if ev.ID != s.handle {
			return
		}
		if s.lastPolled != nil && *s.lastPolled == ev.Minimized {
			return
		}
		min := ev.Minimized
		s.lastPolled = &min
		if min {
			s.phase = phaseMinimized
			s.focused = false
		} else {
			s.phase = phaseNormal
		}
		s.emit(!min)
	}
}

func (s *Synchronizer) show() {
	if s.handle != "" {
		if err := s.surface.Show(s.handle); err == nil {
			s.phase = phaseNormal
			s.focused = true
			s.emit(true)
			return
		}
		// Stale handle: drop it and fall through to creation.
		s.dropHandle()
	}

	saved, err := s.store.Load()
	if err != nil {
		log.Printf("[window %s] bounds load failed: %v", s.service, err)
	}
	if saved != nil && saved.Zero() {
		saved = nil
	}
	w, err := s.surface.Create(s.url, saved)
	if err != nil {
		log.Printf("[window %s] window create failed: %v", s.service, err)
		return
	}
	s.handle = w.ID
	s.phase = phaseNormal
	s.focused = true
	s.lastPolled = nil
	s.emit(true)
}

func (s *Synchronizer) hide() {
	if s.handle == "" {
		// Nothing to hide; report the level anyway so the daemon
		// converges.
		s.emit(false)
		return
	}
	if err := s.surface.Minimize(s.handle); err != nil {
		s.destroyed()
		return
	}
	s.phase = phaseMinimized
	s.focused = false
	s.emit(false)
}

// destroyed handles any discovery that the tracked window is gone: the
// browser process must not exit, and a closed window reads as "hidden"
// to the daemon, whose only concern is whether the user can currently
// see the conversation.
func (s *Synchronizer) destroyed() {
	s.dropHandle()
	if s.keepAlive != nil {
		if err := s.keepAlive.EnsureAlive(); err != nil {
			log.Printf("[window %s] keep-alive failed: %v", s.service, err)
		}
	}
	s.emit(false)
}

func (s *Synchronizer) dropHandle() {
	s.handle = ""
	s.phase = phaseNoWindow
	s.focused = false
	s.lastPolled = nil
}

func (s *Synchronizer) poll() {
	if s.handle == "" || s.connected == nil || !s.connected() {
		return
	}
	id := s.handle
	w, err := s.surface.Query(id)
	if err != nil {
		if errors.Is(err, ErrStaleWindow) {
			s.apply(evRemoved{ID: id})
		}
		return
	}
	s.apply(evPollResult{ID: id, Minimized: w.Minimized})
}

func (s *Synchronizer) emit(visible bool) {
	if s.onVisibility != nil {
		s.onVisibility(visible)
	}
}
