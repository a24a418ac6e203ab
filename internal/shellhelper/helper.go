package shellhelper

import (
	"log"
	"sync"
)

// Helper implements the shell-side window operations by WM class.
// Addressing is by class rather than handle because the caller (the
// daemon) never sees compositor handles; "no such window" is a routine
// false, not an error.
type Helper struct {
	comp Compositor
}

// NewHelper creates a helper over the given compositor capability.
func NewHelper(comp Compositor) *Helper {
	return &Helper{comp: comp}
}

// FocusWindow raises and focuses the first window with the given WM
// class, unminimizing it if needed. Returns false when no window with
// that class exists.
func (h *Helper) FocusWindow(wmClass string) (bool, error) {
	w, ok, err := h.find(wmClass)
	if err != nil || !ok {
		return false, err
	}
	if w.Minimized {
		if err := h.comp.Unminimize(w.ID); err != nil {
			return false, err
		}
	}
	if err := h.comp.Activate(w.ID); err != nil {
		return false, err
	}
	return true, nil
}

// HideWindow minimizes the first window with the given WM class.
// Returns false when no window with that class exists.
func (h *Helper) HideWindow(wmClass string) (bool, error) {
	w, ok, err := h.find(wmClass)
	if err != nil || !ok {
		return false, err
	}
	if w.Minimized {
		return true, nil
	}
	if err := h.comp.Minimize(w.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (h *Helper) find(wmClass string) (Window, bool, error) {
	windows, err := h.comp.ListWindows()
	if err != nil {
		return Window{}, false, err
	}
	for _, w := range windows {
		if w.WMClass == wmClass {
			return w, true, nil
		}
	}
	return Window{}, false, nil
}

// SwitcherFilter decorates a compositor's window enumeration: while
// installed, minimized windows whose WM class is managed are excluded
// from listings, keeping hidden-to-tray windows out of the switcher
// and overview. It wraps list-building continuously rather than
// patching state once, so windows minimized later are covered too.
type SwitcherFilter struct {
	inner   Compositor
	managed map[string]bool

	mu        sync.Mutex
	installed bool
}

// NewSwitcherFilter creates the filter for the given managed WM
// classes. It starts uninstalled.
func NewSwitcherFilter(inner Compositor, managedClasses []string) *SwitcherFilter {
	managed := make(map[string]bool, len(managedClasses))
	for _, c := range managedClasses {
		managed[c] = true
	}
	return &SwitcherFilter{inner: inner, managed: managed}
}

// Install activates the filter.
func (f *SwitcherFilter) Install() {
	f.mu.Lock()
	f.installed = true
	f.mu.Unlock()
	log.Printf("[shell] switcher filter installed for %d classes", len(f.managed))
}

// Uninstall restores unfiltered enumeration.
func (f *SwitcherFilter) Uninstall() {
	f.mu.Lock()
	f.installed = false
	f.mu.Unlock()
	log.Printf("[shell] switcher filter uninstalled")
}

// Installed reports whether the filter is active.
func (f *SwitcherFilter) Installed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installed
}

// ListWindows delegates to the wrapped compositor, dropping minimized
// managed windows while installed.
func (f *SwitcherFilter) ListWindows() ([]Window, error) {
	windows, err := f.inner.ListWindows()
	if err != nil {
		return nil, err
	}
	if !f.Installed() {
		return windows, nil
	}
	filtered := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Minimized && f.managed[w.WMClass] {
			continue
		}
		filtered = append(filtered, w)
	}
	return filtered, nil
}

func (f *SwitcherFilter) Activate(id string) error   { return f.inner.Activate(id) }
func (f *SwitcherFilter) Minimize(id string) error   { return f.inner.Minimize(id) }
func (f *SwitcherFilter) Unminimize(id string) error { return f.inner.Unminimize(id) }
