// Package shellhelper implements the desktop shell control adapter: a
// session D-Bus service that focuses and hides browser windows by WM
// class, plus the switcher filter that keeps minimized managed windows
// out of the shell's window listings.
//
// Window managers drop focus and stacking requests from unrelated
// processes; this adapter runs with shell-level access so the daemon's
// show/hide corrections actually land.
package shellhelper

import (
	"fmt"
	"os/exec"
	"strings"
)

// Window is one compositor-managed toplevel window.
type Window struct {
	ID        string // compositor handle, opaque to callers
	WMClass   string
	Title     string
	Minimized bool
}

// Compositor is the minimal window-management capability the adapter
// needs. Implementations address windows by the handle they reported
// from ListWindows.
type Compositor interface {
	ListWindows() ([]Window, error)
	Activate(id string) error
	Minimize(id string) error
	Unminimize(id string) error
}

// runner executes one external command and returns its stdout.
// Injectable so the wmctrl backend parses without the real tools.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// WMCtl is the exec-based compositor backend built on wmctrl and
// xdotool. It is deliberately thin; anything smarter belongs behind the
// Compositor interface, not in here.
type WMCtl struct {
	run runner
}

// NewWMCtl creates the exec-based backend.
func NewWMCtl() *WMCtl {
	return &WMCtl{run: execRunner}
}

// ListWindows parses `wmctrl -lx` output. Each line holds the window
// id, desktop number, WM class and host before the title; the
// minimized state comes from a per-window xprop query.
func (c *WMCtl) ListWindows() ([]Window, error) {
	out, err := c.run("wmctrl", "-lx")
	if err != nil {
		return nil, err
	}
	var windows []Window
	for _, line := range strings.Split(string(out), "\n") {
		w, ok := parseWindowLine(line)
		if !ok {
			continue
		}
		w.Minimized = c.isMinimized(w.ID)
		windows = append(windows, w)
	}
	return windows, nil
}

func parseWindowLine(line string) (Window, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Window{}, false
	}
	w := Window{ID: fields[0], WMClass: fields[2]}
	if len(fields) > 4 {
		w.Title = strings.Join(fields[4:], " ")
	}
	return w, true
}

func (c *WMCtl) isMinimized(id string) bool {
	out, err := c.run("xprop", "-id", id, "_NET_WM_STATE")
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "_NET_WM_STATE_HIDDEN")
}

// Activate raises, unminimizes and focuses the window.
func (c *WMCtl) Activate(id string) error {
	_, err := c.run("wmctrl", "-i", "-a", id)
	return err
}

// Minimize iconifies the window.
func (c *WMCtl) Minimize(id string) error {
	_, err := c.run("xdotool", "windowminimize", id)
	return err
}

// Unminimize restores the window without changing focus further than
// activation implies.
func (c *WMCtl) Unminimize(id string) error {
	return c.Activate(id)
}
