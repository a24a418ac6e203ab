package shellhelper

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// Session bus identity of the shell helper.
const (
	BusName    = "chat.loft.ShellHelper"
	ObjectPath = dbus.ObjectPath("/chat/loft/ShellHelper")
	Interface  = "chat.loft.ShellHelper"
)

const introspectXML = `
<node>
	<interface name="` + Interface + `">
		<method name="FocusWindow">
			<arg direction="in" type="s" name="wm_class"/>
			<arg direction="out" type="b" name="found"/>
		</method>
		<method name="HideWindow">
			<arg direction="in" type="s" name="wm_class"/>
			<arg direction="out" type="b" name="found"/>
		</method>
		<method name="ListWindows">
			<arg direction="out" type="a(sss)" name="windows"/>
		</method>
	</interface>` + introspect.IntrospectDataString + `</node>`

// busAPI is the exported D-Bus object. Methods return (bool, *dbus.Error)
// per godbus export conventions; compositor failures surface as D-Bus
// errors while "no such window" stays a plain false.
//
// Window operations go through the unfiltered helper; enumeration goes
// through the switcher view, so bus consumers (switcher and overview
// integrations) see hidden-to-tray windows already removed.
type busAPI struct {
	helper *Helper
	view   Compositor
}

// windowEntry is the wire shape of one listed window, a(sss) on the
// bus.
type windowEntry struct {
	ID      string
	WMClass string
	Title   string
}

func (a *busAPI) FocusWindow(wmClass string) (bool, *dbus.Error) {
	found, err := a.helper.FocusWindow(wmClass)
	if err != nil {
		log.Printf("[shell] FocusWindow(%s): %v", wmClass, err)
		return false, dbus.MakeFailedError(err)
	}
	return found, nil
}

func (a *busAPI) HideWindow(wmClass string) (bool, *dbus.Error) {
	found, err := a.helper.HideWindow(wmClass)
	if err != nil {
		log.Printf("[shell] HideWindow(%s): %v", wmClass, err)
		return false, dbus.MakeFailedError(err)
	}
	return found, nil
}

// ListWindows reports the switcher-visible window list.
func (a *busAPI) ListWindows() ([]windowEntry, *dbus.Error) {
	windows, err := a.view.ListWindows()
	if err != nil {
		log.Printf("[shell] ListWindows: %v", err)
		return nil, dbus.MakeFailedError(err)
	}
	out := make([]windowEntry, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowEntry{ID: w.ID, WMClass: w.WMClass, Title: w.Title})
	}
	return out, nil
}

// Serve exports the helper on the session bus and claims the
// well-known name. Fails when another helper instance owns it. view is
// the enumeration surface exposed to bus consumers, normally the
// installed switcher filter.
func Serve(conn *dbus.Conn, h *Helper, view Compositor) error {
	api := &busAPI{helper: h, view: view}
	if err := conn.Export(api, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export shell helper: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("shell helper already running (bus name %s taken)", BusName)
	}
	return nil
}

// Run is the --shell-helper entrypoint: session bus + wmctrl backend +
// switcher filter over the given managed WM classes, blocking until
// SIGINT/SIGTERM.
func Run(managedClasses []string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	backend := NewWMCtl()
	filter := NewSwitcherFilter(backend, managedClasses)
	filter.Install()
	defer filter.Uninstall()

	// The helper addresses windows through the unfiltered backend:
	// focusing a minimized window is its whole job, so the filter must
	// not hide targets from it. Enumeration over the bus goes through
	// the filter instead.
	if err := Serve(conn, NewHelper(backend), filter); err != nil {
		return err
	}
	log.Printf("[shell] serving %s", BusName)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

// Client calls the shell helper from the daemon. An absent helper is a
// deployment mode, not a fault; callers decide how loudly to log.
type Client struct {
	obj dbus.BusObject
}

// NewClient creates a client on an existing session bus connection.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{obj: conn.Object(BusName, ObjectPath)}
}

// FocusWindow asks the shell to focus the window with the given WM
// class. false means no such window (or no helper running).
func (c *Client) FocusWindow(wmClass string) (bool, error) {
	return c.call("FocusWindow", wmClass)
}

// HideWindow asks the shell to minimize the window with the given WM
// class.
func (c *Client) HideWindow(wmClass string) (bool, error) {
	return c.call("HideWindow", wmClass)
}

// ListWindows reports the switcher-visible windows. An absent helper
// yields an empty list.
func (c *Client) ListWindows() ([]Window, error) {
	call := c.obj.Call(Interface+".ListWindows", 0)
	if call.Err != nil {
		if isNoOwner(call.Err) {
			return nil, nil
		}
		return nil, fmt.Errorf("shell helper ListWindows failed: %w", call.Err)
	}
	var entries []windowEntry
	if err := call.Store(&entries); err != nil {
		return nil, fmt.Errorf("shell helper ListWindows returned bad reply: %w", err)
	}
	windows := make([]Window, 0, len(entries))
	for _, e := range entries {
		windows = append(windows, Window{ID: e.ID, WMClass: e.WMClass, Title: e.Title})
	}
	return windows, nil
}

func (c *Client) call(method, wmClass string) (bool, error) {
	var found bool
	call := c.obj.Call(Interface+"."+method, 0, wmClass)
	if call.Err != nil {
		if isNoOwner(call.Err) {
			return false, nil
		}
		return false, fmt.Errorf("shell helper %s failed: %w", method, call.Err)
	}
	if err := call.Store(&found); err != nil {
		return false, fmt.Errorf("shell helper %s returned bad reply: %w", method, err)
	}
	return found, nil
}

func isNoOwner(err error) bool {
	dbusErr, ok := err.(dbus.Error)
	return ok && dbusErr.Name == "org.freedesktop.DBus.Error.ServiceUnknown"
}
