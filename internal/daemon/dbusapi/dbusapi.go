// Package dbusapi exposes the daemon's session D-Bus control surface
// (chat.loft.<Service>) and the client side the CLI uses to drive it.
package dbusapi

import (
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/loft-chat/loft/internal/service"
)

// Interface is the control interface implemented by every service
// daemon, whatever its bus name.
const Interface = "chat.loft.Service"

// ControlState is what the exported service needs from the daemon.
type ControlState interface {
	Visible() bool
	BadgeCount() uint32
	DND() bool
	RequestShow()
	RequestHide()
	RequestQuit()
}

const introspectXML = `
<node>
	<interface name="` + Interface + `">
		<method name="Show"/>
		<method name="Hide"/>
		<method name="Toggle"/>
		<method name="Quit"/>
		<method name="GetStatus">
			<arg direction="out" type="b" name="visible"/>
			<arg direction="out" type="u" name="badge_count"/>
			<arg direction="out" type="b" name="dnd"/>
		</method>
	</interface>` + introspect.IntrospectDataString + `</node>`

type control struct {
	state ControlState
}

func (c *control) Show() *dbus.Error {
	log.Printf("[dbus] Show() called")
	c.state.RequestShow()
	return nil
}

func (c *control) Hide() *dbus.Error {
	log.Printf("[dbus] Hide() called")
	c.state.RequestHide()
	return nil
}

func (c *control) Toggle() *dbus.Error {
	log.Printf("[dbus] Toggle() called")
	if c.state.Visible() {
		c.state.RequestHide()
	} else {
		c.state.RequestShow()
	}
	return nil
}

func (c *control) Quit() *dbus.Error {
	log.Printf("[dbus] Quit() called")
	c.state.RequestQuit()
	return nil
}

func (c *control) GetStatus() (bool, uint32, bool, *dbus.Error) {
	return c.state.Visible(), c.state.BadgeCount(), c.state.DND(), nil
}

// Register exports the control service and claims the per-service bus
// name. The returned connection must stay open for the daemon's
// lifetime; closing it releases the singleton.
func Register(def *service.Definition, state ControlState) (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	path := dbus.ObjectPath(def.ObjectPath())
	if err := conn.Export(&control{state: state}, path, Interface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export control service: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(def.BusName(), dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request bus name %s: %w", def.BusName(), err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s already owned", def.BusName())
	}

	log.Printf("[dbus] registered %s at %s", def.BusName(), def.ObjectPath())
	return conn, nil
}

// IsRunning reports whether a daemon for the service owns its bus name.
func IsRunning(def *service.Definition) (bool, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, def.BusName()).Store(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to query bus name owner: %w", err)
	}
	return owned, nil
}

// Client drives a running daemon over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the daemon for one service.
func NewClient(def *service.Definition) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(def.BusName(), dbus.ObjectPath(def.ObjectPath())),
	}, nil
}

// Close releases the bus connection.
func (c *Client) Close() { c.conn.Close() }

// Show asks the daemon to show and focus the service window.
func (c *Client) Show() error { return c.call("Show") }

// Hide asks the daemon to minimize the service window.
func (c *Client) Hide() error { return c.call("Hide") }

// Toggle flips window visibility.
func (c *Client) Toggle() error { return c.call("Toggle") }

// Quit shuts the daemon down.
func (c *Client) Quit() error { return c.call("Quit") }

// Status reports the daemon's visible/badge/DND state.
func (c *Client) Status() (visible bool, badge uint32, dnd bool, err error) {
	call := c.obj.Call(Interface+".GetStatus", 0)
	if call.Err != nil {
		return false, 0, false, fmt.Errorf("GetStatus failed: %w", call.Err)
	}
	if err := call.Store(&visible, &badge, &dnd); err != nil {
		return false, 0, false, fmt.Errorf("GetStatus returned bad reply: %w", err)
	}
	return visible, badge, dnd, nil
}

func (c *Client) call(method string) error {
	if call := c.obj.Call(Interface+"."+method, 0); call.Err != nil {
		return fmt.Errorf("%s failed: %w", method, call.Err)
	}
	return nil
}
