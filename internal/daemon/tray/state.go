// Package tray implements the system tray icon and menu for the daemon.
package tray

// DaemonState provides read-only access plus control requests for the
// tray menu.
type DaemonState interface {
	Visible() bool
	BadgeCount() uint32
	DND() bool
	RequestShow()
	RequestHide()
	RequestQuit()
	SetDND(enabled bool)
}

// Config carries the per-service display values the tray renders.
type Config struct {
	ServiceName string
	DisplayName string
	IconPath    string // PNG/ICO file for the tray icon, optional
}
