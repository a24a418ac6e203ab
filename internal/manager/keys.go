package manager

import "github.com/charmbracelet/bubbles/key"

// ManagerKeys are the manager's key bindings.
type ManagerKeys struct {
	Up        key.Binding
	Down      key.Binding
	Install   key.Binding
	Start     key.Binding
	Show      key.Binding
	Autostart key.Binding
	Hidden    key.Binding
	DND       key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

var managerKeys = ManagerKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("j/k", "navigate"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/k", "navigate"),
	),
	Install: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "install/remove"),
	),
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start/stop"),
	),
	Show: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("Enter", "show/hide"),
	),
	Autostart: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "autostart"),
	),
	Hidden: key.NewBinding(
		key.WithKeys("H"),
		key.WithHelp("H", "start hidden"),
	),
	DND: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "DND"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
