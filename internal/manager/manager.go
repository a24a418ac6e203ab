// Package manager implements the interactive service manager TUI.
package manager

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/daemon/dbusapi"
	"github.com/loft-chat/loft/internal/desktop"
	"github.com/loft-chat/loft/internal/service"
)

const refreshInterval = 2 * time.Second

// Row is one service's probed state.
type Row struct {
	Def       *service.Definition
	Installed bool
	Running   bool
	Visible   bool
	Badge     uint32
	DND       bool
	Autostart bool
	Hidden    bool
}

// rowsMsg delivers a fresh probe of every service.
type rowsMsg []Row

// errMsg surfaces a failed action in the status bar.
type errMsg struct{ err error }

// flashMsg clears the transient status text.
type flashMsg struct{}

// Model is the manager TUI model.
type Model struct {
	rows   []Row
	cursor int
	width  int
	height int
	status string
	err    error

	// probe is swappable so tests can feed synthetic state.
	probe func() []Row
}

// NewModel creates the manager model with the live service probe.
func NewModel() *Model {
	return &Model{probe: probeServices}
}

// Run launches the manager TUI.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// probeServices gathers every service's desktop, config, and daemon state.
func probeServices() []Row {
	rows := make([]Row, 0, len(service.All))
	for _, def := range service.All {
		row := Row{Def: def, Installed: desktop.IsInstalled(def)}
		if cfg, err := config.LoadServiceConfig(def.Name); err == nil {
			row.Autostart = cfg.Autostart
			row.Hidden = cfg.StartHidden
			row.DND = cfg.DoNotDisturb
		}
		if running, err := dbusapi.IsRunning(def); err == nil && running {
			row.Running = true
			if client, err := dbusapi.NewClient(def); err == nil {
				if visible, badge, dnd, err := client.Status(); err == nil {
					row.Visible = visible
					row.Badge = badge
					row.DND = dnd
				}
				client.Close()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *Model) refresh() tea.Msg {
	return rowsMsg(m.probe())
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

type tickMsg struct{}

// Init starts the first probe and the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, refreshTick())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case rowsMsg:
		m.rows = msg
		if m.cursor >= len(m.rows) && len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
	case tickMsg:
		return m, tea.Batch(m.refresh, refreshTick())
	case errMsg:
		m.err = msg.err
		return m, clearAfter()
	case flashMsg:
		m.status = ""
		m.err = nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func clearAfter() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return flashMsg{}
	})
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, managerKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, managerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, managerKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, managerKeys.Install):
		return m.act("installed", func(r Row) error {
			if r.Installed {
				return desktop.Uninstall(r.Def, false)
			}
			return desktop.Install(r.Def)
		})
	case key.Matches(msg, managerKeys.Start):
		return m.act("toggled", func(r Row) error {
			if r.Running {
				return withClient(r.Def, (*dbusapi.Client).Quit)
			}
			return startDetached(r.Def)
		})
	case key.Matches(msg, managerKeys.Show):
		return m.act("shown", func(r Row) error {
			if !r.Running {
				return fmt.Errorf("%s is not running", r.Def.DisplayName)
			}
			return withClient(r.Def, (*dbusapi.Client).Toggle)
		})
	case key.Matches(msg, managerKeys.Autostart):
		return m.act("autostart", func(r Row) error {
			return setServiceFlag(r.Def, func(cfg *config.ServiceConfig) {
				cfg.Autostart = !cfg.Autostart
			}, func(cfg *config.ServiceConfig) error {
				return desktop.SetAutostart(r.Def, cfg.Autostart)
			})
		})
	case key.Matches(msg, managerKeys.Hidden):
		return m.act("start hidden", func(r Row) error {
			return setServiceFlag(r.Def, func(cfg *config.ServiceConfig) {
				cfg.StartHidden = !cfg.StartHidden
			}, nil)
		})
	case key.Matches(msg, managerKeys.DND):
		return m.act("do-not-disturb", func(r Row) error {
			return setServiceFlag(r.Def, func(cfg *config.ServiceConfig) {
				cfg.DoNotDisturb = !cfg.DoNotDisturb
			}, nil)
		})
	case key.Matches(msg, managerKeys.Refresh):
		return m, m.refresh
	}
	return m, nil
}

// act runs an action against the selected row and refreshes.
func (m *Model) act(label string, fn func(Row) error) (tea.Model, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return m, nil
	}
	row := m.rows[m.cursor]
	return m, func() tea.Msg {
		if err := fn(row); err != nil {
			return errMsg{err}
		}
		return rowsMsg(m.probe())
	}
}

// setServiceFlag loads, mutates, persists a service config, with an
// optional side effect that sees the mutated config.
func setServiceFlag(def *service.Definition, mutate func(*config.ServiceConfig), after func(*config.ServiceConfig) error) error {
	cfg, err := config.LoadServiceConfig(def.Name)
	if err != nil {
		return err
	}
	mutate(cfg)
	if err := config.SaveServiceConfig(def.Name, cfg); err != nil {
		return err
	}
	if after != nil {
		return after(cfg)
	}
	return nil
}

func withClient(def *service.Definition, call func(*dbusapi.Client) error) error {
	client, err := dbusapi.NewClient(def)
	if err != nil {
		return err
	}
	defer client.Close()
	return call(client)
}

// View renders the manager screen.
func (m *Model) View() string {
	title := titleStyle.Render("Loft services")
	header := headerRowStyle.Render(fmt.Sprintf(
		"  %-20s %-11s %-9s %-7s %-10s %-7s %s",
		"Service", "Installed", "Daemon", "Badge", "Autostart", "Hidden", "DND"))

	lines := []string{title, "", header}
	for i, row := range m.rows {
		lines = append(lines, m.renderRow(i, row))
	}
	lines = append(lines, "", m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderRow(i int, row Row) string {
	daemon := dimStyle.Render("stopped")
	if row.Running {
		if row.Visible {
			daemon = runningStyle.Render("visible")
		} else {
			daemon = runningStyle.Render("hidden")
		}
	}
	badge := "-"
	if row.Badge > 0 {
		badge = badgeStyle.Render(fmt.Sprintf("%d", row.Badge))
	}

	line := fmt.Sprintf("  %-20s %-11s %-9s %-7s %-10s %-7s %s",
		row.Def.DisplayName,
		checkbox(row.Installed),
		daemon,
		badge,
		checkbox(row.Autostart),
		checkbox(row.Hidden),
		checkbox(row.DND))

	if i == m.cursor {
		return selectedRowStyle.Render("›" + line[1:])
	}
	return line
}

func checkbox(v bool) string {
	if v {
		return onStyle.Render("yes")
	}
	return dimStyle.Render("no")
}

func (m *Model) renderStatusBar() string {
	if m.err != nil {
		return errorBarStyle.Render(" " + m.err.Error())
	}
	hints := keyHint("j/k", "navigate") + "  " +
		keyHint("i", "install/remove") + "  " +
		keyHint("s", "start/stop") + "  " +
		keyHint("Enter", "show/hide") + "  " +
		keyHint("a", "autostart") + "  " +
		keyHint("H", "start hidden") + "  " +
		keyHint("d", "DND") + "  " +
		keyHint("q", "quit")
	return " " + hints
}

func keyHint(k, desc string) string {
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}
