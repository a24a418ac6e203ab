package manager

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loft-chat/loft/internal/service"
)

func testRows() []Row {
	return []Row{
		{Def: &service.WhatsApp, Installed: true, Running: true, Visible: true, Badge: 3},
		{Def: &service.Messenger, Installed: false},
	}
}

func newTestModel() *Model {
	m := NewModel()
	m.probe = testRows
	m.rows = testRows()
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorMovement(t *testing.T) {
	m := newTestModel()

	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d", m.cursor)
	}
	m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Fatalf("cursor after j = %d", m.cursor)
	}
	// Does not run off the end.
	m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Fatalf("cursor ran past last row: %d", m.cursor)
	}
	m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Fatalf("cursor after k = %d", m.cursor)
	}
	m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Fatalf("cursor ran past first row: %d", m.cursor)
	}
}

func TestRowsMsgClampsCursor(t *testing.T) {
	m := newTestModel()
	m.cursor = 1

	m.Update(rowsMsg{{Def: &service.WhatsApp}})
	if m.cursor != 0 {
		t.Fatalf("cursor not clamped: %d", m.cursor)
	}
}

func TestViewShowsServiceState(t *testing.T) {
	m := newTestModel()
	view := m.View()

	for _, want := range []string{"WhatsApp", "Facebook Messenger", "visible", "stopped", "3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewShowsError(t *testing.T) {
	m := newTestModel()
	m.Update(errMsg{err: errTest})

	if !strings.Contains(m.View(), "probe exploded") {
		t.Errorf("view does not surface the error")
	}
	m.Update(flashMsg{})
	if strings.Contains(m.View(), "probe exploded") {
		t.Errorf("error not cleared by flash")
	}
}

var errTest = &probeError{}

type probeError struct{}

func (*probeError) Error() string { return "probe exploded" }

func TestQuitKey(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit: %T", cmd())
	}
}

func TestActionRefreshesRows(t *testing.T) {
	m := newTestModel()
	m.rows = nil

	// Out-of-range cursor is a no-op.
	_, cmd := m.handleKey(keyMsg("d"))
	if cmd != nil {
		t.Fatal("action on empty row list should be a no-op")
	}
}
