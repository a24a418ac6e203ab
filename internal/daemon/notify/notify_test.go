package notify

import (
	"testing"

	"github.com/esiqveland/notify"

	"github.com/loft-chat/loft/internal/protocol"
	"github.com/loft-chat/loft/internal/service"
)

type fakeState struct {
	dnd       bool
	showCalls int
	broadcast []protocol.Message
}

func (f *fakeState) DND() bool                    { return f.dnd }
func (f *fakeState) RequestShow()                 { f.showCalls++ }
func (f *fakeState) Broadcast(m protocol.Message) { f.broadcast = append(f.broadcast, m) }

func newTestService(state *fakeState) *Service {
	return New(nil, service.Lookup("messenger"), state, "")
}

func TestDNDSuppressesDaemonSide(t *testing.T) {
	state := &fakeState{dnd: true}
	s := newTestService(state)

	// With DND on, the message is dropped before any rendering path.
	s.HandleAgentNotification(protocol.Message{
		Type: protocol.TypeDOMNotification, Sender: "Alice", Body: "hi", Href: "/t/1",
	})
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", s.PendingCount())
	}
}

func TestEmptyNotificationDropped(t *testing.T) {
	s := newTestService(&fakeState{})
	s.HandleAgentNotification(protocol.Message{Type: protocol.TypeNotification})
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", s.PendingCount())
	}
}

func TestClickRoutesToConversation(t *testing.T) {
	state := &fakeState{}
	s := newTestService(state)
	s.pending[7] = &Pending{Ref: "/t/42"}

	s.onAction(&notify.ActionInvokedSignal{ID: 7, ActionKey: defaultActionKey})

	if state.showCalls != 1 {
		t.Errorf("show calls = %d, want 1", state.showCalls)
	}
	if len(state.broadcast) != 1 {
		t.Fatalf("broadcast = %v", state.broadcast)
	}
	m := state.broadcast[0]
	if m.Type != protocol.TypeNavigateToConversation {
		t.Errorf("broadcast type = %q", m.Type)
	}
	if m.URL != "https://facebook.com/messages/t/42" {
		t.Errorf("broadcast url = %q", m.URL)
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d after click, want 0", s.PendingCount())
	}
}

func TestClickWithoutRefOnlyShows(t *testing.T) {
	state := &fakeState{}
	s := newTestService(state)
	s.pending[3] = &Pending{Sender: "Alice"}

	s.onAction(&notify.ActionInvokedSignal{ID: 3, ActionKey: defaultActionKey})

	if state.showCalls != 1 {
		t.Errorf("show calls = %d, want 1", state.showCalls)
	}
	if len(state.broadcast) != 0 {
		t.Errorf("broadcast = %v, want none", state.broadcast)
	}
}

func TestUnknownActionIgnored(t *testing.T) {
	state := &fakeState{}
	s := newTestService(state)
	s.pending[3] = &Pending{Ref: "/t/1"}

	s.onAction(&notify.ActionInvokedSignal{ID: 3, ActionKey: "inline-reply"})
	if state.showCalls != 0 || s.PendingCount() != 1 {
		t.Errorf("non-default action routed: shows=%d pending=%d", state.showCalls, s.PendingCount())
	}
}

func TestClosedDropsPending(t *testing.T) {
	s := newTestService(&fakeState{})
	s.pending[9] = &Pending{Ref: "/t/1"}

	s.onClosed(&notify.NotificationClosedSignal{ID: 9})
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", s.PendingCount())
	}
}

func TestConversationURL(t *testing.T) {
	tests := []struct{ base, ref, want string }{
		{"https://www.messenger.com/", "/t/1", "https://www.messenger.com/t/1"},
		{"https://www.messenger.com", "t/1", "https://www.messenger.com/t/1"},
		{"https://web.whatsapp.com/", "https://web.whatsapp.com/x", "https://web.whatsapp.com/x"},
	}
	for _, tt := range tests {
		if got := conversationURL(tt.base, tt.ref); got != tt.want {
			t.Errorf("conversationURL(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
