package daemon

import (
	"testing"
	"time"

	"github.com/loft-chat/loft/internal/protocol"
)

func TestSetDNDBroadcastsOnlyOnChange(t *testing.T) {
	s := NewState(false, false)
	cmds, cancel := s.Subscribe()
	defer cancel()

	s.SetDND(true)
	select {
	case m := <-cmds:
		if m.Type != protocol.TypeDNDChanged || !m.Enabled {
			t.Fatalf("unexpected broadcast %+v", m)
		}
	default:
		t.Fatal("no broadcast for DND change")
	}

	// Same value again is silent.
	s.SetDND(true)
	select {
	case m := <-cmds:
		t.Fatalf("redundant broadcast %+v", m)
	default:
	}
}

func TestRequestShowWakesWaiter(t *testing.T) {
	s := NewState(false, false)
	sig := s.ShowSignal()

	s.RequestShow()
	select {
	case <-sig:
	case <-time.After(time.Second):
		t.Fatal("show signal not delivered")
	}
	if !s.Visible() {
		t.Fatal("visible not set by RequestShow")
	}

	// No stored permit: a fresh channel does not fire for the old signal.
	select {
	case <-s.ShowSignal():
		t.Fatal("stale show permit leaked into new channel")
	default:
	}
}

func TestRequestQuitWakesWaiter(t *testing.T) {
	s := NewState(false, false)
	sig := s.ShowSignal()

	s.RequestQuit()
	select {
	case <-sig:
	case <-time.After(time.Second):
		t.Fatal("quit did not wake the lifecycle waiter")
	}
	if !s.QuitRequested() {
		t.Fatal("quit flag not set")
	}
}

func TestConsumeStartMinimizedOnlyOnce(t *testing.T) {
	s := NewState(false, true)
	if !s.ConsumeStartMinimized() {
		t.Fatal("first consume should report true")
	}
	if s.ConsumeStartMinimized() {
		t.Fatal("second consume should report false")
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	s := NewState(false, false)
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()

	s.RequestHide()
	for _, ch := range []<-chan protocol.Message{a, b} {
		select {
		case m := <-ch:
			if m.Type != protocol.TypeHideWindow {
				t.Fatalf("unexpected command %+v", m)
			}
		default:
			t.Fatal("subscriber missed broadcast")
		}
	}

	// Cancelled subscribers stop receiving.
	cancelB()
	s.RequestHide()
	select {
	case m := <-b:
		t.Fatalf("cancelled subscriber got %+v", m)
	default:
	}
}
