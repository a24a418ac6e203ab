package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loft-chat/loft/internal/config"
)

func startWatcher(t *testing.T) *Watcher {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func expectEvent(t *testing.T, w *Watcher, service string) {
	t.Helper()
	select {
	case ev := <-w.Events():
		if ev.Service != service {
			t.Fatalf("event for %q, want %q", ev.Service, service)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for %s", service)
	}
}

func TestWatcherEmitsServiceName(t *testing.T) {
	w := startWatcher(t)

	dir, err := config.ServicesConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "whatsapp.yaml"),
		[]byte("do_not_disturb: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	expectEvent(t, w, "whatsapp")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w := startWatcher(t)

	dir, err := config.ServicesConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	w := startWatcher(t)

	dir, err := config.ServicesConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "messenger.yaml")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("autostart: true\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	expectEvent(t, w, "messenger")
	// The burst collapses into one event.
	select {
	case ev := <-w.Events():
		t.Fatalf("burst not debounced, extra event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
