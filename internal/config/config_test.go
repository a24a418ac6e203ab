package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestServiceConfigRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatsapp.yaml")

	in := &ServiceConfig{Autostart: true, StartHidden: false, DoNotDisturb: true}
	if err := SaveYAML(path, in); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}

	var out ServiceConfig
	if err := LoadYAML(path, &out); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if out != *in {
		t.Errorf("got %+v, want %+v", out, *in)
	}
}

func TestServiceStateBoundsRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatsapp.yaml")

	in := &ServiceState{
		Bounds:        &Bounds{X: 120, Y: 48, Width: 1024, Height: 768},
		HintDismissed: true,
	}
	if err := SaveYAML(path, in); err != nil {
		t.Fatalf("SaveYAML: %v", err)
	}

	var out ServiceState
	if err := LoadYAML(path, &out); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if out.Bounds == nil || *out.Bounds != *in.Bounds {
		t.Errorf("bounds = %+v, want %+v", out.Bounds, in.Bounds)
	}
	if !out.HintDismissed {
		t.Error("hint_dismissed lost in roundtrip")
	}
}

func TestLoadYAMLOrDefaultAbsentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	st, err := LoadYAMLOrDefault(path, NewServiceState)
	if err != nil {
		t.Fatalf("LoadYAMLOrDefault: %v", err)
	}
	if st.Bounds != nil || st.HintDismissed {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestTolerateAbsentKeys(t *testing.T) {
	// Old state files may carry only a subset of keys.
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("hint_dismissed: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var st ServiceState
	if err := LoadYAML(path, &st); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if st.Bounds != nil {
		t.Errorf("bounds = %+v, want nil for absent key", st.Bounds)
	}
	if !st.HintDismissed {
		t.Error("hint_dismissed not read")
	}
}

func TestBoundsZero(t *testing.T) {
	if !(Bounds{}).Zero() {
		t.Error("empty bounds should be zero")
	}
	if !(Bounds{Width: 100}).Zero() {
		t.Error("bounds without height should be zero")
	}
	if (Bounds{X: -5, Y: 0, Width: 800, Height: 600}).Zero() {
		t.Error("sized bounds should not be zero")
	}
}
