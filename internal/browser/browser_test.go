package browser

import (
	"strings"
	"testing"

	"github.com/loft-chat/loft/internal/service"
)

func TestArgs(t *testing.T) {
	def := service.Lookup("whatsapp")
	args := Args(def, "/home/user/.local/share/loft/profiles/whatsapp")

	if args[0] != "--app=https://web.whatsapp.com/" {
		t.Errorf("args[0] = %q", args[0])
	}
	if !strings.Contains(args[1], "profiles/whatsapp") {
		t.Errorf("args[1] = %q", args[1])
	}
	if args[2] != "--class=loft-whatsapp" {
		t.Errorf("args[2] = %q", args[2])
	}
	for _, want := range []string{
		"--remote-debugging-pipe",
		"--no-first-run",
		"--no-default-browser-check",
		"--ozone-platform=wayland",
	} {
		found := false
		for _, a := range args {
			if a == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing arg %q", want)
		}
	}
}

func TestCommandDirect(t *testing.T) {
	info := Info{Path: "/usr/bin/google-chrome", Method: LaunchDirect}
	cmd := Command(info, []string{"--app=https://example.com"})
	if cmd.Path != "/usr/bin/google-chrome" {
		t.Errorf("cmd.Path = %q", cmd.Path)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "--app=https://example.com" {
		t.Errorf("cmd.Args = %v", cmd.Args)
	}
}

func TestCommandFlatpak(t *testing.T) {
	info := Info{Path: flatpakAppID, Method: LaunchFlatpak}
	cmd := Command(info, []string{"--no-first-run"})
	if !strings.HasSuffix(cmd.Path, "flatpak") {
		t.Errorf("cmd.Path = %q", cmd.Path)
	}
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "run "+flatpakAppID) {
		t.Errorf("cmd.Args = %v", cmd.Args)
	}
}

func TestLaunchMethodString(t *testing.T) {
	tests := []struct {
		m    LaunchMethod
		want string
	}{
		{LaunchDirect, "direct"},
		{LaunchFlatpak, "flatpak"},
		{LaunchAppImage, "appimage"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}
