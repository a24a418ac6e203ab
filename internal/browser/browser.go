// Package browser locates a Chrome installation and builds the
// per-service launch command.
package browser

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/service"
)

// LaunchMethod distinguishes how the detected Chrome is invoked.
type LaunchMethod int

const (
	LaunchDirect LaunchMethod = iota
	LaunchFlatpak
	LaunchAppImage
)

func (m LaunchMethod) String() string {
	switch m {
	case LaunchFlatpak:
		return "flatpak"
	case LaunchAppImage:
		return "appimage"
	default:
		return "direct"
	}
}

// Info describes a detected Chrome installation.
type Info struct {
	Path   string // executable path, or flatpak app id
	Method LaunchMethod
}

const flatpakAppID = "com.google.Chrome"

var wellKnownPaths = []string{
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/opt/google/chrome/google-chrome",
}

// Detect locates Chrome: config override first, then PATH, well-known
// locations, a flatpak install, and finally an AppImage scan.
func Detect(cfg *config.GlobalConfig) (Info, error) {
	if cfg.ChromePath != "" {
		if isExecutable(cfg.ChromePath) {
			return Info{Path: cfg.ChromePath, Method: LaunchDirect}, nil
		}
		log.Printf("[browser] configured chrome path %s is not executable, falling back to detection", cfg.ChromePath)
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return Info{Path: path, Method: LaunchDirect}, nil
		}
	}

	for _, path := range wellKnownPaths {
		if isExecutable(path) {
			return Info{Path: path, Method: LaunchDirect}, nil
		}
	}

	if err := exec.Command("flatpak", "info", flatpakAppID).Run(); err == nil {
		return Info{Path: flatpakAppID, Method: LaunchFlatpak}, nil
	}

	if path, ok := findAppImage(); ok {
		return Info{Path: path, Method: LaunchAppImage}, nil
	}

	return Info{}, fmt.Errorf("Google Chrome not found; install it and try again")
}

func findAppImage() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	for _, dir := range []string{
		filepath.Join(home, "Applications"),
		filepath.Join(home, ".local", "bin"),
	} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := strings.ToLower(e.Name())
			if !strings.Contains(name, "chrome") || !strings.HasSuffix(name, ".appimage") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if isExecutable(path) {
				return path, true
			}
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0111 != 0
}

// insideFlatpak reports whether loftd itself runs in a flatpak sandbox.
func insideFlatpak() bool {
	_, err := os.Stat("/.flatpak-info")
	return err == nil
}

// Args builds the Chrome command line for one service. The window gets
// a predictable WM class so the shell helper and desktop entries can
// address it, and an isolated profile so service sessions never mix.
//
// Chrome 137 removed --load-extension from branded builds, so the
// agent extension is loaded over the CDP pipe instead
// (--remote-debugging-pipe plus Extensions.loadUnpacked).
func Args(def *service.Definition, profileDir string) []string {
	return []string{
		"--app=" + def.URL,
		"--user-data-dir=" + profileDir,
		"--class=loft-" + def.Name,
		"--remote-debugging-pipe",
		"--enable-unsafe-extension-debugging",
		"--no-first-run",
		"--no-default-browser-check",
		"--ozone-platform=wayland",
	}
}

// Command builds the exec.Cmd for the detected Chrome and arguments.
func Command(info Info, args []string) *exec.Cmd {
	switch info.Method {
	case LaunchFlatpak:
		if insideFlatpak() {
			full := append([]string{"--host", "flatpak", "run", info.Path}, args...)
			return exec.Command("flatpak-spawn", full...)
		}
		full := append([]string{"run", info.Path}, args...)
		return exec.Command("flatpak", full...)
	default:
		return exec.Command(info.Path, args...)
	}
}

// ExtensionDir returns where the agent extension is unpacked.
func ExtensionDir() (string, error) {
	data, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "extension"), nil
}
