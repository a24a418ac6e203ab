// Package desktop manages the host desktop integration artifacts:
// launcher entries, the Chrome app-identity desktop file, the native
// messaging host manifest, and autostart entries.
package desktop

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/service"
)

// extensionID is the deterministic Chrome extension id derived from
// the public key in the agent extension's manifest.
const extensionID = "eofapmpkglkhhdjadegnleadgbjooljp"

// nmHostName is the native messaging host name the extension connects
// to.
const nmHostName = "chat.loft.host"

// Install sets up one service: icons, launcher entry, Chrome identity
// desktop file, native messaging host, and a default config.
func Install(def *service.Definition) error {
	if err := EnsureIcons(def); err != nil {
		log.Printf("[desktop] icon fetch failed (continuing): %v", err)
	}
	if err := writeDesktopEntry(def); err != nil {
		return err
	}
	if err := WriteChromeDesktopFile(def); err != nil {
		return err
	}
	if err := setupNMHost(); err != nil {
		return err
	}
	if err := DeployExtension(); err != nil {
		return err
	}
	if err := SetupShellHelper(); err != nil {
		return err
	}
	if !config.FileExists(mustServiceConfigFile(def.Name)) {
		if err := config.SaveServiceConfig(def.Name, config.NewServiceConfig()); err != nil {
			return err
		}
	}
	log.Printf("[desktop] installed service %s", def.DisplayName)
	return nil
}

// Uninstall removes a service's desktop artifacts. With deleteData the
// browser profile goes too; the native messaging host stays while any
// service remains installed.
func Uninstall(def *service.Definition, deleteData bool) error {
	path, err := desktopEntryPath(def)
	if err != nil {
		return err
	}
	_ = os.Remove(path)

	if alias, err := chromeDesktopPath(def); err == nil {
		_ = os.Remove(alias)
	}
	_ = SetAutostart(def, false)
	removeThemeIcons(def)
	_ = config.RemoveServiceConfig(def.Name)

	if deleteData {
		if profile, err := config.ProfileDir(def.Name); err == nil {
			_ = os.RemoveAll(profile)
			log.Printf("[desktop] removed browser profile %s", profile)
		}
	}

	if !anyServiceInstalled() {
		_ = removeNMHost()
		_ = removeExtension()
		_ = removeShellHelper()
	}

	log.Printf("[desktop] uninstalled service %s", def.DisplayName)
	return nil
}

// IsInstalled reports whether a service has a launcher entry.
func IsInstalled(def *service.Definition) bool {
	path, err := desktopEntryPath(def)
	return err == nil && config.FileExists(path)
}

func anyServiceInstalled() bool {
	for _, def := range service.All {
		if IsInstalled(def) {
			return true
		}
	}
	return false
}

func desktopEntryPath(def *service.Definition) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications",
		fmt.Sprintf("loft-%s.desktop", def.Name)), nil
}

func chromeDesktopPath(def *service.Definition) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications",
		def.WMClass+".desktop"), nil
}

func writeDesktopEntry(def *service.Definition) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	iconsDir, err := config.IconsDir()
	if err != nil {
		return err
	}

	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%[1]s
Comment=Open %[1]s via Loft
Exec=%[2]s --service %[3]s
Icon=%[4]s
Terminal=false
Categories=Network;InstantMessaging;
StartupWMClass=loft-%[3]s
`, def.DisplayName, daemonPath(exe), def.Name, filepath.Join(iconsDir, def.AppIconFilename))

	path, err := desktopEntryPath(def)
	if err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// WriteChromeDesktopFile writes a hidden desktop entry matching the
// app identity Chrome assigns in --app mode. Chrome generates its own
// with NoDisplay and no Exec line, which gives alt-tab a raw class
// name and crashes Mutter on notification activation; ours has a
// valid Exec so both work. The daemon rewrites it again after each
// browser spawn because Chrome clobbers it on launch.
func WriteChromeDesktopFile(def *service.Definition) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	iconsDir, err := config.IconsDir()
	if err != nil {
		return err
	}

	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s --service %s
Icon=%s
NoDisplay=true
`, def.DisplayName, daemonPath(exe), def.Name, filepath.Join(iconsDir, def.AppIconFilename))

	path, err := chromeDesktopPath(def)
	if err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// daemonPath maps the current executable to the loftd binary next to
// it, so entries written by the CLI launch the daemon.
func daemonPath(exe string) string {
	if filepath.Base(exe) == "loftd" {
		return exe
	}
	return filepath.Join(filepath.Dir(exe), "loftd")
}

// nmManifest is the native messaging host manifest Chrome reads.
type nmManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// setupNMHost writes the relay wrapper script and host manifest.
// Chrome launches the host binary with no arguments, so a wrapper
// passes --relay to loftd. Profiles with a custom --user-data-dir
// ignore the default manifest location, so each service profile gets
// its own copy too.
func setupNMHost() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	data, err := config.DataDir()
	if err != nil {
		return err
	}

	wrapper := filepath.Join(data, "nm-host.sh")
	if err := config.EnsureDir(data); err != nil {
		return err
	}
	script := fmt.Sprintf("#!/bin/sh\nexec \"%s\" --relay \"$@\"\n", daemonPath(exe))
	if err := os.WriteFile(wrapper, []byte(script), 0755); err != nil {
		return fmt.Errorf("failed to write relay wrapper: %w", err)
	}

	manifest, err := json.MarshalIndent(nmManifest{
		Name:           nmHostName,
		Description:    "Loft desktop integration native messaging host",
		Path:           wrapper,
		Type:           "stdio",
		AllowedOrigins: []string{fmt.Sprintf("chrome-extension://%s/", extensionID)},
	}, "", "  ")
	if err != nil {
		return err
	}

	path, err := nmManifestPath()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, manifest, 0644); err != nil {
		return fmt.Errorf("failed to write host manifest: %w", err)
	}

	for _, def := range service.All {
		profile, err := config.ProfileDir(def.Name)
		if err != nil {
			return err
		}
		dir := filepath.Join(profile, "NativeMessagingHosts")
		if err := config.EnsureDir(dir); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, nmHostName+".json"), manifest, 0644); err != nil {
			return fmt.Errorf("failed to write per-profile manifest: %w", err)
		}
	}
	return nil
}

func nmManifestPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "google-chrome", "NativeMessagingHosts",
		nmHostName+".json"), nil
}

func removeNMHost() error {
	path, err := nmManifestPath()
	if err != nil {
		return err
	}
	_ = os.Remove(path)
	data, err := config.DataDir()
	if err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(data, "nm-host.sh"))
	return nil
}

// SetAutostart writes or removes the XDG autostart entry. Autostarted
// daemons launch minimized so login does not pop windows.
func SetAutostart(def *service.Definition, enabled bool) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".config", "autostart")
	path := filepath.Join(dir, fmt.Sprintf("loft-%s.desktop", def.Name))

	if !enabled {
		if config.FileExists(path) {
			return os.Remove(path)
		}
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	if err := config.EnsureDir(dir); err != nil {
		return err
	}
	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%[1]s
Comment=%[1]s (Loft)
Exec=%[2]s --service %[3]s --minimized
Icon=%[4]s
Terminal=false
X-GNOME-Autostart-enabled=true
`, def.DisplayName, daemonPath(exe), def.Name, def.AppIconName())
	return os.WriteFile(path, []byte(content), 0644)
}

// SetupShellHelper writes the autostart entry that launches the window
// helper at login. One helper serves every installed service; the
// daemon also launches it on demand when it is not on the bus yet.
func SetupShellHelper() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not determine binary path: %w", err)
	}
	path, err := shellHelperAutostartPath()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Loft Shell Helper
Comment=Window focus helper for Loft services
Exec=%s --shell-helper
Terminal=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`, daemonPath(exe))
	return os.WriteFile(path, []byte(content), 0644)
}

func removeShellHelper() error {
	path, err := shellHelperAutostartPath()
	if err != nil {
		return err
	}
	_ = os.Remove(path)
	return nil
}

func shellHelperAutostartPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "autostart", "loft-shell-helper.desktop"), nil
}

func mustServiceConfigFile(name string) string {
	path, err := config.ServiceConfigFile(name)
	if err != nil {
		return ""
	}
	return path
}
