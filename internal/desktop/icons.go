package desktop

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/service"
)

var iconClient = &http.Client{Timeout: 15 * time.Second}

// EnsureIcons makes the service's app and tray icons available locally
// and in the user's hicolor icon theme. Already-present files are kept
// so installs work offline after the first run.
func EnsureIcons(def *service.Definition) error {
	iconsDir, err := config.IconsDir()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(iconsDir); err != nil {
		return err
	}

	appIcon := filepath.Join(iconsDir, def.AppIconFilename)
	if err := fetchIcon(def.AppIconURL, appIcon); err != nil {
		return err
	}
	trayIcon := filepath.Join(iconsDir, def.TrayIconName()+".svg")
	if err := fetchIcon(def.TrayIconURL, trayIcon); err != nil {
		return err
	}

	if err := installThemeIcon(appIcon, def.AppIconName()); err != nil {
		return err
	}
	return installThemeIcon(trayIcon, def.TrayIconName())
}

func fetchIcon(url, dest string) error {
	if config.FileExists(dest) {
		return nil
	}
	resp, err := iconClient.Get(url)
	if err != nil {
		return fmt.Errorf("icon download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("icon download failed: %s returned %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return err
	}
	log.Printf("[desktop] fetched icon %s", filepath.Base(dest))
	return nil
}

// installThemeIcon copies an icon into the hicolor theme so desktop
// entries and the status notifier can reference it by name.
func installThemeIcon(src, themeName string) error {
	dir, err := themeIconDir(filepath.Ext(src))
	if err != nil {
		return err
	}
	if err := config.EnsureDir(dir); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, themeName+filepath.Ext(src)), data, 0644)
}

func themeIconDir(ext string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	size := "scalable"
	if ext != ".svg" {
		size = "48x48"
	}
	return filepath.Join(home, ".local", "share", "icons", "hicolor", size, "apps"), nil
}

func removeThemeIcons(def *service.Definition) {
	for _, name := range []string{def.AppIconName(), def.TrayIconName()} {
		for _, ext := range []string{".svg", ".png"} {
			if dir, err := themeIconDir(ext); err == nil {
				_ = os.Remove(filepath.Join(dir, name+ext))
			}
		}
	}
}
