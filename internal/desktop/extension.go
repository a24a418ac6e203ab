package desktop

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/loft-chat/loft/internal/browser"
	"github.com/loft-chat/loft/internal/config"
)

//go:embed extension
var extensionFS embed.FS

// DeployExtension unpacks the embedded agent extension into the data
// directory, where the daemon loads it into the browser on spawn. It
// overwrites any previous deployment so upgrades take effect.
func DeployExtension() error {
	dest, err := browser.ExtensionDir()
	if err != nil {
		return err
	}
	if err := config.EnsureDir(dest); err != nil {
		return err
	}
	sub, err := fs.Sub(extensionFS, "extension")
	if err != nil {
		return err
	}
	return fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		target := filepath.Join(dest, path)
		if d.IsDir() {
			return config.EnsureDir(target)
		}
		data, err := fs.ReadFile(sub, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}

func removeExtension() error {
	dest, err := browser.ExtensionDir()
	if err != nil {
		return err
	}
	return os.RemoveAll(dest)
}
