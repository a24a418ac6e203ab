package manager

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/loft-chat/loft/internal/service"
)

// startDetached launches a service daemon in the background.
func startDetached(def *service.Definition) error {
	cmd := exec.Command(daemonBinary(), "--service", def.Name)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s daemon: %w", def.DisplayName, err)
	}
	return cmd.Process.Release()
}

func daemonBinary() string {
	if path, err := exec.LookPath("loftd"); err == nil {
		return path
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "loftd")
	}
	return "loftd"
}
