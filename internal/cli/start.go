package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/daemon/dbusapi"
)

var startMinimized bool

var startCmd = &cobra.Command{
	Use:   "start <service>",
	Short: "Start a service daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop <service>",
	Short: "Stop a running service daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func init() {
	startCmd.Flags().BoolVar(&startMinimized, "minimized", false,
		"start hidden in the tray without opening a window")
}

func runStart(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}

	if running, err := dbusapi.IsRunning(def); err == nil && running {
		// The daemon is the singleton; just bring its window up.
		client, err := dbusapi.NewClient(def)
		if err != nil {
			return err
		}
		defer client.Close()
		if !startMinimized {
			if err := client.Show(); err != nil {
				return err
			}
		}
		fmt.Printf("%s is already running.\n", def.DisplayName)
		return nil
	}

	daemonArgs := []string{"--service", def.Name}
	if startMinimized {
		daemonArgs = append(daemonArgs, "--minimized")
	}
	proc := exec.Command(daemonBinary(), daemonArgs...)
	proc.Stdin = nil
	proc.Stdout = nil
	proc.Stderr = nil
	if err := proc.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = proc.Process.Release()

	// Wait for the daemon to claim its bus name (max 5 seconds).
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if running, err := dbusapi.IsRunning(def); err == nil && running {
			fmt.Printf("%s started.\n", def.DisplayName)
			return nil
		}
	}
	return fmt.Errorf("daemon did not come up within timeout")
}

func runStop(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}

	running, err := dbusapi.IsRunning(def)
	if err != nil {
		return err
	}
	if !running {
		fmt.Printf("%s is not running.\n", def.DisplayName)
		return nil
	}

	client, err := dbusapi.NewClient(def)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Quit(); err != nil {
		return err
	}
	fmt.Printf("%s stopped.\n", def.DisplayName)
	return nil
}

// daemonBinary locates loftd: PATH first, then next to this binary.
func daemonBinary() string {
	if path, err := exec.LookPath("loftd"); err == nil {
		return path
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "loftd")
	}
	return "loftd"
}
