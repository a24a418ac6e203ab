package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/updater"
)

var checkOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update loft and loftd to the latest release",
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only check, do not install")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	result, err := updater.Check()
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	if !result.Available {
		fmt.Printf("Already up to date (%s).\n", result.CurrentVersion)
		return nil
	}
	fmt.Printf("Update available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
	if checkOnly {
		fmt.Printf("Release: %s\n", result.ReleaseURL)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := installAsset(result.Release, updater.CLIAssetName(), exe); err != nil {
		return err
	}
	// The daemon binary lives next to the CLI; missing asset is not fatal.
	daemonDest := filepath.Join(filepath.Dir(exe), "loftd")
	if path, lookErr := exec.LookPath("loftd"); lookErr == nil {
		daemonDest = path
	}
	if err := installAsset(result.Release, updater.DaemonAssetName(), daemonDest); err != nil {
		fmt.Printf("Daemon binary not updated: %v\n", err)
	}

	fmt.Printf("Updated to %s. Restart running daemons to pick it up.\n", result.LatestVersion)
	return nil
}

func installAsset(release *updater.Release, name, dest string) error {
	asset := updater.FindAsset(release, name)
	if asset == nil {
		return fmt.Errorf("release has no asset %q", name)
	}
	tmp, err := updater.DownloadAsset(asset)
	if err != nil {
		return err
	}
	if err := updater.ReplaceBinary(dest, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
