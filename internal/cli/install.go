package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/daemon/dbusapi"
	"github.com/loft-chat/loft/internal/desktop"
)

var purgeData bool

var installCmd = &cobra.Command{
	Use:   "install <service>",
	Short: "Install a service's desktop integration",
	Long: `Install a service: fetch its icons, write the launcher and autostart
plumbing, and register the browser extension's native messaging host.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <service>",
	Short: "Remove a service's desktop integration",
	Args:  cobra.ExactArgs(1),
	RunE:  runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&purgeData, "purge", false,
		"also delete the browser profile (logs the service out)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}
	if err := desktop.Install(def); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	fmt.Printf("%s installed. Launch it from your app grid or with `loft start %s`.\n",
		def.DisplayName, def.Name)
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}

	// Stop a running daemon first so it does not recreate state.
	if running, err := dbusapi.IsRunning(def); err == nil && running {
		if client, err := dbusapi.NewClient(def); err == nil {
			_ = client.Quit()
			client.Close()
			fmt.Printf("Stopped running %s daemon.\n", def.DisplayName)
		}
	}

	if err := desktop.Uninstall(def, purgeData); err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}
	fmt.Printf("%s uninstalled.\n", def.DisplayName)
	if !purgeData {
		fmt.Println("Browser profile kept; pass --purge to delete it.")
	}
	return nil
}
