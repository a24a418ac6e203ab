// Package cli implements the loft CLI commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "loft",
	Short: "Desktop integration for browser-hosted messaging services",
	Long: `Loft runs WhatsApp Web and Facebook Messenger as desktop apps:
dedicated windows, tray icons, native notifications, and per-service
do-not-disturb, all backed by a per-service daemon.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(dndCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(manageCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveService maps a positional service argument to its definition.
func resolveService(args []string) (*service.Definition, error) {
	def := service.Lookup(args[0])
	if def == nil {
		return nil, fmt.Errorf("unknown service %q (available: %v)", args[0], service.Names())
	}
	return def, nil
}
