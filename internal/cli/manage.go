package cli

import (
	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/manager"
)

var manageCmd = &cobra.Command{
	Use:   "manage",
	Short: "Open the interactive service manager",
	Long: `Open a terminal UI to install, start, and configure services without
remembering individual subcommands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager.Run()
	},
}
