package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/daemon/dbusapi"
	"github.com/loft-chat/loft/internal/desktop"
	"github.com/loft-chat/loft/internal/service"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List supported services",
	Run: func(cmd *cobra.Command, args []string) {
		for _, def := range service.All {
			installed := "not installed"
			if desktop.IsInstalled(def) {
				installed = "installed"
			}
			fmt.Printf("  %-10s %s (%s)\n", def.Name, def.DisplayName, installed)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [service]",
	Short: "Show daemon status",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	defs := service.All
	if len(args) == 1 {
		def, err := resolveService(args)
		if err != nil {
			return err
		}
		defs = []*service.Definition{def}
	}

	for _, def := range defs {
		printStatus(def)
	}
	return nil
}

func printStatus(def *service.Definition) {
	fmt.Printf("%s:\n", def.DisplayName)

	if !desktop.IsInstalled(def) {
		fmt.Println("  Not installed.")
		return
	}

	running, err := dbusapi.IsRunning(def)
	if err != nil || !running {
		fmt.Println("  Installed, not running.")
		printConfig(def)
		return
	}

	client, err := dbusapi.NewClient(def)
	if err != nil {
		fmt.Printf("  Running, but unreachable: %v\n", err)
		return
	}
	defer client.Close()

	visible, badge, dnd, err := client.Status()
	if err != nil {
		fmt.Printf("  Running, but status query failed: %v\n", err)
		return
	}

	window := "hidden"
	if visible {
		window = "visible"
	}
	fmt.Printf("  Running. Window %s, %d unread, DND %s.\n",
		window, badge, onOff(dnd))

	if _, info, err := config.IsDaemonRunning(def.Name); err == nil && info != nil {
		fmt.Printf("  PID %d, up since %s.\n", info.PID, info.StartedAt.Format("15:04:05"))
	}
	printConfig(def)
}

func printConfig(def *service.Definition) {
	cfg, err := config.LoadServiceConfig(def.Name)
	if err != nil {
		return
	}
	fmt.Printf("  Autostart %s, start hidden %s.\n",
		onOff(cfg.Autostart), onOff(cfg.StartHidden))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
