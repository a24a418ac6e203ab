package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/desktop"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart <service> [on|off]",
	Short: "Show or set login autostart for a service",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAutostart,
}

func runAutostart(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadServiceConfig(def.Name)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		fmt.Printf("%s autostart is %s.\n", def.DisplayName, onOff(cfg.Autostart))
		return nil
	}

	var enable bool
	switch args[1] {
	case "on":
		enable = true
	case "off":
		enable = false
	default:
		return fmt.Errorf("expected on or off, got %q", args[1])
	}

	if err := desktop.SetAutostart(def, enable); err != nil {
		return err
	}
	cfg.Autostart = enable
	if err := config.SaveServiceConfig(def.Name, cfg); err != nil {
		return err
	}
	fmt.Printf("%s autostart %s.\n", def.DisplayName, onOff(enable))
	return nil
}
