package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/config"
)

var dndCmd = &cobra.Command{
	Use:   "dnd <service> [on|off]",
	Short: "Show or set do-not-disturb for a service",
	Long: `Show or set a service's do-not-disturb flag. The setting is written
to the service config; a running daemon picks it up immediately.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDND,
}

func runDND(cmd *cobra.Command, args []string) error {
	def, err := resolveService(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadServiceConfig(def.Name)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		fmt.Printf("%s do-not-disturb is %s.\n", def.DisplayName, onOff(cfg.DoNotDisturb))
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

	if cfg.DoNotDisturb == enable {
		fmt.Printf("%s do-not-disturb already %s.\n", def.DisplayName, onOff(enable))
		return nil
	}
	cfg.DoNotDisturb = enable
	if err := config.SaveServiceConfig(def.Name, cfg); err != nil {
		return err
	}
	fmt.Printf("%s do-not-disturb %s.\n", def.DisplayName, onOff(enable))
	return nil
}
