package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loft-chat/loft/internal/daemon/dbusapi"
	"github.com/loft-chat/loft/internal/service"
)

var showCmd = &cobra.Command{
	Use:   "show <service>",
	Short: "Show and focus a service window",
	Args:  cobra.ExactArgs(1),
	RunE:  windowCommand((*dbusapi.Client).Show),
}

var hideCmd = &cobra.Command{
	Use:   "hide <service>",
	Short: "Hide a service window to the tray",
	Args:  cobra.ExactArgs(1),
	RunE:  windowCommand((*dbusapi.Client).Hide),
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <service>",
	Short: "Toggle a service window's visibility",
	Args:  cobra.ExactArgs(1),
	RunE:  windowCommand((*dbusapi.Client).Toggle),
}

// windowCommand wraps a daemon client call with the shared
// resolve-connect-call plumbing.
func windowCommand(call func(*dbusapi.Client) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		def, err := resolveService(args)
		if err != nil {
			return err
		}
		client, err := connectRunning(def)
		if err != nil {
			return err
		}
		defer client.Close()
		return call(client)
	}
}

func connectRunning(def *service.Definition) (*dbusapi.Client, error) {
	running, err := dbusapi.IsRunning(def)
	if err != nil {
		return nil, err
	}
	if !running {
		return nil, fmt.Errorf("%s is not running (try `loft start %s`)", def.DisplayName, def.Name)
	}
	return dbusapi.NewClient(def)
}
