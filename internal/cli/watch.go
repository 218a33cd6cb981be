package cli

import (
	"fmt"
	"time"

	"erpconsole/internal/live"

	"github.com/spf13/cobra"
)

func watchCommand(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print entity changes as the backend announces them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.requireSession(); err != nil {
				return err
			}
			sub := live.New(app.API.Client, app.Cache)
			sub.OnEvent(func(ev live.Event) {
				fmt.Fprintf(app.out, "%s  %-9s %-8s %s\n", ev.At.Local().Format(time.TimeOnly), ev.Entity, ev.Action, ev.ID)
			})
			fmt.Fprintln(app.errw, "Watching for changes, press Ctrl+C to stop")
			return sub.Run(cmd.Context())
		},
	}
}
