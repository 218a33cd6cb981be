package cli

import (
	"fmt"

	"erpconsole/internal/api"
	"erpconsole/internal/views"

	"github.com/spf13/cobra"
)

func auditCommand(c *console) *cobra.Command {
	var p api.AuditParams
	var search string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the audit trail (requires view_reports)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := views.AuditScreen.Open(app.Session.Capabilities()); err != nil {
				return err
			}
			logs, meta, err := app.API.AuditLogs.List(cmd.Context(), p)
			if err != nil {
				return err
			}

			cfg := views.AuditTable()
			cfg.PageSize = len(logs) + 1
			t := views.NewTable(cfg)
			t.SetItems(logs)
			t.SetSearch(search)
			if err := t.Render(app.out); err != nil {
				return err
			}
			if meta != nil {
				fmt.Fprintf(app.out, "entries %d-%d of %d\n", meta.Offset+1, meta.Offset+len(logs), meta.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&p.Limit, "limit", 50, "Entries per request")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "Entries to skip")
	cmd.Flags().StringVar(&p.Entity, "entity", "", "Only this entity, e.g. orders")
	cmd.Flags().StringVar(&p.EntityID, "entity-id", "", "Only this record")
	cmd.Flags().StringVar(&p.Action, "action", "", "Only this action, e.g. DELETE")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text search over the fetched entries")
	return cmd
}
