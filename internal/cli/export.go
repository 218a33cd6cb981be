package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"erpconsole/internal/export"
	"erpconsole/internal/rbac"
	"erpconsole/internal/views"

	"github.com/spf13/cobra"
)

func exportCommand(c *console) *cobra.Command {
	var f listFlags
	var output string
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd := &cobra.Command{
		Use:       "export <entity>",
		Short:     "Write an entity table to an xlsx workbook (requires view_reports)",
		Example:   `  erpconsole export invoices --filter posted --sort -total -o invoices.xlsx`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.requireSession(); err != nil {
				return err
			}
			caps := app.Session.Capabilities()
			if !caps.Has(rbac.PermViewReports) {
				return &views.AccessDeniedError{Screen: "Export", Role: caps.Role}
			}

			headers, rows, err := exporters[args[0]].exportRows(cmd.Context(), app, f)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = args[0] + ".xlsx"
			}
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := export.WriteXLSX(file, args[0], headers, rows); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", path, err)
			}
			fmt.Fprintf(app.out, "Exported %d rows to %s\n", len(rows), path)
			return nil
		},
	}
	f.register(cmd, nil)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Workbook path (default <entity>.xlsx)")
	cmd.Long = "Export one of: " + strings.Join(names, ", ") + ".\nThe table flags filter and sort the rows before they are written; --page is ignored."
	return cmd
}
