package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"erpconsole/internal/api"
	"erpconsole/internal/querycache"
	"erpconsole/internal/rbac"
	"erpconsole/internal/views"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// listFlags are the table controls shared by list and export.
type listFlags struct {
	search         string
	filter         string
	sort           string
	page           int
	includeDeleted bool
}

func (f *listFlags) register(cmd *cobra.Command, categories []string) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Case-insensitive text search")
	help := "Show only rows in this category"
	if len(categories) > 0 {
		help += " (" + strings.Join(categories, ", ") + ")"
	}
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", help)
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort by column key; prefix with - for descending")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().BoolVar(&f.includeDeleted, "include-deleted", false, "Include soft-deleted records")
}

func (f listFlags) apply(t interface {
	SetSearch(string)
	SetFilter(string)
	SortBy(string)
	SetPage(int)
}) {
	t.SetSearch(f.search)
	t.SetFilter(f.filter)
	if key := strings.TrimPrefix(f.sort, "-"); key != "" {
		t.SortBy(key)
		if strings.HasPrefix(f.sort, "-") {
			t.SortBy(key)
		}
	}
	t.SetPage(f.page)
}

// cacheKey keeps lists with and without soft-deleted rows apart.
func (f listFlags) cacheKey(entity string) string {
	if f.includeDeleted {
		return querycache.DeletedListKey(entity)
	}
	return querycache.ListKey(entity)
}

// entity describes one CRUD screen: T is the record, C the create form and U
// the edit form.
type entity[T, C, U any] struct {
	screen     views.Screen
	singular   string
	table      func() views.TableConfig[T]
	resource   func(*api.API) *api.Resource[T, C, U]
	id         func(*T) uuid.UUID
	createRule views.Rule[C]
	updateRule views.Rule[U]
}

func (e entity[T, C, U]) command(c *console, extra ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.screen.Entity,
		Short: "Manage " + strings.ToLower(e.screen.Name),
	}
	cmd.AddCommand(e.listCommand(c), e.getCommand(c), e.createCommand(c), e.updateCommand(c), e.deleteCommand(c))
	cmd.AddCommand(extra...)
	return cmd
}

// open gates the screen and loads the full list through the cache.
func (e entity[T, C, U]) open(ctx context.Context, app *App, f listFlags) (*views.List[T], error) {
	if err := app.requireSession(); err != nil {
		return nil, err
	}
	cfg := e.table()
	cfg.PageSize = app.Config.PageSize
	res := e.resource(app.API)
	list, err := views.OpenListAt(ctx, e.screen, f.cacheKey(e.screen.Entity), app.Session.Capabilities(), app.Cache, cfg, func(ctx context.Context) ([]T, error) {
		return res.ListAll(ctx, api.ListParams{IncludeDeleted: f.includeDeleted})
	})
	if err != nil {
		return nil, err
	}
	f.apply(list.Table)
	return list, nil
}

func (e entity[T, C, U]) listCommand(c *console) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + strings.ToLower(e.screen.Name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.open(cmd.Context(), c.app, f)
			if err != nil {
				return err
			}
			return list.Table.Render(c.app.out)
		},
	}
	f.register(cmd, e.table().Categories)
	return cmd
}

// exportRows loads the filtered and sorted table for the spreadsheet export.
func (e entity[T, C, U]) exportRows(ctx context.Context, app *App, f listFlags) ([]string, [][]string, error) {
	list, err := e.open(ctx, app, f)
	if err != nil {
		return nil, nil, err
	}
	return list.Table.Headers(), list.Table.Cells(list.Table.Filtered()), nil
}

func (e entity[T, C, U]) getCommand(c *console) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + e.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := e.screen.Open(app.Session.Capabilities()); err != nil {
				return err
			}
			res := e.resource(app.API)
			rec, err := querycache.Fetch(cmd.Context(), app.Cache, querycache.ItemKey(e.screen.Entity, id.String()), func(ctx context.Context) (*T, error) {
				return res.Get(ctx, id)
			})
			if err != nil {
				return err
			}
			return printJSON(app.out, rec)
		},
	}
}

func (e entity[T, C, U]) dialog(app *App) *views.Dialog[T, C, U] {
	return views.NewDialog[T, C, U](e.screen.Entity, e.resource(app.API), app.Cache, e.createRule, e.updateRule)
}

func (e entity[T, C, U]) createCommand(c *console) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + e.singular + " from a JSON form",
		Example: fmt.Sprintf(`  erpconsole %s create --data '{"name": "Acme"}'
  erpconsole %s create --file form.json`, e.screen.Entity, e.screen.Entity),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := e.screen.Require(app.Session.Capabilities(), rbac.PermCreate); err != nil {
				return err
			}
			var form C
			if err := readForm(app, data, file, &form); err != nil {
				return err
			}
			rec, err := e.dialog(app).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Created %s %s\n", e.singular, e.id(rec))
			return nil
		},
	}
	formFlags(cmd, &data, &file)
	return cmd
}

func (e entity[T, C, U]) updateCommand(c *console) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Save a JSON form over a " + e.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := e.screen.Require(app.Session.Capabilities(), rbac.PermEdit); err != nil {
				return err
			}
			var form U
			if err := readForm(app, data, file, &form); err != nil {
				return err
			}
			if _, err := e.dialog(app).Update(cmd.Context(), id, form); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Updated %s %s\n", e.singular, id)
			return nil
		},
	}
	formFlags(cmd, &data, &file)
	return cmd
}

func (e entity[T, C, U]) deleteCommand(c *console) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + e.singular + " after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := e.screen.Require(app.Session.Capabilities(), rbac.PermDelete); err != nil {
				return err
			}
			confirm := promptConfirmer{in: app.in, out: app.errw, assumeYes: yes}
			deleted, err := views.ConfirmDelete(cmd.Context(), confirm, e.resource(app.API), app.Cache, e.screen.Entity, id, e.singular+" "+id.String())
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(app.out, "Cancelled")
				return nil
			}
			fmt.Fprintf(app.out, "Deleted %s %s\n", e.singular, id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func formFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "Form as inline JSON")
	cmd.Flags().StringVar(file, "file", "", "Read the form from a JSON file, - for stdin")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
	cmd.MarkFlagsOneRequired("data", "file")
}

// readForm decodes the JSON form, rejecting unknown fields.
func readForm(app *App, data, file string, out interface{}) error {
	var r io.Reader
	switch {
	case data != "":
		r = strings.NewReader(data)
	case file == "-":
		r = app.in
	default:
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open form: %w", err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
