package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"erpconsole/internal/apiclient"
	"erpconsole/internal/logger"
	"erpconsole/internal/views"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// console builds the App once per invocation, before the first command runs.
type console struct {
	opts Options
	app  *App
}

func (c *console) prepare(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}
	app, err := newApp(cmd.Context(), c.opts)
	if err != nil {
		return err
	}
	if c.opts.Config == nil {
		if err := logger.Setup(app.Config.Log); err != nil {
			return fmt.Errorf("logger setup: %w", err)
		}
	}
	c.app = app
	return nil
}

// NewRootCommand assembles the console command tree.
func NewRootCommand(opts Options) *cobra.Command {
	c := &console{opts: opts}

	root := &cobra.Command{
		Use:   "erpconsole",
		Short: "Operator console for the ERP backend",
		Long: `erpconsole signs in to the ERP backend and manages customers, products,
orders, invoices, payments and users from the terminal.

The backend address comes from ERP_API_URL (default http://localhost:8080/api/v1).
The session is kept in the store named by ERP_SESSION_BACKEND: file, redis or memory.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.prepare,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	if opts.Err != nil {
		root.SetErr(opts.Err)
	}
	if opts.In != nil {
		root.SetIn(opts.In)
	}

	root.AddCommand(
		loginCommand(c),
		logoutCommand(c),
		whoamiCommand(c),
		customersCommand(c),
		productsCommand(c),
		ordersCommand(c),
		invoicesCommand(c),
		paymentsCommand(c),
		usersCommand(c),
		auditCommand(c),
		exportCommand(c),
		watchCommand(c),
	)
	return root
}

// Execute runs the console with args and returns the process exit code.
// Errors are printed as a single line on the error stream.
func Execute(ctx context.Context, args []string, opts Options) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var errw io.Writer = os.Stderr
		if opts.Err != nil {
			errw = opts.Err
		}
		fmt.Fprintln(errw, "Error: "+errorMessage(err))
		return 1
	}
	return 0
}

// errorMessage shows backend, validation and permission errors as toasts and
// hides transport failures behind the generic message. Anything else is a
// usage problem and is printed as is.
func errorMessage(err error) string {
	var (
		netErr net.Error
		apiErr *apiclient.APIError
		verr   *views.ValidationError
		denied *views.AccessDeniedError
	)
	if errors.As(err, &netErr) || errors.As(err, &apiErr) || errors.As(err, &verr) || errors.As(err, &denied) {
		return views.Toast(err)
	}
	return err.Error()
}
