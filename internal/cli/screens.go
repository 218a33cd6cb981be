package cli

import (
	"context"
	"fmt"

	"erpconsole/internal/api"
	"erpconsole/internal/rbac"
	"erpconsole/internal/views"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	customerScreen = entity[api.Customer, api.CustomerInput, api.CustomerInput]{
		screen:   views.CustomersScreen,
		singular: "customer",
		table:    views.CustomerTable,
		resource: func(a *api.API) *api.Resource[api.Customer, api.CustomerInput, api.CustomerInput] { return a.Customers },
		id:       func(c *api.Customer) uuid.UUID { return c.ID },
	}
	productScreen = entity[api.Product, api.ProductInput, api.ProductInput]{
		screen:     views.ProductsScreen,
		singular:   "product",
		table:      views.ProductTable,
		resource:   func(a *api.API) *api.Resource[api.Product, api.ProductInput, api.ProductInput] { return a.Products },
		id:         func(p *api.Product) uuid.UUID { return p.ID },
		createRule: views.ProductRule,
		updateRule: views.ProductRule,
	}
	orderScreen = entity[api.Order, api.OrderInput, api.OrderInput]{
		screen:     views.OrdersScreen,
		singular:   "order",
		table:      views.OrderTable,
		resource:   func(a *api.API) *api.Resource[api.Order, api.OrderInput, api.OrderInput] { return a.Orders.Resource },
		id:         func(o *api.Order) uuid.UUID { return o.ID },
		createRule: views.OrderRule,
		updateRule: views.OrderRule,
	}
	invoiceScreen = entity[api.Invoice, api.InvoiceInput, api.InvoiceInput]{
		screen:     views.InvoicesScreen,
		singular:   "invoice",
		table:      views.InvoiceTable,
		resource:   func(a *api.API) *api.Resource[api.Invoice, api.InvoiceInput, api.InvoiceInput] { return a.Invoices.Resource },
		id:         func(i *api.Invoice) uuid.UUID { return i.ID },
		createRule: views.InvoiceRule,
		updateRule: views.InvoiceRule,
	}
	paymentScreen = entity[api.Payment, api.PaymentInput, api.PaymentUpdate]{
		screen:     views.PaymentsScreen,
		singular:   "payment",
		table:      views.PaymentTable,
		resource:   func(a *api.API) *api.Resource[api.Payment, api.PaymentInput, api.PaymentUpdate] { return a.Payments.Resource },
		id:         func(p *api.Payment) uuid.UUID { return p.ID },
		createRule: views.PaymentRule,
	}
	userScreen = entity[api.User, api.UserInput, api.UserUpdate]{
		screen:   views.UsersScreen,
		singular: "user",
		table:    views.UserTable,
		resource: func(a *api.API) *api.Resource[api.User, api.UserInput, api.UserUpdate] { return a.Users },
		id:       func(u *api.User) uuid.UUID { return u.ID },
	}
)

// exporter is an entity screen that can hand its table to the spreadsheet export.
type exporter interface {
	exportRows(ctx context.Context, app *App, f listFlags) ([]string, [][]string, error)
}

var exporters = map[string]exporter{
	"customers": customerScreen,
	"products":  productScreen,
	"orders":    orderScreen,
	"invoices":  invoiceScreen,
	"payments":  paymentScreen,
	"users":     userScreen,
}

func customersCommand(c *console) *cobra.Command { return customerScreen.command(c) }

func productsCommand(c *console) *cobra.Command { return productScreen.command(c) }

func usersCommand(c *console) *cobra.Command { return userScreen.command(c) }

func ordersCommand(c *console) *cobra.Command {
	return orderScreen.command(c,
		transitionCommand(c, views.OrdersScreen, "confirm", "Confirm a draft order", func(ctx context.Context, a *api.API, id uuid.UUID) (string, error) {
			o, err := a.Orders.Confirm(ctx, id)
			return status(o, err, func(o *api.Order) string { return o.Status })
		}),
		transitionCommand(c, views.OrdersScreen, "fulfill", "Mark a confirmed order fulfilled", func(ctx context.Context, a *api.API, id uuid.UUID) (string, error) {
			o, err := a.Orders.Fulfill(ctx, id)
			return status(o, err, func(o *api.Order) string { return o.Status })
		}),
		transitionCommand(c, views.OrdersScreen, "close", "Close an order", func(ctx context.Context, a *api.API, id uuid.UUID) (string, error) {
			o, err := a.Orders.Close(ctx, id)
			return status(o, err, func(o *api.Order) string { return o.Status })
		}),
	)
}

func invoicesCommand(c *console) *cobra.Command {
	return invoiceScreen.command(c,
		transitionCommand(c, views.InvoicesScreen, "post", "Post a draft invoice", func(ctx context.Context, a *api.API, id uuid.UUID) (string, error) {
			i, err := a.Invoices.Post(ctx, id)
			return status(i, err, func(i *api.Invoice) string { return i.Status })
		}),
		transitionCommand(c, views.InvoicesScreen, "write-off", "Write off an unpaid invoice", func(ctx context.Context, a *api.API, id uuid.UUID) (string, error) {
			i, err := a.Invoices.WriteOff(ctx, id)
			return status(i, err, func(i *api.Invoice) string { return i.Status })
		}),
	)
}

func paymentsCommand(c *console) *cobra.Command {
	return paymentScreen.command(c, applyCommand(c))
}

func status[T any](rec *T, err error, get func(*T) string) (string, error) {
	if err != nil {
		return "", err
	}
	return get(rec), nil
}

// transitionCommand moves a record to its next status. Transitions need the
// edit permission.
func transitionCommand(c *console, s views.Screen, name, short string, do func(context.Context, *api.API, uuid.UUID) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
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
			if err := s.Require(app.Session.Capabilities(), rbac.PermEdit); err != nil {
				return err
			}
			st, err := do(cmd.Context(), app.API, id)
			if err != nil {
				return err
			}
			app.Cache.Invalidate(s.Entity + "/")
			fmt.Fprintf(app.out, "%s is now %s\n", id, st)
			return nil
		},
	}
}

func applyCommand(c *console) *cobra.Command {
	var invoice, amount string
	cmd := &cobra.Command{
		Use:   "apply <payment-id>",
		Short: "Allocate part of a payment to an invoice",
		Example: `  erpconsole payments apply 7d0c... --invoice 19a2... --amount 25.00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			invoiceID, err := parseID(invoice)
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amount)
			}
			if err := app.requireSession(); err != nil {
				return err
			}
			if err := views.PaymentsScreen.Require(app.Session.Capabilities(), rbac.PermEdit); err != nil {
				return err
			}

			in := api.ApplyInput{InvoiceID: invoiceID, AmountApplied: amt}
			if err := views.Validate(in, views.ApplyRule); err != nil {
				return err
			}
			p, err := app.API.Payments.Apply(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			app.Cache.Invalidate("payments/")
			app.Cache.Invalidate("invoices/")
			fmt.Fprintf(app.out, "Applied %s to invoice %s, payment is %s\n", amt.StringFixed(2), invoiceID, p.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&invoice, "invoice", "", "Invoice to pay")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to apply")
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
