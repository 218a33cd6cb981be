package api

import (
	"context"

	"erpconsole/internal/apiclient"

	"github.com/google/uuid"
)

type Customers = Resource[Customer, CustomerInput, CustomerInput]

type Products = Resource[Product, ProductInput, ProductInput]

type Users = Resource[User, UserInput, UserUpdate]

type Orders struct {
	*Resource[Order, OrderInput, OrderInput]
}

func (o Orders) Confirm(ctx context.Context, id uuid.UUID) (*Order, error) {
	return o.action(ctx, id, "confirm", nil)
}

func (o Orders) Fulfill(ctx context.Context, id uuid.UUID) (*Order, error) {
	return o.action(ctx, id, "fulfill", nil)
}

func (o Orders) Close(ctx context.Context, id uuid.UUID) (*Order, error) {
	return o.action(ctx, id, "close", nil)
}

type Invoices struct {
	*Resource[Invoice, InvoiceInput, InvoiceInput]
}

func (i Invoices) Post(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return i.action(ctx, id, "post", nil)
}

func (i Invoices) WriteOff(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return i.action(ctx, id, "write-off", nil)
}

type Payments struct {
	*Resource[Payment, PaymentInput, PaymentUpdate]
}

// Apply allocates part of the payment to an invoice.
func (p Payments) Apply(ctx context.Context, id uuid.UUID, in ApplyInput) (*Payment, error) {
	return p.action(ctx, id, "apply", in)
}

// AuditLogs reads the audit trail. It requires view_reports.
type AuditLogs struct {
	client *apiclient.Client
}

// AuditParams filter the audit trail.
type AuditParams struct {
	Limit    int
	Offset   int
	Entity   string
	EntityID string
	Action   string
}

func (a AuditLogs) List(ctx context.Context, p AuditParams) ([]AuditLog, *apiclient.Meta, error) {
	q := ListParams{Limit: p.Limit, Offset: p.Offset}.values()
	if p.Entity != "" {
		q.Set("entity", p.Entity)
	}
	if p.EntityID != "" {
		q.Set("entity_id", p.EntityID)
	}
	if p.Action != "" {
		q.Set("action", p.Action)
	}
	var logs []AuditLog
	meta, err := a.client.Get(ctx, "/audit-logs/", q, &logs)
	if err != nil {
		return nil, nil, err
	}
	return logs, meta, nil
}

// API bundles every module over one client.
type API struct {
	Client    *apiclient.Client
	Auth      Auth
	Customers *Customers
	Products  *Products
	Orders    Orders
	Invoices  Invoices
	Payments  Payments
	Users     *Users
	AuditLogs AuditLogs
}

func New(client *apiclient.Client) *API {
	return &API{
		Client:    client,
		Auth:      Auth{client: client},
		Customers: NewResource[Customer, CustomerInput, CustomerInput](client, "/customers"),
		Products:  NewResource[Product, ProductInput, ProductInput](client, "/products"),
		Orders:    Orders{NewResource[Order, OrderInput, OrderInput](client, "/orders")},
		Invoices:  Invoices{NewResource[Invoice, InvoiceInput, InvoiceInput](client, "/invoices")},
		Payments:  Payments{NewResource[Payment, PaymentInput, PaymentUpdate](client, "/payments")},
		Users:     NewResource[User, UserInput, UserUpdate](client, "/users"),
		AuditLogs: AuditLogs{client: client},
	}
}
