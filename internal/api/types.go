package api

import (
	"time"

	"erpconsole/internal/rbac"
	"erpconsole/internal/tokenstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record holds the identity, audit and soft-delete fields every entity carries.
type Record struct {
	ID               uuid.UUID  `json:"id"`
	ExternalRef      *string    `json:"external_ref"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CreatedByID      *uuid.UUID `json:"created_by_id"`
	LastModifiedByID *uuid.UUID `json:"last_modified_by_id"`
	OwnerID          *uuid.UUID `json:"owner_id"`
	IsDeleted        bool       `json:"is_deleted"`
	DeletedAt        *time.Time `json:"deleted_at"`
	DeletedByID      *uuid.UUID `json:"deleted_by_id"`
}

type Customer struct {
	Record
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address"`
	Currency        string `json:"currency"`
	IsActive        bool   `json:"is_active"`
}

type Product struct {
	Record
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UOM         string          `json:"uom"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	TaxCode     string          `json:"tax_code"`
	IsActive    bool            `json:"is_active"`
}

type OrderLine struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Order struct {
	Record
	CustomerID uuid.UUID       `json:"customer_id"`
	Customer   *Customer       `json:"customer,omitempty"`
	OrderDate  time.Time       `json:"order_date"`
	Status     string          `json:"status"`
	Currency   string          `json:"currency"`
	Notes      string          `json:"notes"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	Total      decimal.Decimal `json:"total"`
	Lines      []OrderLine     `json:"lines"`
}

type InvoiceLine struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Invoice struct {
	Record
	OrderID     *uuid.UUID      `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	InvoiceDate time.Time       `json:"invoice_date"`
	DueDate     *time.Time      `json:"due_date"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Notes       string          `json:"notes"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
	Total       decimal.Decimal `json:"total"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Lines       []InvoiceLine   `json:"lines"`
}

type PaymentApplication struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Payment struct {
	Record
	CustomerID   uuid.UUID            `json:"customer_id"`
	InvoiceID    *uuid.UUID           `json:"invoice_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Currency     string               `json:"currency"`
	Method       string               `json:"method"`
	Note         string               `json:"note"`
	ReceivedDate time.Time            `json:"received_date"`
	Status       string               `json:"status"`
	Applications []PaymentApplication `json:"applications"`
}

type User struct {
	Record
	Email     string    `json:"email"`
	Role      rbac.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
}

// Profile is the subset of the user kept in the token store.
func (u User) Profile() *tokenstore.User {
	return &tokenstore.User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

type AuditLog struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// Deleted is the body of a successful DELETE.
type Deleted struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}
