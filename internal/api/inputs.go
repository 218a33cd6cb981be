package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Form payloads. The validate tags are checked client-side before any request.

type CustomerInput struct {
	ExternalRef     *string `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	Name            string  `json:"name" validate:"required"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Phone           string  `json:"phone"`
	BillingAddress  string  `json:"billing_address"`
	ShippingAddress string  `json:"shipping_address"`
	Currency        string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

type ProductInput struct {
	ExternalRef *string         `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	SKU         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	UOM         string          `json:"uom"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxCode     string          `json:"tax_code"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// LineInput is one order or invoice line. UnitPrice defaults to the product price.
type LineInput struct {
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	Description string           `json:"description,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
}

type OrderInput struct {
	ExternalRef *string     `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	CustomerID  uuid.UUID   `json:"customer_id" validate:"required"`
	OrderDate   *time.Time  `json:"order_date,omitempty"`
	Status      string      `json:"status,omitempty" validate:"omitempty,oneof=draft confirmed fulfilled closed"`
	Currency    string      `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes       string      `json:"notes"`
	Lines       []LineInput `json:"lines"`
}

type InvoiceInput struct {
	ExternalRef *string          `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	CustomerID  uuid.UUID        `json:"customer_id" validate:"required"`
	OrderID     *uuid.UUID       `json:"order_id,omitempty"`
	InvoiceDate *time.Time       `json:"invoice_date,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Status      string           `json:"status,omitempty" validate:"omitempty,oneof=draft posted paid written_off"`
	Currency    string           `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes       string           `json:"notes"`
	TaxTotal    *decimal.Decimal `json:"tax_total,omitempty"`
	Lines       []LineInput      `json:"lines,omitempty"`
}

type PaymentInput struct {
	ExternalRef  *string         `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	CustomerID   uuid.UUID       `json:"customer_id" validate:"required"`
	InvoiceID    *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Method       string          `json:"method" validate:"omitempty,max=64"`
	Note         string          `json:"note"`
	ReceivedDate *time.Time      `json:"received_date,omitempty"`
}

// PaymentUpdate carries the fields of a payment that stay editable after creation.
type PaymentUpdate struct {
	ExternalRef  *string    `json:"external_ref,omitempty" validate:"omitempty,max=128"`
	Method       *string    `json:"method,omitempty" validate:"omitempty,max=64"`
	Note         *string    `json:"note,omitempty"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,oneof=received applied failed"`
}

type ApplyInput struct {
	InvoiceID     uuid.UUID       `json:"invoice_id" validate:"required"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

type UserInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=admin manager staff viewer"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type UserUpdate struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager staff viewer"`
	IsActive  *bool   `json:"is_active,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
