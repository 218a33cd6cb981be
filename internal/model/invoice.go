package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus values
const (
	InvoiceStatusDraft      = "draft"
	InvoiceStatusPosted     = "posted"
	InvoiceStatusPaid       = "paid"
	InvoiceStatusWrittenOff = "written_off"
)

// InvoiceStatuses lists every valid invoice status.
var InvoiceStatuses = []string{InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusPaid, InvoiceStatusWrittenOff}

// Invoice is a bill sent to a customer, optionally raised from an order.
type Invoice struct {
	Base
	ExternalRef  *string         `gorm:"type:varchar(128);index" json:"external_ref"`
	OrderID      *uuid.UUID      `gorm:"type:uuid;index" json:"order_id"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	InvoiceDate  time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate      *time.Time      `json:"due_date"`
	Status       string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Currency     string          `gorm:"type:varchar(3);not null" json:"currency"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_total"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	AmountPaid   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	Lines        []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
	Audit
	SoftDelete
}

// InvoiceLine is a billed product or free-text charge.
type InvoiceLine struct {
	Base
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"tax_rate"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}
