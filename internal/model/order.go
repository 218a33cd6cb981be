package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus values
const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusClosed    = "closed"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{OrderStatusDraft, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusClosed}

// Order is a customer sales order
type Order struct {
	Base
	ExternalRef *string         `gorm:"type:varchar(128);index" json:"external_ref"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderDate   time.Time       `gorm:"not null" json:"order_date"`
	Status      string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_total"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Lines       []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	Audit
	SoftDelete
}

// OrderLine represents a line item within an Order
type OrderLine struct {
	Base
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"tax_rate"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
}
