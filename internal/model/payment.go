package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus values
const (
	PaymentStatusReceived = "received"
	PaymentStatusApplied  = "applied"
	PaymentStatusFailed   = "failed"
)

// PaymentStatuses lists every valid payment status.
var PaymentStatuses = []string{PaymentStatusReceived, PaymentStatusApplied, PaymentStatusFailed}

// Payment is money received from a customer
type Payment struct {
	Base
	ExternalRef  *string              `gorm:"type:varchar(128);index" json:"external_ref"`
	CustomerID   uuid.UUID            `gorm:"type:uuid;not null;index" json:"customer_id"`
	InvoiceID    *uuid.UUID           `gorm:"type:uuid;index" json:"invoice_id"`
	Amount       decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency     string               `gorm:"type:varchar(3);not null" json:"currency"`
	Method       string               `gorm:"type:varchar(64)" json:"method"`
	Note         string               `gorm:"type:text" json:"note"`
	ReceivedDate time.Time            `gorm:"not null" json:"received_date"`
	Status       string               `gorm:"type:varchar(20);not null;index" json:"status"`
	Applications []PaymentApplication `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"applications"`
	Audit
	SoftDelete
}

// PaymentApplication allocates part of a payment to an invoice.
type PaymentApplication struct {
	Base
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_applied"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Applied sums the amounts already allocated from the payment.
func (p *Payment) Applied() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Applications {
		total = total.Add(a.AmountApplied)
	}
	return total
}
