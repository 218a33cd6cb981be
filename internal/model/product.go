package model

import "github.com/shopspring/decimal"

// Product represents a sellable item
type Product struct {
	Base
	ExternalRef *string         `gorm:"type:varchar(128);index" json:"external_ref"`
	SKU         string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	UOM         string          `gorm:"column:uom;type:varchar(32)" json:"uom"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	TaxCode     string          `gorm:"type:varchar(32)" json:"tax_code"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	Audit
	SoftDelete
}
