package model

// Customer is a party the business sells to
type Customer struct {
	Base
	ExternalRef     *string `gorm:"type:varchar(128);index" json:"external_ref"`
	Name            string  `gorm:"type:varchar(255);not null" json:"name"`
	Email           string  `gorm:"type:varchar(255)" json:"email"`
	Phone           string  `gorm:"type:varchar(50)" json:"phone"`
	BillingAddress  string  `gorm:"type:text" json:"billing_address"`
	ShippingAddress string  `gorm:"type:text" json:"shipping_address"`
	Currency        string  `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	IsActive        bool    `gorm:"not null" json:"is_active"`
	Audit
	SoftDelete
}
