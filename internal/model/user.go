package model

import (
	"strings"
	"time"

	"erpconsole/internal/rbac"

	"github.com/google/uuid"
)

// User represents a console operator account
type User struct {
	Base
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Role      rbac.Role `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	FirstName string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`
	Audit
	SoftDelete
}

// DisplayName returns "First Last", or the email when no name is set.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens.
// A token is single use: refreshing deletes it and issues a new one.
type RefreshToken struct {
	Base
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
