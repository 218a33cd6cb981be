package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit log actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionStatus = "STATUS"
	ActionApply  = "APPLY"
	ActionLogin  = "LOGIN"
)

// AuditLog tracks Who, What, and When for every mutation
type AuditLog struct {
	Base
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Action    string     `gorm:"type:varchar(20);not null;index" json:"action"`
	Entity    string     `gorm:"type:varchar(30);not null;index" json:"entity"`
	EntityID  string     `gorm:"type:varchar(50);index" json:"entity_id"`
	Details   string     `gorm:"type:text" json:"details"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
