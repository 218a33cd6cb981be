package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID primary key shared by every table.
type Base struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

// BeforeCreate assigns a UUID when the caller did not set one. Keys are
// generated in Go so the same models migrate on Postgres and SQLite.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Audit tracks who created, last modified and owns a record.
type Audit struct {
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CreatedByID      *uuid.UUID `gorm:"type:uuid;index" json:"created_by_id"`
	LastModifiedByID *uuid.UUID `gorm:"type:uuid" json:"last_modified_by_id"`
	OwnerID          *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
}

// Stamp sets the creator, modifier and (if unset) owner to the acting user.
func (a *Audit) Stamp(actor uuid.UUID) {
	a.CreatedByID = &actor
	a.LastModifiedByID = &actor
	if a.OwnerID == nil {
		a.OwnerID = &actor
	}
}

// Touch records the acting user as last modifier.
func (a *Audit) Touch(actor uuid.UUID) {
	a.LastModifiedByID = &actor
}

// SoftDelete marks records as deleted without removing the row.
type SoftDelete struct {
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at"`
	DeletedByID *uuid.UUID `gorm:"type:uuid" json:"deleted_by_id"`
}

// MarkDeleted flags the record as deleted by actor at now.
func (s *SoftDelete) MarkDeleted(actor uuid.UUID, now time.Time) {
	s.IsDeleted = true
	s.DeletedAt = &now
	s.DeletedByID = &actor
}
