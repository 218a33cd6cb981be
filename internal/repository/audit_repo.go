package repository

import (
	"context"

	"erpconsole/internal/model"

	"gorm.io/gorm"
)

// AuditFilter narrows the audit trail listing.
type AuditFilter struct {
	Limit    int
	Offset   int
	Entity   string
	EntityID string
	Action   string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if f.Entity != "" {
			db = db.Where("entity = ?", f.Entity)
		}
		if f.EntityID != "" {
			db = db.Where("entity_id = ?", f.EntityID)
		}
		if f.Action != "" {
			db = db.Where("action = ?", f.Action)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := db.Scopes(filter).Order("created_at desc").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
