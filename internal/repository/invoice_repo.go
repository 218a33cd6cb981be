package repository

import (
	"context"

	"erpconsole/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.InvoiceLine) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, q ListQuery) ([]model.Invoice, int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(invoice).Error
}

func (r *invoiceRepository) ReplaceLines(ctx context.Context, invoiceID uuid.UUID, lines []model.InvoiceLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].InvoiceID = invoiceID
	}
	return db.Create(&lines).Error
}

func (r *invoiceRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Customer").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

// LockByID reads the invoice row FOR UPDATE inside a payment transaction.
// SQLite ignores the locking clause and serializes writers instead.
func (r *invoiceRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, q ListQuery) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	filter := q.scope("status", "notes", "status")
	if err := db.Model(&model.Invoice{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter, q.page).
		Preload("Lines").
		Preload("Customer").
		Order("invoice_date DESC, created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}
