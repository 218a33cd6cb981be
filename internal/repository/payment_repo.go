package repository

import (
	"context"

	"erpconsole/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Update(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	AddApplication(ctx context.Context, app *model.PaymentApplication) error
	AppliedToInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, q ListQuery) ([]model.Payment, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).
		Preload("Applications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *paymentRepository) AddApplication(ctx context.Context, app *model.PaymentApplication) error {
	return GetDB(ctx, r.db).Create(app).Error
}

// AppliedToInvoice sums every application against an invoice.
func (r *paymentRepository) AppliedToInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var apps []model.PaymentApplication
	if err := GetDB(ctx, r.db).Where("invoice_id = ?", invoiceID).Find(&apps).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, a := range apps {
		sum = sum.Add(a.AmountApplied)
	}
	return sum, nil
}

func (r *paymentRepository) List(ctx context.Context, q ListQuery) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	filter := q.scope("status", "method", "note", "status")
	if err := db.Model(&model.Payment{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter, q.page).
		Preload("Applications").
		Order("received_date DESC, created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
