package repository

import (
	"context"

	"erpconsole/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Update(ctx context.Context, order *model.Order) error
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor uuid.UUID) error
	List(ctx context.Context, q ListQuery) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its lines.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

// Update saves header columns only; lines go through ReplaceLines.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(order).Error
}

func (r *orderRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	return db.Create(&lines).Error
}

func (r *orderRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Customer").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "last_modified_by_id": actor}).Error
}

func (r *orderRepository) List(ctx context.Context, q ListQuery) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db)
	filter := q.scope("status", "notes", "status")
	if err := db.Model(&model.Order{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter, q.page).
		Preload("Lines").
		Preload("Customer").
		Order("order_date DESC, created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
