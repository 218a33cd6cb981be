package service

import (
	"context"
	"fmt"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
)

type CreateOrderRequest struct {
	ExternalRef *string     `json:"external_ref" binding:"omitempty,max=128"`
	CustomerID  uuid.UUID   `json:"customer_id" binding:"required"`
	OrderDate   *time.Time  `json:"order_date"`
	Status      string      `json:"status" binding:"omitempty,oneof=draft confirmed fulfilled closed"`
	Currency    string      `json:"currency" binding:"omitempty,len=3"`
	Notes       string      `json:"notes"`
	Lines       []LineInput `json:"lines" binding:"required,min=1"`
}

type UpdateOrderRequest struct {
	ExternalRef *string      `json:"external_ref" binding:"omitempty,max=128"`
	CustomerID  *uuid.UUID   `json:"customer_id"`
	OrderDate   *time.Time   `json:"order_date"`
	Status      *string      `json:"status" binding:"omitempty,oneof=draft confirmed fulfilled closed"`
	Currency    *string      `json:"currency" binding:"omitempty,len=3"`
	Notes       *string      `json:"notes"`
	Lines       *[]LineInput `json:"lines"`
}

type OrderService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateOrderRequest) (*model.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Order, int64, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdateOrderRequest) (*model.Order, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
	Transition(ctx context.Context, actor, id uuid.UUID, next string) (*model.Order, error)
}

type orderService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	txManager repository.TransactionManager
	audit     AuditService
	notifier  Notifier
}

func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	notifier Notifier,
) OrderService {
	return &orderService{
		orders:    orders,
		customers: customers,
		products:  products,
		txManager: txManager,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
	}
}

func checkCustomer(ctx context.Context, repo repository.CustomerRepository, id uuid.UUID) (*model.Customer, error) {
	if id == uuid.Nil {
		return nil, fieldErr("field required", "customer_id")
	}
	customer, err := repo.FindByID(ctx, id)
	if err != nil || customer.IsDeleted {
		return nil, fieldErr("invalid customer", "customer_id")
	}
	return customer, nil
}

func (s *orderService) Create(ctx context.Context, actor uuid.UUID, req CreateOrderRequest) (*model.Order, error) {
	customer, err := checkCustomer(ctx, s.customers, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, fieldErr("an order needs at least one line", "lines")
	}
	if req.Status != "" && !containsStatus(model.OrderStatuses, req.Status) {
		return nil, fieldErr("invalid status", "status")
	}

	priced, totals, err := priceLines(ctx, s.products, req.Lines, true)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ExternalRef: req.ExternalRef,
		CustomerID:  req.CustomerID,
		OrderDate:   time.Now().UTC(),
		Status:      model.OrderStatusDraft,
		Currency:    currencyOr(req.Currency, customer.Currency),
		Notes:       req.Notes,
		Subtotal:    totals.Subtotal.Round(2),
		TaxTotal:    totals.TaxTotal.Round(2),
		Total:       totals.Total(),
	}
	if req.OrderDate != nil {
		order.OrderDate = *req.OrderDate
	}
	if req.Status != "" {
		order.Status = req.Status
	}
	for _, l := range priced {
		order.Lines = append(order.Lines, l.orderLine())
	}
	order.Stamp(actor)

	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.orders.Create(txCtx, order)
	}); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreate, "orders", order.ID, "total "+order.Total.StringFixed(2))
	s.notifier.Publish("orders", ChangeCreated, order.ID)
	return s.Get(ctx, order.ID)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByIDWithLines(ctx, id)
	if err != nil {
		return nil, notFoundErr("order", err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, q repository.ListQuery) ([]model.Order, int64, error) {
	return s.orders.List(ctx, q)
}

func (s *orderService) Update(ctx context.Context, actor, id uuid.UUID, req UpdateOrderRequest) (*model.Order, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.FindByIDWithLines(txCtx, id)
		if err != nil {
			return notFoundErr("order", err)
		}
		if order.IsDeleted {
			return fmt.Errorf("order is deleted: %w", ErrInvalid)
		}

		if req.CustomerID != nil {
			if _, err := checkCustomer(txCtx, s.customers, *req.CustomerID); err != nil {
				return err
			}
			order.CustomerID = *req.CustomerID
			order.Customer = nil
		}
		if req.ExternalRef != nil {
			order.ExternalRef = req.ExternalRef
		}
		if req.OrderDate != nil {
			order.OrderDate = *req.OrderDate
		}
		if req.Status != nil {
			if !containsStatus(model.OrderStatuses, *req.Status) {
				return fieldErr("invalid status", "status")
			}
			order.Status = *req.Status
		}
		if req.Currency != nil {
			order.Currency = currencyOr(*req.Currency, order.Currency)
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}
		if req.Lines != nil {
			if len(*req.Lines) == 0 {
				return fieldErr("an order needs at least one line", "lines")
			}
			priced, totals, err := priceLines(txCtx, s.products, *req.Lines, true)
			if err != nil {
				return err
			}
			lines := make([]model.OrderLine, 0, len(priced))
			for _, l := range priced {
				lines = append(lines, l.orderLine())
			}
			if err := s.orders.ReplaceLines(txCtx, order.ID, lines); err != nil {
				return err
			}
			order.Subtotal = totals.Subtotal.Round(2)
			order.TaxTotal = totals.TaxTotal.Round(2)
			order.Total = totals.Total()
		}
		order.Touch(actor)
		return s.orders.Update(txCtx, order)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionUpdate, "orders", id, "")
	s.notifier.Publish("orders", ChangeUpdated, id)
	return s.Get(ctx, id)
}

func (s *orderService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	order, err := s.orders.FindByIDWithLines(ctx, id)
	if err != nil {
		return notFoundErr("order", err)
	}
	if order.IsDeleted {
		return nil
	}
	order.MarkDeleted(actor, time.Now())
	order.Touch(actor)
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDelete, "orders", id, "")
	s.notifier.Publish("orders", ChangeDeleted, id)
	return nil
}

// Transition moves an order to next. Closed orders accept no further transitions.
func (s *orderService) Transition(ctx context.Context, actor, id uuid.UUID, next string) (*model.Order, error) {
	if !containsStatus(model.OrderStatuses, next) {
		return nil, fmt.Errorf("unknown order status %q: %w", next, ErrInvalid)
	}
	order, err := s.orders.FindByIDWithLines(ctx, id)
	if err != nil {
		return nil, notFoundErr("order", err)
	}
	if order.IsDeleted {
		return nil, fmt.Errorf("order is deleted: %w", ErrInvalid)
	}
	if order.Status == model.OrderStatusClosed {
		return nil, fmt.Errorf("order already closed: %w", ErrInvalid)
	}

	prev := order.Status
	if err := s.orders.UpdateStatus(ctx, id, next, actor); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionStatus, "orders", id, prev+" -> "+next)
	s.notifier.Publish("orders", ChangeUpdated, id)
	return s.Get(ctx, id)
}
