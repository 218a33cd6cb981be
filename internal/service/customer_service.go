package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
)

type CreateCustomerRequest struct {
	ExternalRef     *string    `json:"external_ref" binding:"omitempty,max=128"`
	Name            string     `json:"name" binding:"required"`
	Email           string     `json:"email" binding:"omitempty,email"`
	Phone           string     `json:"phone"`
	BillingAddress  string     `json:"billing_address"`
	ShippingAddress string     `json:"shipping_address"`
	Currency        string     `json:"currency" binding:"omitempty,len=3"`
	IsActive        *bool      `json:"is_active"`
	OwnerID         *uuid.UUID `json:"owner_id"`
}

type UpdateCustomerRequest struct {
	ExternalRef     *string    `json:"external_ref" binding:"omitempty,max=128"`
	Name            *string    `json:"name" binding:"omitempty,min=1"`
	Email           *string    `json:"email" binding:"omitempty,email"`
	Phone           *string    `json:"phone"`
	BillingAddress  *string    `json:"billing_address"`
	ShippingAddress *string    `json:"shipping_address"`
	Currency        *string    `json:"currency" binding:"omitempty,len=3"`
	IsActive        *bool      `json:"is_active"`
	OwnerID         *uuid.UUID `json:"owner_id"`
}

type CustomerService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateCustomerRequest) (*model.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Customer, int64, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdateCustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type customerService struct {
	repo     repository.CustomerRepository
	audit    AuditService
	notifier Notifier
}

func NewCustomerService(repo repository.CustomerRepository, audit AuditService, notifier Notifier) CustomerService {
	return &customerService{repo: repo, audit: audit, notifier: notifierOrNoop(notifier)}
}

func currencyOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return strings.ToUpper(c)
}

func (s *customerService) Create(ctx context.Context, actor uuid.UUID, req CreateCustomerRequest) (*model.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fieldErr("field required", "name")
	}
	customer := &model.Customer{
		ExternalRef:     req.ExternalRef,
		Name:            strings.TrimSpace(req.Name),
		Email:           req.Email,
		Phone:           req.Phone,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		Currency:        currencyOr(req.Currency, "USD"),
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	customer.OwnerID = req.OwnerID
	customer.Stamp(actor)

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionCreate, "customers", customer.ID, customer.Name)
	s.notifier.Publish("customers", ChangeCreated, customer.ID)
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("customer", err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, q repository.ListQuery) ([]model.Customer, int64, error) {
	return s.repo.List(ctx, q)
}

func (s *customerService) Update(ctx context.Context, actor, id uuid.UUID, req UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("customer", err)
	}
	if customer.IsDeleted {
		return nil, fmt.Errorf("customer is deleted: %w", ErrInvalid)
	}

	if req.ExternalRef != nil {
		customer.ExternalRef = req.ExternalRef
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fieldErr("must not be empty", "name")
		}
		customer.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.BillingAddress != nil {
		customer.BillingAddress = *req.BillingAddress
	}
	if req.ShippingAddress != nil {
		customer.ShippingAddress = *req.ShippingAddress
	}
	if req.Currency != nil {
		customer.Currency = currencyOr(*req.Currency, customer.Currency)
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	if req.OwnerID != nil {
		customer.OwnerID = req.OwnerID
	}
	customer.Touch(actor)

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionUpdate, "customers", customer.ID, customer.Name)
	s.notifier.Publish("customers", ChangeUpdated, customer.ID)
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundErr("customer", err)
	}
	if customer.IsDeleted {
		return nil
	}
	customer.MarkDeleted(actor, time.Now())
	customer.Touch(actor)
	if err := s.repo.Update(ctx, customer); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDelete, "customers", id, customer.Name)
	s.notifier.Publish("customers", ChangeDeleted, id)
	return nil
}
