package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	ExternalRef *string         `json:"external_ref" binding:"omitempty,max=128"`
	SKU         string          `json:"sku" binding:"required,max=64"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	UOM         string          `json:"uom"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	TaxCode     string          `json:"tax_code"`
	IsActive    *bool           `json:"is_active"`
	OwnerID     *uuid.UUID      `json:"owner_id"`
}

type UpdateProductRequest struct {
	ExternalRef *string          `json:"external_ref" binding:"omitempty,max=128"`
	SKU         *string          `json:"sku" binding:"omitempty,min=1,max=64"`
	Name        *string          `json:"name" binding:"omitempty,min=1"`
	Description *string          `json:"description"`
	UOM         *string          `json:"uom"`
	Price       *decimal.Decimal `json:"price"`
	Currency    *string          `json:"currency" binding:"omitempty,len=3"`
	TaxCode     *string          `json:"tax_code"`
	IsActive    *bool            `json:"is_active"`
	OwnerID     *uuid.UUID       `json:"owner_id"`
}

type ProductService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Product, int64, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type productService struct {
	repo     repository.ProductRepository
	audit    AuditService
	notifier Notifier
}

func NewProductService(repo repository.ProductRepository, audit AuditService, notifier Notifier) ProductService {
	return &productService{repo: repo, audit: audit, notifier: notifierOrNoop(notifier)}
}

func (s *productService) skuTaken(ctx context.Context, sku string, except uuid.UUID) error {
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != except {
		return fmt.Errorf("sku %q already exists: %w", sku, ErrConflict)
	}
	return nil
}

func (s *productService) Create(ctx context.Context, actor uuid.UUID, req CreateProductRequest) (*model.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, fieldErr("field required", "sku")
	}
	if req.Price.IsNegative() {
		return nil, fieldErr("must be greater than or equal to 0", "price")
	}
	if err := s.skuTaken(ctx, sku, uuid.Nil); err != nil {
		return nil, err
	}

	product := &model.Product{
		ExternalRef: req.ExternalRef,
		SKU:         sku,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		UOM:         req.UOM,
		Price:       req.Price.Round(2),
		Currency:    currencyOr(req.Currency, "USD"),
		TaxCode:     req.TaxCode,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	product.OwnerID = req.OwnerID
	product.Stamp(actor)

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionCreate, "products", product.ID, product.SKU)
	s.notifier.Publish("products", ChangeCreated, product.ID)
	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("product", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, q repository.ListQuery) ([]model.Product, int64, error) {
	return s.repo.List(ctx, q)
}

func (s *productService) Update(ctx context.Context, actor, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("product", err)
	}
	if product.IsDeleted {
		return nil, fmt.Errorf("product is deleted: %w", ErrInvalid)
	}

	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return nil, fieldErr("must not be empty", "sku")
		}
		if err := s.skuTaken(ctx, sku, product.ID); err != nil {
			return nil, err
		}
		product.SKU = sku
	}
	if req.ExternalRef != nil {
		product.ExternalRef = req.ExternalRef
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.UOM != nil {
		product.UOM = *req.UOM
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fieldErr("must be greater than or equal to 0", "price")
		}
		product.Price = req.Price.Round(2)
	}
	if req.Currency != nil {
		product.Currency = currencyOr(*req.Currency, product.Currency)
	}
	if req.TaxCode != nil {
		product.TaxCode = *req.TaxCode
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.OwnerID != nil {
		product.OwnerID = req.OwnerID
	}
	product.Touch(actor)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionUpdate, "products", product.ID, product.SKU)
	s.notifier.Publish("products", ChangeUpdated, product.ID)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundErr("product", err)
	}
	if product.IsDeleted {
		return nil
	}
	product.MarkDeleted(actor, time.Now())
	product.Touch(actor)
	if err := s.repo.Update(ctx, product); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDelete, "products", id, product.SKU)
	s.notifier.Publish("products", ChangeDeleted, id)
	return nil
}
