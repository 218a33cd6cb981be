package service

import (
	"context"
	"fmt"
	"time"

	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// CreateInvoiceRequest builds an invoice from explicit lines, or copies the
// lines of OrderID when Lines is omitted.
type CreateInvoiceRequest struct {
	ExternalRef *string          `json:"external_ref" binding:"omitempty,max=128"`
	CustomerID  uuid.UUID        `json:"customer_id" binding:"required"`
	OrderID     *uuid.UUID       `json:"order_id"`
	InvoiceDate *time.Time       `json:"invoice_date"`
	DueDate     *time.Time       `json:"due_date"`
	Currency    string           `json:"currency" binding:"omitempty,len=3"`
	Notes       string           `json:"notes"`
	TaxTotal    *decimal.Decimal `json:"tax_total"`
	Lines       []LineInput      `json:"lines"`
}

type UpdateInvoiceRequest struct {
	ExternalRef *string          `json:"external_ref" binding:"omitempty,max=128"`
	CustomerID  *uuid.UUID       `json:"customer_id"`
	OrderID     *uuid.UUID       `json:"order_id"`
	InvoiceDate *time.Time       `json:"invoice_date"`
	DueDate     *time.Time       `json:"due_date"`
	Status      *string          `json:"status" binding:"omitempty,oneof=draft posted paid written_off"`
	Currency    *string          `json:"currency" binding:"omitempty,len=3"`
	Notes       *string          `json:"notes"`
	TaxTotal    *decimal.Decimal `json:"tax_total"`
	Lines       *[]LineInput     `json:"lines"`
}

// --- Interface ---

type InvoiceService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreateInvoiceRequest) (*model.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Invoice, int64, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdateInvoiceRequest) (*model.Invoice, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
	Post(ctx context.Context, actor, id uuid.UUID) (*model.Invoice, error)
	WriteOff(ctx context.Context, actor, id uuid.UUID) (*model.Invoice, error)
}

type invoiceService struct {
	invoices  repository.InvoiceRepository
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	txManager repository.TransactionManager
	audit     AuditService
	notifier  Notifier
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	notifier Notifier,
) InvoiceService {
	return &invoiceService{
		invoices:  invoices,
		orders:    orders,
		customers: customers,
		products:  products,
		txManager: txManager,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
	}
}

// --- Implementation ---

func linesFromOrder(order *model.Order) []LineInput {
	out := make([]LineInput, 0, len(order.Lines))
	for _, l := range order.Lines {
		productID := l.ProductID
		price := l.UnitPrice
		out = append(out, LineInput{
			ProductID: &productID,
			Quantity:  l.Quantity,
			UnitPrice: &price,
			TaxRate:   l.TaxRate,
		})
	}
	return out
}

func (s *invoiceService) Create(ctx context.Context, actor uuid.UUID, req CreateInvoiceRequest) (*model.Invoice, error) {
	customer, err := checkCustomer(ctx, s.customers, req.CustomerID)
	if err != nil {
		return nil, err
	}

	lines := req.Lines
	if req.OrderID != nil {
		order, err := s.orders.FindByIDWithLines(ctx, *req.OrderID)
		if err != nil || order.IsDeleted {
			return nil, fieldErr("invalid order", "order_id")
		}
		if len(lines) == 0 {
			lines = linesFromOrder(order)
		}
	}
	if len(lines) == 0 {
		return nil, fieldErr("provide lines or reference an order", "lines")
	}

	priced, totals, err := priceLines(ctx, s.products, lines, false)
	if err != nil {
		return nil, err
	}
	if req.TaxTotal != nil {
		if req.TaxTotal.IsNegative() {
			return nil, fieldErr("must be greater than or equal to 0", "tax_total")
		}
		totals.TaxTotal = *req.TaxTotal
	}

	invoice := &model.Invoice{
		ExternalRef: req.ExternalRef,
		OrderID:     req.OrderID,
		CustomerID:  req.CustomerID,
		InvoiceDate: time.Now().UTC(),
		DueDate:     req.DueDate,
		Status:      model.InvoiceStatusDraft,
		Currency:    currencyOr(req.Currency, customer.Currency),
		Notes:       req.Notes,
		Subtotal:    totals.Subtotal.Round(2),
		TaxTotal:    totals.TaxTotal.Round(2),
		Total:       totals.Total(),
		AmountPaid:  decimal.Zero,
	}
	if req.InvoiceDate != nil {
		invoice.InvoiceDate = *req.InvoiceDate
	}
	for _, l := range priced {
		invoice.Lines = append(invoice.Lines, l.invoiceLine())
	}
	invoice.Stamp(actor)

	if err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.invoices.Create(txCtx, invoice)
	}); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreate, "invoices", invoice.ID, "total "+invoice.Total.StringFixed(2))
	s.notifier.Publish("invoices", ChangeCreated, invoice.ID)
	return s.Get(ctx, invoice.ID)
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoices.FindByIDWithLines(ctx, id)
	if err != nil {
		return nil, notFoundErr("invoice", err)
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, q repository.ListQuery) ([]model.Invoice, int64, error) {
	return s.invoices.List(ctx, q)
}

func (s *invoiceService) Update(ctx context.Context, actor, id uuid.UUID, req UpdateInvoiceRequest) (*model.Invoice, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoices.FindByIDWithLines(txCtx, id)
		if err != nil {
			return notFoundErr("invoice", err)
		}
		if invoice.IsDeleted {
			return fmt.Errorf("invoice is deleted: %w", ErrInvalid)
		}

		if req.CustomerID != nil {
			if _, err := checkCustomer(txCtx, s.customers, *req.CustomerID); err != nil {
				return err
			}
			invoice.CustomerID = *req.CustomerID
			invoice.Customer = nil
		}
		if req.OrderID != nil {
			if _, err := s.orders.FindByIDWithLines(txCtx, *req.OrderID); err != nil {
				return fieldErr("invalid order", "order_id")
			}
			invoice.OrderID = req.OrderID
		}
		if req.ExternalRef != nil {
			invoice.ExternalRef = req.ExternalRef
		}
		if req.InvoiceDate != nil {
			invoice.InvoiceDate = *req.InvoiceDate
		}
		if req.DueDate != nil {
			invoice.DueDate = req.DueDate
		}
		if req.Status != nil {
			if !containsStatus(model.InvoiceStatuses, *req.Status) {
				return fieldErr("invalid status", "status")
			}
			invoice.Status = *req.Status
		}
		if req.Currency != nil {
			invoice.Currency = currencyOr(*req.Currency, invoice.Currency)
		}
		if req.Notes != nil {
			invoice.Notes = *req.Notes
		}

		taxTotal := invoice.TaxTotal
		if req.Lines != nil {
			if len(*req.Lines) == 0 {
				return fieldErr("an invoice needs at least one line", "lines")
			}
			priced, totals, err := priceLines(txCtx, s.products, *req.Lines, false)
			if err != nil {
				return err
			}
			lines := make([]model.InvoiceLine, 0, len(priced))
			for _, l := range priced {
				lines = append(lines, l.invoiceLine())
			}
			if err := s.invoices.ReplaceLines(txCtx, invoice.ID, lines); err != nil {
				return err
			}
			invoice.Subtotal = totals.Subtotal.Round(2)
			taxTotal = totals.TaxTotal
		}
		if req.TaxTotal != nil {
			if req.TaxTotal.IsNegative() {
				return fieldErr("must be greater than or equal to 0", "tax_total")
			}
			taxTotal = *req.TaxTotal
		}
		invoice.TaxTotal = taxTotal.Round(2)
		invoice.Total = invoice.Subtotal.Add(invoice.TaxTotal).Round(2)
		invoice.Touch(actor)
		return s.invoices.Update(txCtx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionUpdate, "invoices", id, "")
	s.notifier.Publish("invoices", ChangeUpdated, id)
	return s.Get(ctx, id)
}

func (s *invoiceService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	invoice, err := s.invoices.FindByIDWithLines(ctx, id)
	if err != nil {
		return notFoundErr("invoice", err)
	}
	if invoice.IsDeleted {
		return nil
	}
	invoice.MarkDeleted(actor, time.Now())
	invoice.Touch(actor)
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDelete, "invoices", id, "")
	s.notifier.Publish("invoices", ChangeDeleted, id)
	return nil
}

// Post issues a draft invoice to the customer.
func (s *invoiceService) Post(ctx context.Context, actor, id uuid.UUID) (*model.Invoice, error) {
	return s.transition(ctx, actor, id, model.InvoiceStatusPosted, model.InvoiceStatusDraft)
}

// WriteOff abandons an unpaid invoice.
func (s *invoiceService) WriteOff(ctx context.Context, actor, id uuid.UUID) (*model.Invoice, error) {
	return s.transition(ctx, actor, id, model.InvoiceStatusWrittenOff, model.InvoiceStatusDraft, model.InvoiceStatusPosted)
}

func (s *invoiceService) transition(ctx context.Context, actor, id uuid.UUID, next string, from ...string) (*model.Invoice, error) {
	invoice, err := s.invoices.FindByIDWithLines(ctx, id)
	if err != nil {
		return nil, notFoundErr("invoice", err)
	}
	if invoice.IsDeleted {
		return nil, fmt.Errorf("invoice is deleted: %w", ErrInvalid)
	}
	if !containsStatus(from, invoice.Status) {
		return nil, fmt.Errorf("cannot move invoice from %s to %s: %w", invoice.Status, next, ErrInvalid)
	}

	prev := invoice.Status
	invoice.Status = next
	invoice.Touch(actor)
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice status: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionStatus, "invoices", id, prev+" -> "+next)
	s.notifier.Publish("invoices", ChangeUpdated, id)
	return invoice, nil
}
