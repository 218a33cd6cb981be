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

type CreatePaymentRequest struct {
	ExternalRef  *string         `json:"external_ref" binding:"omitempty,max=128"`
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	InvoiceID    *uuid.UUID      `json:"invoice_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`
	Method       string          `json:"method" binding:"omitempty,max=64"`
	Note         string          `json:"note"`
	ReceivedDate *time.Time      `json:"received_date"`
}

type UpdatePaymentRequest struct {
	ExternalRef  *string    `json:"external_ref" binding:"omitempty,max=128"`
	Method       *string    `json:"method" binding:"omitempty,max=64"`
	Note         *string    `json:"note"`
	ReceivedDate *time.Time `json:"received_date"`
	Status       *string    `json:"status" binding:"omitempty,oneof=received applied failed"`
}

type ApplyPaymentRequest struct {
	InvoiceID     uuid.UUID       `json:"invoice_id" binding:"required"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
}

type PaymentService interface {
	Create(ctx context.Context, actor uuid.UUID, req CreatePaymentRequest) (*model.Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, q repository.ListQuery) ([]model.Payment, int64, error)
	Update(ctx context.Context, actor, id uuid.UUID, req UpdatePaymentRequest) (*model.Payment, error)
	Delete(ctx context.Context, actor, id uuid.UUID) error
	Apply(ctx context.Context, actor, id uuid.UUID, req ApplyPaymentRequest) (*model.Payment, error)
}

type paymentService struct {
	payments  repository.PaymentRepository
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	txManager repository.TransactionManager
	audit     AuditService
	notifier  Notifier
}

func NewPaymentService(
	payments repository.PaymentRepository,
	invoices repository.InvoiceRepository,
	customers repository.CustomerRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		payments:  payments,
		invoices:  invoices,
		customers: customers,
		txManager: txManager,
		audit:     audit,
		notifier:  notifierOrNoop(notifier),
	}
}

func (s *paymentService) Create(ctx context.Context, actor uuid.UUID, req CreatePaymentRequest) (*model.Payment, error) {
	customer, err := checkCustomer(ctx, s.customers, req.CustomerID)
	if err != nil {
		return nil, err
	}
	// Amounts are stored to the cent; validate what will be stored.
	req.Amount = req.Amount.Round(2)
	if !req.Amount.IsPositive() {
		return nil, fieldErr("must be greater than 0", "amount")
	}
	if req.InvoiceID != nil {
		invoice, err := s.invoices.FindByIDWithLines(ctx, *req.InvoiceID)
		if err != nil || invoice.IsDeleted {
			return nil, fieldErr("invalid invoice", "invoice_id")
		}
	}

	payment := &model.Payment{
		ExternalRef:  req.ExternalRef,
		CustomerID:   req.CustomerID,
		InvoiceID:    req.InvoiceID,
		Amount:       req.Amount,
		Currency:     currencyOr(req.Currency, customer.Currency),
		Method:       req.Method,
		Note:         req.Note,
		ReceivedDate: time.Now().UTC(),
		Status:       model.PaymentStatusReceived,
	}
	if req.ReceivedDate != nil {
		payment.ReceivedDate = *req.ReceivedDate
	}
	payment.Stamp(actor)

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionCreate, "payments", payment.ID, "amount "+payment.Amount.StringFixed(2))
	s.notifier.Publish("payments", ChangeCreated, payment.ID)
	return s.Get(ctx, payment.ID)
}

func (s *paymentService) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("payment", err)
	}
	return payment, nil
}

func (s *paymentService) List(ctx context.Context, q repository.ListQuery) ([]model.Payment, int64, error) {
	return s.payments.List(ctx, q)
}

// Update edits payment metadata; the amount and customer are fixed once received.
func (s *paymentService) Update(ctx context.Context, actor, id uuid.UUID, req UpdatePaymentRequest) (*model.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundErr("payment", err)
	}
	if payment.IsDeleted {
		return nil, fmt.Errorf("payment is deleted: %w", ErrInvalid)
	}

	if req.ExternalRef != nil {
		payment.ExternalRef = req.ExternalRef
	}
	if req.Method != nil {
		payment.Method = *req.Method
	}
	if req.Note != nil {
		payment.Note = *req.Note
	}
	if req.ReceivedDate != nil {
		payment.ReceivedDate = *req.ReceivedDate
	}
	if req.Status != nil {
		if !containsStatus(model.PaymentStatuses, *req.Status) {
			return nil, fieldErr("invalid status", "status")
		}
		payment.Status = *req.Status
	}
	payment.Touch(actor)

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionUpdate, "payments", id, "")
	s.notifier.Publish("payments", ChangeUpdated, id)
	return payment, nil
}

func (s *paymentService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return notFoundErr("payment", err)
	}
	if payment.IsDeleted {
		return nil
	}
	if len(payment.Applications) > 0 {
		return fmt.Errorf("payment has been applied: %w", ErrConflict)
	}
	payment.MarkDeleted(actor, time.Now())
	payment.Touch(actor)
	if err := s.payments.Update(ctx, payment); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDelete, "payments", id, "")
	s.notifier.Publish("payments", ChangeDeleted, id)
	return nil
}

// Apply allocates part of a payment to an invoice. The amount may not exceed
// the unapplied remainder. A fully allocated payment becomes applied and an
// invoice whose applications cover its total becomes paid.
func (s *paymentService) Apply(ctx context.Context, actor, id uuid.UUID, req ApplyPaymentRequest) (*model.Payment, error) {
	req.AmountApplied = req.AmountApplied.Round(2)
	if !req.AmountApplied.IsPositive() {
		return nil, fieldErr("must be greater than 0", "amount_applied")
	}

	var invoiceID uuid.UUID
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, err := s.payments.FindByID(txCtx, id)
		if err != nil {
			return notFoundErr("payment", err)
		}
		if payment.IsDeleted || payment.Status == model.PaymentStatusFailed {
			return fmt.Errorf("payment cannot be applied: %w", ErrInvalid)
		}
		invoice, err := s.invoices.LockByID(txCtx, req.InvoiceID)
		if err != nil || invoice.IsDeleted {
			return fieldErr("invalid invoice", "invoice_id")
		}
		if invoice.Status == model.InvoiceStatusWrittenOff {
			return fieldErr("invoice has been written off", "invoice_id")
		}
		invoiceID = invoice.ID

		remaining := payment.Amount.Sub(payment.Applied())
		if req.AmountApplied.GreaterThan(remaining) {
			return fieldErr("amount exceeds remaining balance "+remaining.StringFixed(2), "amount_applied")
		}

		app := &model.PaymentApplication{
			PaymentID:     payment.ID,
			InvoiceID:     invoice.ID,
			AmountApplied: req.AmountApplied,
		}
		if err := s.payments.AddApplication(txCtx, app); err != nil {
			return err
		}

		if !remaining.Sub(app.AmountApplied).IsPositive() {
			payment.Status = model.PaymentStatusApplied
		}
		payment.Touch(actor)
		payment.Applications = nil
		if err := s.payments.Update(txCtx, payment); err != nil {
			return err
		}

		paid, err := s.payments.AppliedToInvoice(txCtx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.AmountPaid = paid.Round(2)
		if !invoice.Total.GreaterThan(invoice.AmountPaid) {
			invoice.Status = model.InvoiceStatusPaid
		}
		invoice.Touch(actor)
		return s.invoices.Update(txCtx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionApply, "payments", id, req.AmountApplied.StringFixed(2)+" to invoice "+invoiceID.String())
	s.notifier.Publish("payments", ChangeUpdated, id)
	s.notifier.Publish("invoices", ChangeUpdated, invoiceID)
	return s.Get(ctx, id)
}
