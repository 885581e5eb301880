// Package invoice bills service bookings. Invoice totals use the
// shipping-free formula and are immutable once issued.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/events"
	"github.com/noah-isme/backend-bazaar/internal/money"
	"github.com/noah-isme/backend-bazaar/internal/order"
	"github.com/noah-isme/backend-bazaar/internal/pricing"
)

// ErrNotFound covers missing invoices and invoices owned by someone else.
var ErrNotFound = errors.New("invoice not found")

// Invoice is an issued service bill.
type Invoice struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	UserID         uuid.UUID       `json:"userId"`
	OrderID        *uuid.UUID      `json:"orderId,omitempty"`
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Lines          []Line          `json:"lines,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	IssuedAt       time.Time       `json:"issuedAt"`
}

// Line is one billed service line.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID uuid.UUID       `json:"invoiceId"`
	ServiceID uuid.UUID       `json:"serviceId"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Querier defines the invoice persistence surface.
type Querier interface {
	NextSequence(ctx context.Context, scope string) (int64, error)
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertInvoiceLine(ctx context.Context, line Line) (Line, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	ListInvoiceLines(ctx context.Context, invoiceID uuid.UUID) ([]Line, error)
	ListInvoicesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Invoice, int64, error)
}

// TxQueries is the tx-bound bundle used while issuing.
type TxQueries struct {
	Invoices Querier
}

// Service issues and serves invoices. Invoices never carry shipping or
// the platform service fee; those belong to checkout orders only.
type Service struct {
	DB       order.Beginner
	Q        Querier
	Bind     func(tx pgx.Tx) TxQueries
	Events   *events.Bus
	TaxRate  decimal.Decimal
	Currency string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// LineInput is one service line to bill.
type LineInput struct {
	ServiceID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// CreateInput carries an issuance request. The discount amount is the
// already-validated figure from checkout, never a client figure.
type CreateInput struct {
	OrderID        *uuid.UUID
	Lines          []LineInput
	DiscountAmount decimal.Decimal
	Notes          *string
}

// Create issues an invoice: totals come from the shipping-free formula
// and the number from the atomic invoice counter, all in one transaction.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (Invoice, error) {
	if s == nil || s.DB == nil || s.Bind == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	if len(in.Lines) == 0 {
		return Invoice{}, errors.New("at least one line is required")
	}
	lines := make([]pricing.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return Invoice{}, fmt.Errorf("line %q: quantity must be positive", l.Name)
		}
		lines = append(lines, pricing.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	totals := pricing.ComputeInvoice(pricing.Input{
		Lines:          lines,
		TaxRatePercent: s.TaxRate,
		DiscountAmount: in.DiscountAmount,
	})

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	q := s.Bind(tx)

	seq, err := q.Invoices.NextSequence(ctx, order.SequenceInvoices)
	if err != nil {
		return Invoice{}, fmt.Errorf("next invoice number: %w", err)
	}
	inv, err := q.Invoices.InsertInvoice(ctx, Invoice{
		ID:             uuid.New(),
		InvoiceNumber:  order.FormatNumber("INV", seq),
		UserID:         userID,
		OrderID:        in.OrderID,
		Currency:       money.Currency(s.Currency),
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: totals.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		Notes:          in.Notes,
		IssuedAt:       s.now(),
	})
	if err != nil {
		return Invoice{}, err
	}
	for _, l := range in.Lines {
		line, err := q.Invoices.InsertInvoiceLine(ctx, Line{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			ServiceID: l.ServiceID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: money.Round(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))),
		})
		if err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}

	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicInvoiceIssued, inv.ID, map[string]any{
			"invoiceNumber": inv.InvoiceNumber,
			"totalAmount":   inv.TotalAmount,
		})
	}
	return inv, nil
}

// Get returns one invoice owned by the caller.
func (s *Service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (Invoice, error) {
	if s == nil || s.Q == nil {
		return Invoice{}, errors.New("invoice service not configured")
	}
	inv, err := s.Q.GetInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	if inv.UserID != userID {
		return Invoice{}, ErrNotFound
	}
	inv.Lines, err = s.Q.ListInvoiceLines(ctx, inv.ID)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// List returns the caller's invoices, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Invoice, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("invoice service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListInvoicesByUser(ctx, userID, limit, offset)
}
