package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/cart"
	"github.com/noah-isme/backend-bazaar/internal/discount"
	"github.com/noah-isme/backend-bazaar/internal/events"
	"github.com/noah-isme/backend-bazaar/internal/money"
	"github.com/noah-isme/backend-bazaar/internal/pricing"
)

var (
	// ErrNotFound covers missing orders and orders owned by someone else.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition marks a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrReasonRequired is returned when cancellation lacks a reason.
	ErrReasonRequired = errors.New("cancellation reason is required")
)

// Scope names for the atomic sequence counters.
const (
	SequenceOrders   = "orders"
	SequenceInvoices = "invoices"
)

// Querier defines the order persistence surface.
type Querier interface {
	NextSequence(ctx context.Context, scope string) (int64, error)
	InsertOrder(ctx context.Context, o Order) (Order, error)
	InsertOrderItem(ctx context.Context, item Item) (Item, error)
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]Item, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status Status, reason *string, at time.Time) (Order, error)
}

// TxQueries bundles every tx-bound querier checkout touches.
type TxQueries struct {
	Orders    Querier
	Carts     cart.Querier
	Discounts discount.Querier
}

// Beginner opens transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns checkout and order lifecycle management.
type Service struct {
	DB             Beginner
	Q              Querier
	Bind           func(tx pgx.Tx) TxQueries
	Discount       *discount.Service
	Events         *events.Bus
	TaxRate        decimal.Decimal
	ServiceFee     decimal.Decimal
	CommissionRate decimal.Decimal
	Currency       string
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// FormatNumber renders a sequence value with its scope prefix.
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// CheckoutInput carries the client-supplied part of a checkout. Prices
// and discount amounts never come from the client.
type CheckoutInput struct {
	ShippingAddress json.RawMessage
	ShippingCost    decimal.Decimal
	Notes           *string
}

// Checkout converts the caller's cart into an order inside one
// transaction: totals are computed server-side, the discount (if any) is
// reserved under a row lock, the order number is drawn from the atomic
// counter, and the cart is cleared. The discount usage row references
// the order, so it is recorded only after the order row is inserted.
// Any failure rolls the whole thing back.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (Order, error) {
	if s == nil || s.DB == nil || s.Bind == nil {
		return Order{}, errors.New("order service not configured")
	}
	if in.ShippingCost.IsNegative() {
		in.ShippingCost = decimal.Zero
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	q := s.Bind(tx)

	c, err := q.Carts.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrEmptyCart
		}
		return Order{}, err
	}
	items, err := q.Carts.ListItems(ctx, c.ID)
	if err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	subtotal := pricing.Subtotal(lines)

	discountAmount := decimal.Zero
	var discountCode *string
	var reserved *discount.Discount
	if c.DiscountCode != nil && strings.TrimSpace(*c.DiscountCode) != "" {
		d, res, err := s.Discount.Reserve(ctx, q.Discounts, *c.DiscountCode, userID, subtotal)
		if err != nil {
			return Order{}, err
		}
		discountAmount = res.DiscountAmount
		code := res.Code
		discountCode = &code
		reserved = &d
	}

	totals := pricing.ComputeOrder(pricing.Input{
		Lines:          lines,
		TaxRatePercent: s.TaxRate,
		ShippingCost:   in.ShippingCost,
		ServiceFee:     s.ServiceFee,
		DiscountAmount: discountAmount,
	})
	settlement := pricing.ComputeSettlement(totals.Subtotal, totals.DiscountAmount, s.CommissionRate)

	seq, err := q.Orders.NextSequence(ctx, SequenceOrders)
	if err != nil {
		return Order{}, fmt.Errorf("next order number: %w", err)
	}
	now := s.now()
	o, err := q.Orders.InsertOrder(ctx, Order{
		ID:             uuid.New(),
		OrderNumber:    FormatNumber("ORD", seq),
		UserID:         userID,
		Status:         StatusPending,
		Currency:       money.Currency(s.Currency),
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		ShippingCost:   totals.ShippingCost,
		ServiceFee:     totals.ServiceFee,
		DiscountAmount: totals.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		Commission:     settlement.Commission,
		SellerEarnings: settlement.SellerEarnings,
		DiscountCode:   discountCode,
		ShippingAddr:   in.ShippingAddress,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Order{}, err
	}
	if reserved != nil {
		if err := s.Discount.RecordUsage(ctx, q.Discounts, *reserved, userID, o.ID, discountAmount); err != nil {
			return Order{}, err
		}
	}
	for _, it := range items {
		line, err := q.Orders.InsertOrderItem(ctx, Item{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			ServiceID: it.ServiceID,
			StoreID:   it.StoreID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			ItemTotal: it.ItemTotal,
		})
		if err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, line)
	}

	if err := q.Carts.DeleteItemsByCart(ctx, c.ID); err != nil {
		return Order{}, err
	}
	cart.ClearDerived(&c)
	c.UpdatedAt = now
	if err := q.Carts.SaveTotals(ctx, c); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, o.ID, map[string]any{
			"orderNumber": o.OrderNumber,
			"userId":      o.UserID,
			"totalAmount": o.TotalAmount,
			"currency":    o.Currency,
		})
		if discountCode != nil {
			_, _ = s.Events.Emit(ctx, events.TopicDiscountRedeemed, o.ID, map[string]any{
				"code":           *discountCode,
				"discountAmount": discountAmount,
			})
		}
	}
	return o, nil
}

// Get returns one order owned by the caller, with its lines.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (Order, error) {
	if s == nil || s.Q == nil {
		return Order{}, errors.New("order service not configured")
	}
	o, err := s.Q.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrNotFound
	}
	o.Items, err = s.Q.ListOrderItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// List returns the caller's orders, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("order service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListOrdersByUser(ctx, userID, limit, offset)
}

// Cancel cancels the caller's own order from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Order{}, ErrReasonRequired
	}
	return s.transition(ctx, orderID, StatusCancelled, &reason, &userID)
}

// SetStatus applies an admin status change through the transition table.
func (s *Service) SetStatus(ctx context.Context, orderID uuid.UUID, next Status, reason *string) (Order, error) {
	if next == StatusCancelled {
		if reason == nil || strings.TrimSpace(*reason) == "" {
			return Order{}, ErrReasonRequired
		}
	}
	return s.transition(ctx, orderID, next, reason, nil)
}

// transition applies the state machine under a row lock so concurrent
// status changes serialize instead of clobbering each other.
func (s *Service) transition(ctx context.Context, orderID uuid.UUID, next Status, reason *string, owner *uuid.UUID) (Order, error) {
	if s == nil || s.DB == nil || s.Bind == nil {
		return Order{}, errors.New("order service not configured")
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	q := s.Bind(tx)

	o, err := q.Orders.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if owner != nil && o.UserID != *owner {
		return Order{}, ErrNotFound
	}
	if !o.Status.CanTransition(next) {
		return Order{}, fmt.Errorf("%s to %s: %w", o.Status, next, ErrInvalidTransition)
	}
	updated, err := q.Orders.UpdateOrderStatus(ctx, o.ID, next, reason, s.now())
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	if s.Events != nil {
		topic := events.TopicOrderStatusChanged
		if next == StatusCancelled {
			topic = events.TopicOrderCancelled
		}
		_, _ = s.Events.Emit(ctx, topic, o.ID, map[string]any{
			"orderNumber": o.OrderNumber,
			"from":        o.Status,
			"to":          next,
		})
	}
	return updated, nil
}
