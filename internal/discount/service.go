package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the discount does not exist.
var ErrNotFound = errors.New("discount not found")

// Querier defines the persistence operations the discount service needs.
// Implementations may be bound to a transaction; Reserve and RecordUsage
// rely on that.
type Querier interface {
	GetDiscountByCode(ctx context.Context, code string) (Discount, error)
	GetDiscountByCodeForUpdate(ctx context.Context, code string) (Discount, error)
	GetDiscountByID(ctx context.Context, id uuid.UUID) (Discount, error)
	CountUsageByUser(ctx context.Context, discountID, userID uuid.UUID) (int64, error)
	InsertUsage(ctx context.Context, u Usage) (Usage, error)
	IncrementUsageCount(ctx context.Context, discountID uuid.UUID) error
	CreateDiscount(ctx context.Context, d Discount) (Discount, error)
	UpdateDiscount(ctx context.Context, d Discount) (Discount, error)
	ListDiscounts(ctx context.Context, storeID *uuid.UUID, limit, offset int) ([]Discount, int64, error)
	DeactivateDiscount(ctx context.Context, id uuid.UUID) error
}

// Service evaluates and redeems discount codes.
type Service struct {
	Q                   Querier
	PerUserLimitDefault int
	Now                 func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NormalizeCode canonicalises a user-supplied code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) withDefaultLimit(d Discount) Discount {
	if d.UsageLimitPerUser == nil && s.PerUserLimitDefault > 0 {
		limit := int32(s.PerUserLimitDefault)
		d.UsageLimitPerUser = &limit
	}
	return d
}

// Preview evaluates a code against an order amount without side effects.
// Unknown codes surface the same rejection as inactive ones.
func (s *Service) Preview(ctx context.Context, code string, userID uuid.UUID, orderAmount decimal.Decimal) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("discount service not configured")
	}
	_, res, err := s.evaluate(ctx, s.Q, false, code, userID, orderAmount)
	return res, err
}

// Reserve re-validates the code under a row lock without recording
// anything. The supplied querier must be bound to the caller's
// transaction; the lock holds until that transaction ends.
func (s *Service) Reserve(ctx context.Context, q Querier, code string, userID uuid.UUID, orderAmount decimal.Decimal) (Discount, Result, error) {
	if s == nil {
		return Discount{}, Result{}, errors.New("discount service not configured")
	}
	if q == nil {
		q = s.Q
	}
	return s.evaluate(ctx, q, true, code, userID, orderAmount)
}

// RecordUsage writes the usage row for a reserved discount and bumps the
// global counter. The usage row references the order, so the order row
// must already exist in the same transaction.
func (s *Service) RecordUsage(ctx context.Context, q Querier, d Discount, userID, orderID uuid.UUID, amount decimal.Decimal) error {
	if s == nil {
		return errors.New("discount service not configured")
	}
	if q == nil {
		q = s.Q
	}
	if _, err := q.InsertUsage(ctx, Usage{
		ID:         uuid.New(),
		DiscountID: d.ID,
		UserID:     userID,
		OrderID:    orderID,
		Amount:     amount,
		CreatedAt:  s.now(),
	}); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	if err := q.IncrementUsageCount(ctx, d.ID); err != nil {
		return fmt.Errorf("increment usage count: %w", err)
	}
	return nil
}

// Redeem reserves the code and records its usage in one step, for flows
// where the referenced order row already exists. Checkout reserves first
// and records only after inserting the order.
func (s *Service) Redeem(ctx context.Context, q Querier, code string, userID, orderID uuid.UUID, orderAmount decimal.Decimal) (Result, error) {
	d, res, err := s.Reserve(ctx, q, code, userID, orderAmount)
	if err != nil {
		return Result{}, err
	}
	if q == nil {
		q = s.Q
	}
	if err := s.RecordUsage(ctx, q, d, userID, orderID, res.DiscountAmount); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (s *Service) evaluate(ctx context.Context, q Querier, forUpdate bool, code string, userID uuid.UUID, orderAmount decimal.Decimal) (Discount, Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Discount{}, Result{}, reject("Invalid discount code", ErrInvalidCode)
	}
	var (
		d   Discount
		err error
	)
	if forUpdate {
		d, err = q.GetDiscountByCodeForUpdate(ctx, normalized)
	} else {
		d, err = q.GetDiscountByCode(ctx, normalized)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Discount{}, Result{}, reject("Invalid discount code", ErrInvalidCode)
		}
		return Discount{}, Result{}, err
	}
	d = s.withDefaultLimit(d)
	used, err := q.CountUsageByUser(ctx, d.ID, userID)
	if err != nil {
		return Discount{}, Result{}, fmt.Errorf("count usage: %w", err)
	}
	res, err := Evaluate(d, orderAmount, used, s.now())
	if err != nil {
		return Discount{}, Result{}, err
	}
	return d, res, nil
}

// Create stores a new discount. Codes are globally unique.
func (s *Service) Create(ctx context.Context, d Discount) (Discount, error) {
	if s == nil || s.Q == nil {
		return Discount{}, errors.New("discount service not configured")
	}
	d.Code = NormalizeCode(d.Code)
	if d.Code == "" {
		return Discount{}, errors.New("discount code is required")
	}
	if d.Kind != KindPercentage && d.Kind != KindFixed {
		return Discount{}, fmt.Errorf("unknown discount type %q", d.Kind)
	}
	if d.Value.IsNegative() {
		return Discount{}, errors.New("discount value must not be negative")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := s.now()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.UsageCount = 0
	return s.Q.CreateDiscount(ctx, d)
}

// Patch applies a partial update; nil fields keep their stored value.
type Patch struct {
	Value             *decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	StartsAt          *time.Time
	EndsAt            *time.Time
	UsageLimit        *int32
	UsageLimitPerUser *int32
	IsActive          *bool
}

// Update applies a patch to a stored discount. The code and type are
// immutable after creation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (Discount, error) {
	if s == nil || s.Q == nil {
		return Discount{}, errors.New("discount service not configured")
	}
	d, err := s.Q.GetDiscountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Discount{}, ErrNotFound
		}
		return Discount{}, err
	}
	if p.Value != nil {
		if p.Value.IsNegative() {
			return Discount{}, errors.New("discount value must not be negative")
		}
		d.Value = *p.Value
	}
	if p.MinOrderAmount != nil {
		d.MinOrderAmount = p.MinOrderAmount
	}
	if p.MaxDiscountAmount != nil {
		d.MaxDiscountAmount = p.MaxDiscountAmount
	}
	if p.StartsAt != nil {
		d.StartsAt = p.StartsAt
	}
	if p.EndsAt != nil {
		d.EndsAt = p.EndsAt
	}
	if p.UsageLimit != nil {
		d.UsageLimit = p.UsageLimit
	}
	if p.UsageLimitPerUser != nil {
		d.UsageLimitPerUser = p.UsageLimitPerUser
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
	d.UpdatedAt = s.now()
	return s.Q.UpdateDiscount(ctx, d)
}

// List returns discounts for the optional store scope.
func (s *Service) List(ctx context.Context, storeID *uuid.UUID, limit, offset int) ([]Discount, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("discount service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListDiscounts(ctx, storeID, limit, offset)
}

// Deactivate soft-deletes a discount; usage history stays intact.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("discount service not configured")
	}
	if err := s.Q.DeactivateDiscount(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
