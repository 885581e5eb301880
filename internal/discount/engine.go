// Package discount implements discount code eligibility and computation.
// Validation is side-effect-free; redemption is a separate, transactional
// step recorded at order creation time.
package discount

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/money"
)

// Kind enumerates the supported discount types.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

var (
	// ErrInvalidCode is returned when the code does not resolve to an active discount.
	ErrInvalidCode = errors.New("invalid discount code")
	// ErrExpired is returned when the discount validity window has passed.
	ErrExpired = errors.New("discount code has expired")
	// ErrNotYetActive is returned when the validity window has not opened.
	ErrNotYetActive = errors.New("discount code is not yet active")
	// ErrUsageLimitReached indicates the global usage quota is exhausted.
	ErrUsageLimitReached = errors.New("discount usage limit reached")
	// ErrMinOrderNotMet indicates the order amount is below the discount threshold.
	ErrMinOrderNotMet = errors.New("minimum order amount not met")
	// ErrPerUserLimitReached indicates the caller exhausted their personal allowance.
	ErrPerUserLimitReached = errors.New("per-user usage limit reached")
)

// Rejection carries the client-facing reason a discount was refused.
type Rejection struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (r *Rejection) Error() string { return r.Reason }

// Unwrap exposes the sentinel for errors.Is.
func (r *Rejection) Unwrap() error { return r.Err }

func reject(reason string, err error) error {
	return &Rejection{Reason: reason, Err: err}
}

// Discount captures the stored rule for a code. A nil StoreID means the
// discount applies platform-wide.
type Discount struct {
	ID                uuid.UUID
	StoreID           *uuid.UUID
	Code              string
	Kind              Kind
	Value             decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	StartsAt          *time.Time
	EndsAt            *time.Time
	UsageLimit        *int32
	UsageLimitPerUser *int32
	UsageCount        int32
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Usage is one redemption row for a (discount, user, order) triple.
type Usage struct {
	ID         uuid.UUID
	DiscountID uuid.UUID
	UserID     uuid.UUID
	OrderID    uuid.UUID
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// Result describes a successful evaluation.
type Result struct {
	Code           string          `json:"code"`
	Kind           Kind            `json:"discountType"`
	Value          decimal.Decimal `json:"value"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}

// CheckEligibility runs the ordered eligibility checks against the rule.
// The first failing check wins; perUserUsed is the caller's prior
// redemption count. The expiry comparison is strict: a discount ending
// exactly at now is still valid.
func CheckEligibility(d Discount, orderAmount decimal.Decimal, perUserUsed int64, now time.Time) error {
	if !d.IsActive {
		return reject("Invalid discount code", ErrInvalidCode)
	}
	if d.EndsAt != nil && d.EndsAt.Before(now) {
		return reject("Discount code has expired", ErrExpired)
	}
	if d.StartsAt != nil && d.StartsAt.After(now) {
		return reject("Discount code is not yet active", ErrNotYetActive)
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return reject("Discount usage limit reached", ErrUsageLimitReached)
	}
	if d.MinOrderAmount != nil && orderAmount.LessThan(*d.MinOrderAmount) {
		return reject(fmt.Sprintf("Minimum order amount is %s", d.MinOrderAmount.StringFixed(money.Places)), ErrMinOrderNotMet)
	}
	if d.UsageLimitPerUser != nil && perUserUsed >= int64(*d.UsageLimitPerUser) {
		return reject("You have reached the usage limit for this discount", ErrPerUserLimitReached)
	}
	return nil
}

// Compute returns the discount amount for an eligible rule, clamped to the
// optional cap and to the order amount.
func Compute(d Discount, orderAmount decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Kind {
	case KindPercentage:
		amount = money.Percent(orderAmount, d.Value)
	default:
		amount = money.Round(d.Value)
	}
	if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
		amount = *d.MaxDiscountAmount
	}
	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}
	return money.ClampNonNegative(amount)
}

// Evaluate combines eligibility and computation into a Result.
func Evaluate(d Discount, orderAmount decimal.Decimal, perUserUsed int64, now time.Time) (Result, error) {
	if err := CheckEligibility(d, orderAmount, perUserUsed, now); err != nil {
		return Result{}, err
	}
	amount := Compute(d, orderAmount)
	return Result{
		Code:           d.Code,
		Kind:           d.Kind,
		Value:          d.Value,
		DiscountAmount: amount,
		FinalAmount:    money.Round(orderAmount.Sub(amount)),
	}, nil
}
