package discount

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func i32(v int32) *int32 { return &v }

func active(kind Kind, value string) Discount {
	return Discount{Code: "SAVE", Kind: kind, Value: dec(value), IsActive: true}
}

func TestEvaluatePercentageCapped(t *testing.T) {
	d := active(KindPercentage, "50")
	d.MaxDiscountAmount = decPtr("10.00")

	res, err := Evaluate(d, dec("100.00"), 0, time.Now())
	require.NoError(t, err)
	require.True(t, res.DiscountAmount.Equal(dec("10.00")), "amount=%s", res.DiscountAmount)
	require.True(t, res.FinalAmount.Equal(dec("90.00")), "final=%s", res.FinalAmount)
}

func TestEvaluateFixedClampedToOrderAmount(t *testing.T) {
	d := active(KindFixed, "25.00")

	res, err := Evaluate(d, dec("10.00"), 0, time.Now())
	require.NoError(t, err)
	require.True(t, res.DiscountAmount.Equal(dec("10.00")), "amount=%s", res.DiscountAmount)
	require.True(t, res.FinalAmount.IsZero())
}

func TestCheckEligibilityInactive(t *testing.T) {
	d := active(KindFixed, "5")
	d.IsActive = false

	err := CheckEligibility(d, dec("50.00"), 0, time.Now())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidCode))
	require.Equal(t, "Invalid discount code", err.Error())
}

func TestCheckEligibilityExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := active(KindFixed, "5")
	endsAt := now
	d.EndsAt = &endsAt
	require.NoError(t, CheckEligibility(d, dec("50.00"), 0, now), "endsAt == now is still valid")

	past := now.Add(-time.Second)
	d.EndsAt = &past
	err := CheckEligibility(d, dec("50.00"), 0, now)
	require.True(t, errors.Is(err, ErrExpired))
	require.Equal(t, "Discount code has expired", err.Error())
}

func TestCheckEligibilityNotYetActive(t *testing.T) {
	now := time.Now()
	d := active(KindFixed, "5")
	startsAt := now.Add(time.Hour)
	d.StartsAt = &startsAt

	err := CheckEligibility(d, dec("50.00"), 0, now)
	require.True(t, errors.Is(err, ErrNotYetActive))
	require.Equal(t, "Discount code is not yet active", err.Error())
}

func TestCheckEligibilityUsageLimitBoundary(t *testing.T) {
	d := active(KindFixed, "5")
	d.UsageLimit = i32(3)

	d.UsageCount = 2
	require.NoError(t, CheckEligibility(d, dec("50.00"), 0, time.Now()))

	d.UsageCount = 3
	err := CheckEligibility(d, dec("50.00"), 0, time.Now())
	require.True(t, errors.Is(err, ErrUsageLimitReached))
	require.Equal(t, "Discount usage limit reached", err.Error())
}

func TestCheckEligibilityMinOrderAmount(t *testing.T) {
	d := active(KindFixed, "5")
	d.MinOrderAmount = decPtr("25.00")

	err := CheckEligibility(d, dec("24.99"), 0, time.Now())
	require.True(t, errors.Is(err, ErrMinOrderNotMet))
	require.Equal(t, "Minimum order amount is 25.00", err.Error())

	require.NoError(t, CheckEligibility(d, dec("25.00"), 0, time.Now()))
}

func TestCheckEligibilityPerUserLimit(t *testing.T) {
	d := active(KindFixed, "5")
	d.UsageLimitPerUser = i32(1)

	require.NoError(t, CheckEligibility(d, dec("50.00"), 0, time.Now()))

	err := CheckEligibility(d, dec("50.00"), 1, time.Now())
	require.True(t, errors.Is(err, ErrPerUserLimitReached))
	require.Equal(t, "You have reached the usage limit for this discount", err.Error())
}

func TestCheckOrderFirstFailureWins(t *testing.T) {
	now := time.Now()
	d := active(KindFixed, "5")
	past := now.Add(-time.Hour)
	d.EndsAt = &past
	d.UsageLimit = i32(0)
	d.MinOrderAmount = decPtr("1000.00")

	err := CheckEligibility(d, dec("1.00"), 0, now)
	require.True(t, errors.Is(err, ErrExpired))
}

func TestComputeNeverNegative(t *testing.T) {
	d := active(KindFixed, "-3.00")
	require.True(t, Compute(d, dec("10.00")).IsZero())
}
