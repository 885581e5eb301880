package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type stubQueries struct {
	discounts map[string]*Discount
	usages    []Usage
	locked    int
}

func newStubQueries(ds ...Discount) *stubQueries {
	s := &stubQueries{discounts: map[string]*Discount{}}
	for i := range ds {
		d := ds[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		s.discounts[d.Code] = &d
	}
	return s
}

func (s *stubQueries) GetDiscountByCode(_ context.Context, code string) (Discount, error) {
	d, ok := s.discounts[code]
	if !ok {
		return Discount{}, pgx.ErrNoRows
	}
	return *d, nil
}

func (s *stubQueries) GetDiscountByCodeForUpdate(ctx context.Context, code string) (Discount, error) {
	s.locked++
	return s.GetDiscountByCode(ctx, code)
}

func (s *stubQueries) GetDiscountByID(_ context.Context, id uuid.UUID) (Discount, error) {
	for _, d := range s.discounts {
		if d.ID == id {
			return *d, nil
		}
	}
	return Discount{}, pgx.ErrNoRows
}

func (s *stubQueries) CountUsageByUser(_ context.Context, discountID, userID uuid.UUID) (int64, error) {
	var n int64
	for _, u := range s.usages {
		if u.DiscountID == discountID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *stubQueries) InsertUsage(_ context.Context, u Usage) (Usage, error) {
	s.usages = append(s.usages, u)
	return u, nil
}

func (s *stubQueries) IncrementUsageCount(_ context.Context, discountID uuid.UUID) error {
	for _, d := range s.discounts {
		if d.ID == discountID {
			d.UsageCount++
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubQueries) CreateDiscount(_ context.Context, d Discount) (Discount, error) {
	if _, exists := s.discounts[d.Code]; exists {
		return Discount{}, errors.New("duplicate code")
	}
	copied := d
	s.discounts[d.Code] = &copied
	return copied, nil
}

func (s *stubQueries) UpdateDiscount(_ context.Context, d Discount) (Discount, error) {
	stored, ok := s.discounts[d.Code]
	if !ok {
		return Discount{}, pgx.ErrNoRows
	}
	*stored = d
	return d, nil
}

func (s *stubQueries) ListDiscounts(_ context.Context, _ *uuid.UUID, _, _ int) ([]Discount, int64, error) {
	out := make([]Discount, 0, len(s.discounts))
	for _, d := range s.discounts {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (s *stubQueries) DeactivateDiscount(_ context.Context, id uuid.UUID) error {
	for _, d := range s.discounts {
		if d.ID == id {
			d.IsActive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestPreviewPercentage(t *testing.T) {
	q := newStubQueries(Discount{Code: "SAVE10", Kind: KindPercentage, Value: dec("10"), IsActive: true})
	svc := &Service{Q: q, Now: fixedNow}

	res, err := svc.Preview(context.Background(), " save10 ", uuid.New(), dec("60.00"))
	require.NoError(t, err)
	require.Equal(t, "SAVE10", res.Code)
	require.True(t, res.DiscountAmount.Equal(dec("6.00")), "amount=%s", res.DiscountAmount)
	require.True(t, res.FinalAmount.Equal(dec("54.00")), "final=%s", res.FinalAmount)
	require.Empty(t, q.usages, "preview must not record usage")
}

func TestPreviewUnknownCode(t *testing.T) {
	svc := &Service{Q: newStubQueries(), Now: fixedNow}

	_, err := svc.Preview(context.Background(), "NOPE", uuid.New(), dec("60.00"))
	require.True(t, errors.Is(err, ErrInvalidCode))
	require.Equal(t, "Invalid discount code", err.Error())
}

func TestRedeemRecordsUsageAndIncrementsCount(t *testing.T) {
	q := newStubQueries(Discount{Code: "SAVE10", Kind: KindPercentage, Value: dec("10"), IsActive: true})
	svc := &Service{Q: q, Now: fixedNow}
	userID := uuid.New()
	orderID := uuid.New()

	res, err := svc.Redeem(context.Background(), q, "SAVE10", userID, orderID, dec("60.00"))
	require.NoError(t, err)
	require.True(t, res.DiscountAmount.Equal(dec("6.00")))
	require.Equal(t, 1, q.locked, "redeem must lock the row")
	require.Len(t, q.usages, 1)
	require.Equal(t, orderID, q.usages[0].OrderID)
	require.Equal(t, int32(1), q.discounts["SAVE10"].UsageCount)
}

func TestRedeemPerUserIsolation(t *testing.T) {
	limit := int32(1)
	q := newStubQueries(Discount{Code: "ONCE", Kind: KindFixed, Value: dec("5.00"), IsActive: true, UsageLimitPerUser: &limit})
	svc := &Service{Q: q, Now: fixedNow}
	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.Redeem(context.Background(), q, "ONCE", alice, uuid.New(), dec("50.00"))
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), q, "ONCE", alice, uuid.New(), dec("50.00"))
	require.True(t, errors.Is(err, ErrPerUserLimitReached))

	// a different user is unaffected by alice's redemptions
	_, err = svc.Redeem(context.Background(), q, "ONCE", bob, uuid.New(), dec("50.00"))
	require.NoError(t, err)
}

func TestRedeemStopsAtGlobalLimit(t *testing.T) {
	limit := int32(1)
	q := newStubQueries(Discount{Code: "RARE", Kind: KindFixed, Value: dec("5.00"), IsActive: true, UsageLimit: &limit})
	svc := &Service{Q: q, Now: fixedNow}

	_, err := svc.Redeem(context.Background(), q, "RARE", uuid.New(), uuid.New(), dec("50.00"))
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), q, "RARE", uuid.New(), uuid.New(), dec("50.00"))
	require.True(t, errors.Is(err, ErrUsageLimitReached))
}

func TestServiceDefaultPerUserLimit(t *testing.T) {
	q := newStubQueries(Discount{Code: "SAVE", Kind: KindFixed, Value: dec("5.00"), IsActive: true})
	svc := &Service{Q: q, PerUserLimitDefault: 1, Now: fixedNow}
	userID := uuid.New()

	_, err := svc.Redeem(context.Background(), q, "SAVE", userID, uuid.New(), dec("50.00"))
	require.NoError(t, err)

	_, err = svc.Preview(context.Background(), "SAVE", userID, dec("50.00"))
	require.True(t, errors.Is(err, ErrPerUserLimitReached))
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	q := newStubQueries()
	svc := &Service{Q: q, Now: fixedNow}

	d, err := svc.Create(context.Background(), Discount{Code: " spring ", Kind: KindPercentage, Value: dec("15"), IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "SPRING", d.Code)

	_, err = svc.Create(context.Background(), Discount{Code: "BAD", Kind: Kind("bogus"), Value: dec("1")})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Discount{Code: "NEG", Kind: KindFixed, Value: dec("-1")})
	require.Error(t, err)
}

func TestUpdatePatchSemantics(t *testing.T) {
	q := newStubQueries(Discount{Code: "SAVE", Kind: KindFixed, Value: dec("5.00"), IsActive: true})
	svc := &Service{Q: q, Now: fixedNow}
	id := q.discounts["SAVE"].ID

	newValue := dec("7.50")
	inactive := false
	d, err := svc.Update(context.Background(), id, Patch{Value: &newValue, IsActive: &inactive})
	require.NoError(t, err)
	require.True(t, d.Value.Equal(dec("7.50")))
	require.False(t, d.IsActive)
	require.Equal(t, "SAVE", d.Code, "code stays immutable")

	_, err = svc.Update(context.Background(), uuid.New(), Patch{Value: &newValue})
	require.ErrorIs(t, err, ErrNotFound)
}
