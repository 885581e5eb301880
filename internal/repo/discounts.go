package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-bazaar/internal/discount"
)

const discountColumns = `id, store_id, code, discount_type, value, min_order_amount,
	max_discount_amount, starts_at, ends_at, usage_limit, usage_limit_per_user,
	usage_count, is_active, created_at, updated_at`

func scanDiscount(row interface{ Scan(...any) error }) (discount.Discount, error) {
	var d discount.Discount
	err := row.Scan(
		&d.ID, &d.StoreID, &d.Code, &d.Kind, &d.Value, &d.MinOrderAmount,
		&d.MaxDiscountAmount, &d.StartsAt, &d.EndsAt, &d.UsageLimit, &d.UsageLimitPerUser,
		&d.UsageCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// GetDiscountByCode loads a discount by its normalized code.
func (q *Queries) GetDiscountByCode(ctx context.Context, code string) (discount.Discount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE code = $1`, code)
	return scanDiscount(row)
}

// GetDiscountByCodeForUpdate locks the row for the redemption window.
func (q *Queries) GetDiscountByCodeForUpdate(ctx context.Context, code string) (discount.Discount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE code = $1 FOR UPDATE`, code)
	return scanDiscount(row)
}

// GetDiscountByID loads a discount by id.
func (q *Queries) GetDiscountByID(ctx context.Context, id uuid.UUID) (discount.Discount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id)
	return scanDiscount(row)
}

// CountUsageByUser counts prior redemptions by one user.
func (q *Queries) CountUsageByUser(ctx context.Context, discountID, userID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM discount_usages
		WHERE discount_id = $1 AND user_id = $2`, discountID, userID).Scan(&n)
	return n, err
}

// InsertUsage records one redemption.
func (q *Queries) InsertUsage(ctx context.Context, u discount.Usage) (discount.Usage, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO discount_usages (id, discount_id, user_id, order_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, discount_id, user_id, order_id, amount, created_at`,
		u.ID, u.DiscountID, u.UserID, u.OrderID, u.Amount, u.CreatedAt,
	)
	var out discount.Usage
	err := row.Scan(&out.ID, &out.DiscountID, &out.UserID, &out.OrderID, &out.Amount, &out.CreatedAt)
	return out, translateError(err)
}

// IncrementUsageCount bumps the global redemption counter.
func (q *Queries) IncrementUsageCount(ctx context.Context, discountID uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE discounts SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1`, discountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateDiscount inserts a new discount. Duplicate codes are conflicts.
func (q *Queries) CreateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO discounts (
			id, store_id, code, discount_type, value, min_order_amount, max_discount_amount,
			starts_at, ends_at, usage_limit, usage_limit_per_user, usage_count, is_active,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13, $13)
		RETURNING `+discountColumns,
		d.ID, d.StoreID, d.Code, d.Kind, d.Value, d.MinOrderAmount, d.MaxDiscountAmount,
		d.StartsAt, d.EndsAt, d.UsageLimit, d.UsageLimitPerUser, d.IsActive, d.CreatedAt,
	)
	created, err := scanDiscount(row)
	return created, translateError(err)
}

// UpdateDiscount persists a patched discount row.
func (q *Queries) UpdateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE discounts SET
			value = $2, min_order_amount = $3, max_discount_amount = $4,
			starts_at = $5, ends_at = $6, usage_limit = $7, usage_limit_per_user = $8,
			is_active = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+discountColumns,
		d.ID, d.Value, d.MinOrderAmount, d.MaxDiscountAmount,
		d.StartsAt, d.EndsAt, d.UsageLimit, d.UsageLimitPerUser,
		d.IsActive, d.UpdatedAt,
	)
	updated, err := scanDiscount(row)
	return updated, translateError(err)
}

// ListDiscounts pages discounts, optionally scoped to one store.
func (q *Queries) ListDiscounts(ctx context.Context, storeID *uuid.UUID, limit, offset int) ([]discount.Discount, int64, error) {
	var total int64
	if err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM discounts
		WHERE $1::uuid IS NULL OR store_id = $1`, storeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.db.Query(ctx, `
		SELECT `+discountColumns+` FROM discounts
		WHERE $1::uuid IS NULL OR store_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, storeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []discount.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// DeactivateDiscount soft-deletes a discount.
func (q *Queries) DeactivateDiscount(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE discounts SET is_active = FALSE, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
