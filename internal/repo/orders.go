package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-bazaar/internal/order"
)

const orderColumns = `id, order_number, user_id, status, currency, subtotal, tax_amount,
	shipping_cost, service_fee, discount_amount, total_amount, commission, seller_earnings,
	discount_code, shipping_address, notes, cancel_reason, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Currency, &o.Subtotal, &o.TaxAmount,
		&o.ShippingCost, &o.ServiceFee, &o.DiscountAmount, &o.TotalAmount, &o.Commission, &o.SellerEarnings,
		&o.DiscountCode, &o.ShippingAddr, &o.Notes, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// NextSequence atomically advances the per-scope counter and returns the
// new value. The upsert makes the first draw create the row.
func (q *Queries) NextSequence(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO sequence_counters (scope, value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, scope).Scan(&value)
	return value, err
}

// InsertOrder persists the immutable financial snapshot.
func (q *Queries) InsertOrder(ctx context.Context, o order.Order) (order.Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, status, currency, subtotal, tax_amount,
			shipping_cost, service_fee, discount_amount, total_amount, commission,
			seller_earnings, discount_code, shipping_address, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING `+orderColumns,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.Currency, o.Subtotal, o.TaxAmount,
		o.ShippingCost, o.ServiceFee, o.DiscountAmount, o.TotalAmount, o.Commission,
		o.SellerEarnings, o.DiscountCode, o.ShippingAddr, o.Notes, o.CreatedAt,
	)
	created, err := scanOrder(row)
	return created, translateError(err)
}

const orderItemColumns = `id, order_id, product_id, service_id, store_id, name, quantity, unit_price, item_total`

func scanOrderItem(row interface{ Scan(...any) error }) (order.Item, error) {
	var it order.Item
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.ServiceID, &it.StoreID, &it.Name,
		&it.Quantity, &it.UnitPrice, &it.ItemTotal,
	)
	return it, err
}

// InsertOrderItem persists one immutable order line.
func (q *Queries) InsertOrderItem(ctx context.Context, it order.Item) (order.Item, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (id, order_id, product_id, service_id, store_id, name, quantity, unit_price, item_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderItemColumns,
		it.ID, it.OrderID, it.ProductID, it.ServiceID, it.StoreID, it.Name, it.Quantity, it.UnitPrice, it.ItemTotal,
	)
	created, err := scanOrderItem(row)
	return created, translateError(err)
}

// GetOrder loads one order by id.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row for a status transition.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

// ListOrderItems returns the lines of one order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []order.Item
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrdersByUser pages a user's orders, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]order.Order, int64, error) {
	var total int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// UpdateOrderStatus applies a validated transition.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, reason *string, at time.Time) (order.Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, cancel_reason = COALESCE($3, cancel_reason), updated_at = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		id, status, reason, at,
	)
	return scanOrder(row)
}
