package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/cart"
)

const cartColumns = `id, user_id, item_count, subtotal, tax_amount, shipping_cost,
	discount_amount, discount_code, total_amount, currency, created_at, updated_at`

func scanCart(row interface{ Scan(...any) error }) (cart.Cart, error) {
	var c cart.Cart
	err := row.Scan(
		&c.ID, &c.UserID, &c.ItemCount, &c.Subtotal, &c.TaxAmount, &c.ShippingCost,
		&c.DiscountAmount, &c.DiscountCode, &c.TotalAmount, &c.Currency, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetCartByUser loads the user's single cart.
func (q *Queries) GetCartByUser(ctx context.Context, userID uuid.UUID) (cart.Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
	return scanCart(row)
}

// CreateCart inserts an empty cart for the user.
func (q *Queries) CreateCart(ctx context.Context, userID uuid.UUID, currency string) (cart.Cart, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, currency)
		VALUES ($1, $2, $3)
		RETURNING `+cartColumns,
		uuid.New(), userID, currency,
	)
	c, err := scanCart(row)
	return c, translateError(err)
}

const cartItemColumns = `id, cart_id, product_id, service_id, store_id, name,
	quantity, unit_price, item_total, created_at, updated_at`

func scanCartItem(row interface{ Scan(...any) error }) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.ServiceID, &it.StoreID, &it.Name,
		&it.Quantity, &it.UnitPrice, &it.ItemTotal, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

// ListItems returns the lines of a cart, oldest first.
func (q *Queries) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.Item, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []cart.Item
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem loads one cart line by id.
func (q *Queries) GetItem(ctx context.Context, itemID uuid.UUID) (cart.Item, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, itemID)
	return scanCartItem(row)
}

// InsertItem adds a new line to a cart.
func (q *Queries) InsertItem(ctx context.Context, it cart.Item) (cart.Item, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, service_id, store_id, name, quantity, unit_price, item_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+cartItemColumns,
		it.ID, it.CartID, it.ProductID, it.ServiceID, it.StoreID, it.Name, it.Quantity, it.UnitPrice, it.ItemTotal,
	)
	inserted, err := scanCartItem(row)
	return inserted, translateError(err)
}

// UpdateItemQuantity sets quantity and the derived line total.
func (q *Queries) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32, itemTotal decimal.Decimal) error {
	_, err := q.db.Exec(ctx, `
		UPDATE cart_items SET quantity = $2, item_total = $3, updated_at = now()
		WHERE id = $1`, itemID, quantity, itemTotal)
	return err
}

// DeleteItem removes one line.
func (q *Queries) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	return err
}

// DeleteItemsByCart removes every line of a cart.
func (q *Queries) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

// SaveTotals persists the recomputed derived fields.
func (q *Queries) SaveTotals(ctx context.Context, c cart.Cart) error {
	_, err := q.db.Exec(ctx, `
		UPDATE carts SET
			item_count = $2, subtotal = $3, tax_amount = $4, shipping_cost = $5,
			discount_amount = $6, discount_code = $7, total_amount = $8, updated_at = $9
		WHERE id = $1`,
		c.ID, c.ItemCount, c.Subtotal, c.TaxAmount, c.ShippingCost,
		c.DiscountAmount, c.DiscountCode, c.TotalAmount, c.UpdatedAt,
	)
	return err
}
