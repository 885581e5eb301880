package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-bazaar/internal/catalog"
)

// GetProduct loads one product listing.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	var p catalog.Product
	err := q.db.QueryRow(ctx, `
		SELECT id, store_id, name, price, is_active, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &p.IsActive, &p.UpdatedAt)
	return p, err
}

// GetService loads one service offering.
func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (catalog.ServiceOffering, error) {
	var s catalog.ServiceOffering
	err := q.db.QueryRow(ctx, `
		SELECT id, store_id, name, price, is_active, updated_at
		FROM services WHERE id = $1`, id).
		Scan(&s.ID, &s.StoreID, &s.Name, &s.Price, &s.IsActive, &s.UpdatedAt)
	return s, err
}
