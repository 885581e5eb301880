// Package catalog exposes the priced items carts and orders reference.
// Prices always come from the catalog at add-to-cart time; clients never
// supply them.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the referenced product or service does not exist
// or is not purchasable.
var ErrNotFound = errors.New("catalog item not found")

// Product is a physical listing sold by a store.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"storeId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"isActive"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ServiceOffering is a bookable service sold by a store.
type ServiceOffering struct {
	ID        uuid.UUID       `json:"id"`
	StoreID   uuid.UUID       `json:"storeId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"isActive"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Source resolves catalog items to their current price.
type Source interface {
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	GetService(ctx context.Context, id uuid.UUID) (ServiceOffering, error)
}

// PricedItem is the normalised view cart and checkout operate on.
type PricedItem struct {
	ProductID *uuid.UUID
	ServiceID *uuid.UUID
	StoreID   uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
}

// Resolve looks up exactly one of productID or serviceID and returns the
// priced item. Inactive items resolve to ErrNotFound.
func Resolve(ctx context.Context, src Source, productID, serviceID *uuid.UUID) (PricedItem, error) {
	switch {
	case productID != nil && serviceID != nil:
		return PricedItem{}, errors.New("catalog: item cannot be both product and service")
	case productID != nil:
		p, err := src.GetProduct(ctx, *productID)
		if err != nil {
			return PricedItem{}, err
		}
		if !p.IsActive {
			return PricedItem{}, ErrNotFound
		}
		return PricedItem{ProductID: productID, StoreID: p.StoreID, Name: p.Name, UnitPrice: p.Price}, nil
	case serviceID != nil:
		s, err := src.GetService(ctx, *serviceID)
		if err != nil {
			return PricedItem{}, err
		}
		if !s.IsActive {
			return PricedItem{}, ErrNotFound
		}
		return PricedItem{ServiceID: serviceID, StoreID: s.StoreID, Name: s.Name, UnitPrice: s.Price}, nil
	default:
		return PricedItem{}, errors.New("catalog: product or service id is required")
	}
}
