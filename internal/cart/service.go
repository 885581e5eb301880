package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/catalog"
	"github.com/noah-isme/backend-bazaar/internal/discount"
	"github.com/noah-isme/backend-bazaar/internal/events"
	"github.com/noah-isme/backend-bazaar/internal/money"
)

// ErrNotFound indicates the requested cart or line could not be located,
// including lines owned by another user.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier defines the persistence operations the cart service needs.
type Querier interface {
	GetCartByUser(ctx context.Context, userID uuid.UUID) (Cart, error)
	CreateCart(ctx context.Context, userID uuid.UUID, currency string) (Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (Item, error)
	InsertItem(ctx context.Context, item Item) (Item, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32, itemTotal decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error
	SaveTotals(ctx context.Context, c Cart) error
}

// Previewer evaluates a discount code without redeeming it.
type Previewer interface {
	Preview(ctx context.Context, code string, userID uuid.UUID, orderAmount decimal.Decimal) (discount.Result, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q        Querier
	Catalog  catalog.Source
	Discount Previewer
	Events   *events.Bus
	Currency string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get loads the caller's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Q.GetCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.Q.CreateCart(ctx, userID, money.Currency(s.Currency))
		}
		return Cart{}, err
	}
	c.Items, err = s.Q.ListItems(ctx, c.ID)
	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

// AddItem adds a catalog listing to the cart, merging with an existing line
// for the same listing. The merged line keeps its original unit price.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, productID, serviceID *uuid.UUID, qty int32) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return Cart{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	merged := false
	for _, item := range c.Items {
		if item.SameListing(productID, serviceID) {
			newQty := item.Quantity + qty
			itemTotal := money.Round(item.UnitPrice.Mul(decimal.NewFromInt32(newQty)))
			if err := s.Q.UpdateItemQuantity(ctx, item.ID, newQty, itemTotal); err != nil {
				return Cart{}, err
			}
			merged = true
			break
		}
	}
	if !merged {
		priced, err := catalog.Resolve(ctx, s.Catalog, productID, serviceID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
				return Cart{}, fmt.Errorf("listing unavailable: %w", ErrNotFound)
			}
			return Cart{}, err
		}
		now := s.now()
		if _, err := s.Q.InsertItem(ctx, Item{
			ID:        uuid.New(),
			CartID:    c.ID,
			ProductID: priced.ProductID,
			ServiceID: priced.ServiceID,
			StoreID:   priced.StoreID,
			Name:      priced.Name,
			Quantity:  qty,
			UnitPrice: priced.UnitPrice,
			ItemTotal: money.Round(priced.UnitPrice.Mul(decimal.NewFromInt32(qty))),
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return Cart{}, err
		}
	}
	return s.refresh(ctx, &c)
}

// UpdateQuantity sets the quantity on a line the caller owns. Zero removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int32) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if qty < 0 {
		return Cart{}, fmt.Errorf("quantity must not be negative: %w", ErrInvalidInput)
	}
	c, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}
	if qty == 0 {
		if err := s.Q.DeleteItem(ctx, item.ID); err != nil {
			return Cart{}, err
		}
	} else {
		itemTotal := money.Round(item.UnitPrice.Mul(decimal.NewFromInt32(qty)))
		if err := s.Q.UpdateItemQuantity(ctx, item.ID, qty, itemTotal); err != nil {
			return Cart{}, err
		}
	}
	return s.refresh(ctx, &c)
}

// RemoveItem deletes a line the caller owns.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Q.DeleteItem(ctx, item.ID); err != nil {
		return Cart{}, err
	}
	return s.refresh(ctx, &c)
}

// ApplyDiscount validates the code against the current subtotal and stores
// it on the cart. Validation here is a preview; redemption happens at
// checkout.
func (s *Service) ApplyDiscount(ctx context.Context, userID uuid.UUID, code string) (Cart, error) {
	if s == nil || s.Q == nil || s.Discount == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	res, err := s.Discount.Preview(ctx, code, userID, c.Subtotal)
	if err != nil {
		return Cart{}, err
	}
	c.DiscountCode = &res.Code
	c.DiscountAmount = res.DiscountAmount
	return s.refresh(ctx, &c)
}

// RemoveDiscount drops the applied code and recomputes totals.
func (s *Service) RemoveDiscount(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	c.DiscountCode = nil
	c.DiscountAmount = decimal.Zero
	return s.refresh(ctx, &c)
}

// Clear removes every line and zeroes the derived fields.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (Cart, error) {
	if s == nil || s.Q == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Q.DeleteItemsByCart(ctx, c.ID); err != nil {
		return Cart{}, err
	}
	ClearDerived(&c)
	c.UpdatedAt = s.now()
	if err := s.Q.SaveTotals(ctx, c); err != nil {
		return Cart{}, err
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicCartCleared, c.ID, map[string]any{
			"userId": c.UserID,
		})
	}
	return c, nil
}

func (s *Service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (Cart, Item, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return Cart{}, Item{}, err
	}
	item, err := s.Q.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, Item{}, ErrNotFound
		}
		return Cart{}, Item{}, err
	}
	// lines in another user's cart are indistinguishable from missing ones
	if item.CartID != c.ID {
		return Cart{}, Item{}, ErrNotFound
	}
	return c, item, nil
}

func (s *Service) refresh(ctx context.Context, c *Cart) (Cart, error) {
	items, err := s.Q.ListItems(ctx, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Items = items
	Recalculate(c)
	c.UpdatedAt = s.now()
	if err := s.Q.SaveTotals(ctx, *c); err != nil {
		return Cart{}, err
	}
	return *c, nil
}
