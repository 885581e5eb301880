package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/money"
)

// Cart is a user's single active cart with its derived totals. Derived
// fields are recomputed on every mutation and never trusted from clients.
type Cart struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	Items          []Item          `json:"items"`
	ItemCount      int32           `json:"itemCount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DiscountCode   *string         `json:"discountCode,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Item is one cart line. Exactly one of ProductID and ServiceID is set.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cartId"`
	ProductID *uuid.UUID      `json:"productId,omitempty"`
	ServiceID *uuid.UUID      `json:"serviceId,omitempty"`
	StoreID   uuid.UUID       `json:"storeId"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ItemTotal decimal.Decimal `json:"itemTotal"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SameListing reports whether two lines reference the same catalog entry.
func (i Item) SameListing(productID, serviceID *uuid.UUID) bool {
	switch {
	case i.ProductID != nil && productID != nil:
		return *i.ProductID == *productID
	case i.ServiceID != nil && serviceID != nil:
		return *i.ServiceID == *serviceID
	default:
		return false
	}
}

// Recalculate rebuilds every derived field from the item lines. It is pure
// and idempotent: running it twice yields the same cart.
func Recalculate(c *Cart) {
	subtotal := decimal.Zero
	var count int32
	for idx := range c.Items {
		item := &c.Items[idx]
		item.ItemTotal = money.Round(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
		subtotal = subtotal.Add(item.ItemTotal)
		count += item.Quantity
	}
	c.Subtotal = money.Round(subtotal)
	c.ItemCount = count
	discount := money.ClampNonNegative(c.DiscountAmount)
	c.DiscountAmount = discount
	c.TotalAmount = money.Round(c.Subtotal.Add(c.TaxAmount).Add(c.ShippingCost).Sub(discount))
}

// ClearDerived zeroes every derived field and drops the applied discount.
func ClearDerived(c *Cart) {
	c.Items = nil
	c.ItemCount = 0
	c.Subtotal = decimal.Zero
	c.TaxAmount = decimal.Zero
	c.ShippingCost = decimal.Zero
	c.DiscountAmount = decimal.Zero
	c.DiscountCode = nil
	c.TotalAmount = decimal.Zero
}
