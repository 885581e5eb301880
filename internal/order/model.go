package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a placed order with its immutable financial snapshot. Totals
// are computed once at checkout and never recomputed; the discount is
// referenced by code string, not by foreign key.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	UserID         uuid.UUID       `json:"userId"`
	Status         Status          `json:"status"`
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	ServiceFee     decimal.Decimal `json:"serviceFee"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Commission     decimal.Decimal `json:"commission"`
	SellerEarnings decimal.Decimal `json:"sellerEarnings"`
	DiscountCode   *string         `json:"discountCode,omitempty"`
	ShippingAddr   json.RawMessage `json:"shippingAddress,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CancelReason   *string         `json:"cancelReason,omitempty"`
	Items          []Item          `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Item is one immutable order line.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID *uuid.UUID      `json:"productId,omitempty"`
	ServiceID *uuid.UUID      `json:"serviceId,omitempty"`
	StoreID   uuid.UUID       `json:"storeId"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ItemTotal decimal.Decimal `json:"itemTotal"`
}
