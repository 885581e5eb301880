// Package pricing computes order and invoice totals. All arithmetic is
// decimal with two-place rounding; tax is assessed on the pre-discount
// subtotal.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/money"
)

// Line is one priced order line.
type Line struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Input carries everything the calculator needs for an order.
type Input struct {
	Lines          []Line
	TaxRatePercent decimal.Decimal
	ShippingCost   decimal.Decimal
	ServiceFee     decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Totals is the computed financial breakdown.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	ServiceFee     decimal.Decimal `json:"serviceFee"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// Subtotal sums the rounded line totals.
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		lineTotal := money.Round(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
	}
	return money.Round(subtotal)
}

// ComputeOrder produces the totals for a checkout order:
//
//	total = subtotal + tax + shipping + serviceFee - discount
//
// The discount never pushes the total below zero.
func ComputeOrder(in Input) Totals {
	subtotal := Subtotal(in.Lines)
	tax := money.Percent(subtotal, in.TaxRatePercent)
	shipping := money.Round(in.ShippingCost)
	fee := money.Round(in.ServiceFee)
	disc := money.ClampNonNegative(money.Round(in.DiscountAmount))
	total := subtotal.Add(tax).Add(shipping).Add(fee).Sub(disc)
	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		ServiceFee:     fee,
		DiscountAmount: disc,
		TotalAmount:    money.ClampNonNegative(money.Round(total)),
	}
}

// ComputeInvoice produces invoice totals. Invoices carry neither shipping
// nor the platform service fee: total = subtotal + tax - discount.
func ComputeInvoice(in Input) Totals {
	in.ShippingCost = decimal.Zero
	in.ServiceFee = decimal.Zero
	return ComputeOrder(in)
}

// Settlement is the per-seller split of an order.
type Settlement struct {
	Commission     decimal.Decimal `json:"commission"`
	SellerEarnings decimal.Decimal `json:"sellerEarnings"`
}

// ComputeSettlement splits the discounted subtotal between the platform and
// the seller at the given commission rate.
func ComputeSettlement(subtotal, discount, commissionRatePercent decimal.Decimal) Settlement {
	base := money.ClampNonNegative(subtotal.Sub(discount))
	commission := money.Percent(base, commissionRatePercent)
	return Settlement{
		Commission:     commission,
		SellerEarnings: money.Round(base.Sub(commission)),
	}
}
