package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeOrderTaxOnPreDiscountSubtotal(t *testing.T) {
	totals := ComputeOrder(Input{
		Lines: []Line{
			{Quantity: 2, UnitPrice: dec("30.00")},
		},
		TaxRatePercent: dec("10"),
		ShippingCost:   dec("5.00"),
		ServiceFee:     dec("2.50"),
		DiscountAmount: dec("6.00"),
	})

	require.True(t, totals.Subtotal.Equal(dec("60.00")), "subtotal=%s", totals.Subtotal)
	// tax is assessed before the discount is subtracted
	require.True(t, totals.TaxAmount.Equal(dec("6.00")), "tax=%s", totals.TaxAmount)
	require.True(t, totals.TotalAmount.Equal(dec("67.50")), "total=%s", totals.TotalAmount)
}

func TestComputeOrderRoundsPerLine(t *testing.T) {
	totals := ComputeOrder(Input{
		Lines: []Line{
			{Quantity: 3, UnitPrice: dec("0.335")},
			{Quantity: 1, UnitPrice: dec("0.335")},
		},
	})

	// 3*0.335 = 1.005 -> 1.01 (half away from zero); 1*0.335 -> 0.34
	require.True(t, totals.Subtotal.Equal(dec("1.35")), "subtotal=%s", totals.Subtotal)
}

func TestComputeOrderNeverNegative(t *testing.T) {
	totals := ComputeOrder(Input{
		Lines:          []Line{{Quantity: 1, UnitPrice: dec("5.00")}},
		DiscountAmount: dec("100.00"),
	})
	require.True(t, totals.TotalAmount.IsZero(), "total=%s", totals.TotalAmount)
}

func TestComputeInvoiceDropsShippingAndFee(t *testing.T) {
	totals := ComputeInvoice(Input{
		Lines:          []Line{{Quantity: 1, UnitPrice: dec("100.00")}},
		TaxRatePercent: dec("8.25"),
		ShippingCost:   dec("9.99"),
		ServiceFee:     dec("1.00"),
	})
	require.True(t, totals.ShippingCost.IsZero())
	require.True(t, totals.ServiceFee.IsZero())
	// invoices bill subtotal + tax - discount only
	require.True(t, totals.TotalAmount.Equal(dec("108.25")), "total=%s", totals.TotalAmount)
}

func TestComputeInvoiceAppliesDiscount(t *testing.T) {
	totals := ComputeInvoice(Input{
		Lines:          []Line{{Quantity: 2, UnitPrice: dec("30.00")}},
		TaxRatePercent: dec("10"),
		ServiceFee:     dec("2.50"),
		DiscountAmount: dec("6.00"),
	})
	require.True(t, totals.TotalAmount.Equal(dec("60.00")), "total=%s", totals.TotalAmount)
}

func TestComputeSettlement(t *testing.T) {
	s := ComputeSettlement(dec("60.00"), dec("6.00"), dec("10"))
	require.True(t, s.Commission.Equal(dec("5.40")), "commission=%s", s.Commission)
	require.True(t, s.SellerEarnings.Equal(dec("48.60")), "earnings=%s", s.SellerEarnings)
}
