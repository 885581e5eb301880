// Package money defines the rounding and currency policy shared by every
// financial computation in the service.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when neither the store nor the user carries one.
const DefaultCurrency = "USD"

// Places is the number of fractional digits kept on all monetary values,
// matching the numeric(18,2) columns in the schema.
const Places = 2

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round normalises an amount to the platform precision. Rounding is half
// away from zero, applied after every multiplication.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Mul multiplies two amounts and rounds the result.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Mul(b))
}

// Percent applies rate (expressed in percent, e.g. 7.5) to amount.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate).Div(decimal.NewFromInt(100)))
}

// ClampNonNegative floors an amount at zero.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Currency normalises a currency code, falling back to the platform default.
func Currency(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return DefaultCurrency
	}
	return trimmed
}
