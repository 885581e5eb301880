package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"-10.005", "-10.01"},
		{"10.004", "10"},
		{"2.675", "2.68"},
	}
	for _, tc := range cases {
		got := Round(decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("Round(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.RequireFromString("60.00"), decimal.RequireFromString("8.25"))
	if got.String() != "4.95" {
		t.Fatalf("expected 4.95 tax, got %s", got)
	}
}

func TestCurrencyFallback(t *testing.T) {
	if Currency("  ") != DefaultCurrency {
		t.Fatal("expected default currency for blank code")
	}
	if Currency("eur") != "EUR" {
		t.Fatal("expected upper-cased currency code")
	}
}
