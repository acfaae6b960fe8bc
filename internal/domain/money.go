package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const centsPrecision = 2

var million = decimal.NewFromInt(1_000_000)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Millions converts an amount in base currency units to display millions.
func Millions(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(million)
}

// FromMillions converts a display amount in millions to base currency units.
func FromMillions(amountMM decimal.Decimal) decimal.Decimal {
	return amountMM.Mul(million)
}

// FormatMillions renders an amount in base units as "$X.XXM".
func FormatMillions(amount decimal.Decimal) string {
	return "$" + Millions(amount).StringFixed(centsPrecision) + "M"
}

// FormatPercent renders a fraction (0.1219) as a percentage string ("12.19%").
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(centsPrecision) + "%"
}

// FormatMoney rounds to cents and strips trailing zeros. Returns "0" for zero.
func FormatMoney(d decimal.Decimal) string {
	rounded := d.Round(centsPrecision)
	s := rounded.StringFixed(centsPrecision)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
