package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders d with two decimals, rounding half away from zero.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MoneyWithCurrency prefixes the amount with a currency label when set.
func MoneyWithCurrency(currency string, d decimal.Decimal) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return Money(d)
	}
	return currency + " " + Money(d)
}

// Percent renders a percentage input for tables ("12.5" stays "12.50").
func Percent(d decimal.Decimal) string {
	return d.StringFixed(2)
}
