package common

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with thousands separators. Whole amounts
// have no fraction; others keep up to 3 decimals with trailing zeros dropped.
func FormatAmount(d decimal.Decimal) string {
	r := d.Round(3)
	whole := r.Truncate(0)

	sign := ""
	if r.Sign() < 0 {
		sign = "-"
	}
	out := sign + humanize.BigComma(whole.Abs().BigInt())

	if frac := r.Sub(whole).Abs(); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

// FormatMoney prefixes a formatted amount with its currency code ("TZS 15,000").
func FormatMoney(currency string, d decimal.Decimal) string {
	if currency == "" {
		return FormatAmount(d)
	}
	return currency + " " + FormatAmount(d)
}
