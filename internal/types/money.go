package types

import (
	"github.com/shopspring/decimal"
)

// FormatCents renders an integer minor-currency amount as a major-unit
// decimal string, e.g. 16050 -> "160.50". All arithmetic in the billing
// engine stays in integer cents; this is a display concern only.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
