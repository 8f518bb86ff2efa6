package view

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"kesef/internal/core"
)

// CurrencySymbol prefixes every amount on the page.
const CurrencySymbol = "₪"

// InfinitySymbol stands in for amounts beyond float64 range.
const InfinitySymbol = "∞"

var printer = message.NewPrinter(language.Hebrew)

// FormatNumber groups thousands and keeps up to three fraction digits.
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatAmount renders an amount with the shekel sign; unreadable
// amounts show as NaN and out-of-range ones as ∞.
func FormatAmount(a core.Amount) string {
	f, ok := a.Float64()
	switch {
	case !ok:
		return CurrencySymbol + "NaN"
	case math.IsInf(f, 1):
		return CurrencySymbol + InfinitySymbol
	case math.IsInf(f, -1):
		return CurrencySymbol + "-" + InfinitySymbol
	}
	return CurrencySymbol + FormatNumber(f)
}
