// Package core provides the transaction model and amount handling.
//
// This file contains the Amount type and the lenient parser used by the
// entry form. Amounts are read at float64 precision and summed as exact
// decimals; an amount that could not be read from the form is kept as an
// invalid value instead of being rejected.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount is a signed decimal that may be infinite or invalid.
//
// Finite amounts always fit in a float64, as a browser number would; a
// literal or sum beyond that range becomes an infinite amount. An invalid
// amount never compares as positive or negative, and any sum that
// includes one is invalid. The zero value is a valid zero.
type Amount struct {
	value   decimal.Decimal
	inf     int8 // +1 or -1 when infinite
	invalid bool
}

// maxFinite is the largest magnitude a finite amount may hold.
var maxFinite = decimal.NewFromFloat(math.MaxFloat64)

// NewAmount wraps a decimal value. Values beyond float64 range become
// infinite.
func NewAmount(d decimal.Decimal) Amount {
	switch {
	case d.Cmp(maxFinite) > 0:
		return InfiniteAmount(1)
	case d.Cmp(maxFinite.Neg()) < 0:
		return InfiniteAmount(-1)
	}
	return Amount{value: d}
}

// AmountFromInt is a convenience for whole amounts.
func AmountFromInt(v int64) Amount {
	return Amount{value: decimal.NewFromInt(v)}
}

// InvalidAmount returns the value stored when the form amount is unreadable.
func InvalidAmount() Amount {
	return Amount{invalid: true}
}

// InfiniteAmount returns positive infinity for sign >= 0, negative otherwise.
func InfiniteAmount(sign int) Amount {
	if sign < 0 {
		return Amount{inf: -1}
	}
	return Amount{inf: 1}
}

// ParseAmount reads the longest numeric literal at the start of s.
//
// Leading whitespace is skipped and trailing garbage ignored, so "12abc"
// reads as 12 and ".5" as 0.5. The value is rounded to float64 precision;
// literals beyond its range read as infinite, and "Infinity" is accepted.
// Input without a literal yields an invalid amount rather than an error.
//
// Examples:
//
//	ParseAmount("1000")   -> 1000
//	ParseAmount(" 12.5x") -> 12.5
//	ParseAmount("1e3")    -> 1000
//	ParseAmount("1e400")  -> Infinity
//	ParseAmount("abc")    -> invalid
func ParseAmount(s string) Amount {
	if sign, ok := infinityLiteral(s); ok {
		return InfiniteAmount(sign)
	}
	lit, ok := leadingLiteral(s)
	if !ok {
		return InvalidAmount()
	}
	f, err := strconv.ParseFloat(lit, 64)
	if math.IsInf(f, 0) {
		return InfiniteAmount(int(math.Copysign(1, f)))
	}
	// Underflow reports ErrRange with a usable value close to zero.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return InvalidAmount()
	}
	return NewAmount(decimal.NewFromFloat(f))
}

// infinityLiteral matches [sign] "Infinity" after leading whitespace.
func infinityLiteral(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	return sign, strings.HasPrefix(s, "Infinity")
}

// leadingLiteral extracts [sign] digits [. digits] [e [sign] digits] and
// rewrites it in a form decimal.NewFromString accepts.
func leadingLiteral(s string) (string, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]
	fracPart := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[i+1 : j]
		if intPart != "" || fracPart != "" {
			i = j
		}
	}
	if intPart == "" && fracPart == "" {
		return "", false
	}
	exp := ""
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		sign := ""
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			if s[j] == '-' {
				sign = "-"
			}
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			exp = "e" + sign + s[j:k]
		}
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if intPart == "" {
		intPart = "0"
	}
	b.WriteString(intPart)
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	b.WriteString(exp)
	return b.String(), true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Valid reports whether the amount holds a number; infinite amounts do.
func (a Amount) Valid() bool {
	return !a.invalid
}

// IsInf reports whether the amount is positive or negative infinity.
func (a Amount) IsInf() bool {
	return !a.invalid && a.inf != 0
}

// Decimal returns the underlying value; zero when invalid or infinite.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) IsPositive() bool {
	if a.invalid {
		return false
	}
	return a.inf > 0 || (a.inf == 0 && a.value.IsPositive())
}

func (a Amount) IsNegative() bool {
	if a.invalid {
		return false
	}
	return a.inf < 0 || (a.inf == 0 && a.value.IsNegative())
}

// Signed applies the sign implied by kind to the magnitude the user typed.
func (a Amount) Signed(k Kind) Amount {
	if k == Expense {
		return a.Neg()
	}
	return a
}

func (a Amount) Neg() Amount {
	switch {
	case a.invalid:
		return a
	case a.inf != 0:
		return Amount{inf: -a.inf}
	}
	return Amount{value: a.value.Neg()}
}

func (a Amount) Abs() Amount {
	if a.IsNegative() {
		return a.Neg()
	}
	return a
}

// Add returns a+b. It is invalid if either operand is, or for opposite
// infinities; a finite sum beyond float64 range is infinite.
func (a Amount) Add(b Amount) Amount {
	switch {
	case a.invalid || b.invalid:
		return InvalidAmount()
	case a.inf != 0 && b.inf != 0 && a.inf != b.inf:
		return InvalidAmount()
	case a.inf != 0:
		return a
	case b.inf != 0:
		return b
	}
	return NewAmount(a.value.Add(b.value))
}

// Sub returns a-b with the same rules as Add.
func (a Amount) Sub(b Amount) Amount {
	return a.Add(b.Neg())
}

// DivInt divides by a non-zero count.
func (a Amount) DivInt(n int64) Amount {
	switch {
	case a.invalid:
		return a
	case a.inf != 0:
		if n < 0 {
			return a.Neg()
		}
		return a
	}
	return Amount{value: a.value.Div(decimal.NewFromInt(n))}
}

// Equal compares two amounts; invalid amounts only equal each other.
func (a Amount) Equal(b Amount) bool {
	if a.invalid || b.invalid {
		return a.invalid == b.invalid
	}
	if a.inf != 0 || b.inf != 0 {
		return a.inf == b.inf
	}
	return a.value.Equal(b.value)
}

// Float64 is for chart geometry and spreadsheet cells only. Infinite
// amounts return ±Inf.
func (a Amount) Float64() (float64, bool) {
	switch {
	case a.invalid:
		return 0, false
	case a.inf != 0:
		return math.Inf(int(a.inf)), true
	}
	return a.value.InexactFloat64(), true
}

func (a Amount) String() string {
	switch {
	case a.invalid:
		return "NaN"
	case a.inf > 0:
		return "Infinity"
	case a.inf < 0:
		return "-Infinity"
	}
	return a.value.String()
}
