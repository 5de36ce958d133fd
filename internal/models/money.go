// Package models defines the domain types shared across the GDB services
package models

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount held as a count of cents (scale 2).
// Balances and amounts never touch floating point; the wire form is a decimal
// string with exactly two fractional digits.
type Money int64

// MaxMoney is the largest representable balance in cents.
const MaxMoney = Money(math.MaxInt64)

// amountPattern is the only accepted wire shape: optional sign, integer part,
// exactly two fractional digits.
var amountPattern = regexp.MustCompile(`^-?\d+\.\d{2}$`)

// ParseMoney parses a wire amount string into cents. Amounts with a scale
// other than 2 are rejected outright rather than rounded.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, NewError(CodeValidation, "amount %q must be a decimal with exactly 2 fractional digits", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, WrapError(CodeValidation, err, "invalid amount %q", s)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, NewError(CodeValidation, "amount %q has more than 2 fractional digits", s)
	}
	if !cents.BigInt().IsInt64() {
		return 0, NewError(CodeValidation, "amount %q is out of range", s)
	}
	return Money(cents.IntPart()), nil
}

// String renders the amount as a scale-2 decimal string.
func (m Money) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

// Cents returns the raw scaled-integer value.
func (m Money) Cents() int64 { return int64(m) }

// Add returns m+n, reporting overflow instead of wrapping.
func (m Money) Add(n Money) (Money, bool) {
	if n > 0 && m > MaxMoney-n {
		return 0, false
	}
	if n < 0 && m < math.MinInt64-n {
		return 0, false
	}
	return m + n, true
}

// Sub returns m-n, reporting overflow instead of wrapping.
func (m Money) Sub(n Money) (Money, bool) {
	return m.Add(-n)
}

// MarshalJSON renders Money as a decimal string per the wire contract.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts only strict scale-2 decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return WrapError(CodeValidation, err, "amount must be a decimal string")
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
