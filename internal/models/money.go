package models

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in poisha (1 Taka = 100 poisha).
type Money int64

const Taka Money = 100

// MaxAmount bounds any single amount accepted from clients or config.
// Sums of a few MaxAmount values stay far below the int64 range.
const MaxAmount Money = 1_000_000_000_000 * Taka

var (
	ErrMoneyPrecision = errors.New("amount supports at most two decimal places")
	ErrMoneyRange     = errors.New("amount is out of range")
)

// FromTaka converts a whole Taka value to Money.
func FromTaka(t int64) Money { return Money(t) * Taka }

// ParseMoney parses a Taka amount such as "150" or "898.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrMoneyPrecision
	}
	if minor.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, ErrMoneyRange
	}
	return Money(minor.IntPart()), nil
}

// AddChecked returns m+o, or false when the sum overflows int64.
func (m Money) AddChecked(o Money) (Money, bool) {
	sum := m + o
	if (o > 0 && sum < m) || (o < 0 && sum > m) {
		return 0, false
	}
	return sum, true
}

// Decimal returns the amount in Taka.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 1 && b[0] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = u
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
