// Package money implements exact arithmetic over integer minor currency units.
//
// A Money value never carries a fractional part and never passes through a
// floating point type. The currency it is denominated in belongs to the owning
// budget, not to the value.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// Money is a signed count of minor currency units (e.g. cents).
type Money int64

const Zero Money = 0

func FromMinorUnits(units int64) Money {
	return Money(units)
}

// MinorUnits returns the raw integer count of minor units.
func (m Money) MinorUnits() int64 {
	return int64(m)
}

// Add returns m + o, or ErrArithmeticOverflow if the result does not fit in int64.
func (m Money) Add(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticOverflow, m, o)
	}
	return m + o, nil
}

// Sub returns m - o, or ErrArithmeticOverflow if the result does not fit in int64.
func (m Money) Sub(o Money) (Money, error) {
	if (o < 0 && m > math.MaxInt64+o) || (o > 0 && m < math.MinInt64+o) {
		return 0, fmt.Errorf("%w: %d - %d", ErrArithmeticOverflow, m, o)
	}
	return m - o, nil
}

// Neg returns -m. The most negative value has no positive counterpart.
func (m Money) Neg() (Money, error) {
	if m == math.MinInt64 {
		return 0, fmt.Errorf("%w: -(%d)", ErrArithmeticOverflow, m)
	}
	return -m, nil
}

// Cmp returns -1, 0 or +1 depending on whether m is less than, equal to or
// greater than o.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

func (m Money) IsZero() bool {
	return m == 0
}

func (m Money) IsNegative() bool {
	return m < 0
}

// Sum adds all values, failing on the first overflow.
func Sum(values ...Money) (Money, error) {
	total := Zero
	for _, v := range values {
		var err error
		total, err = total.Add(v)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// MarshalJSON encodes the value as a bare JSON integer.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(m), 10), nil
}

// UnmarshalJSON accepts only a bare JSON integer. Quoted strings, fractions and
// exponents are rejected instead of being rounded.
func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return fmt.Errorf("%w: %s", ErrArithmeticOverflow, data)
		}
		return fmt.Errorf("money: %s is not an integer amount of minor units", data)
	}
	*m = Money(v)
	return nil
}

// Scan implements sql.Scanner for BIGINT columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = Money(v)
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*m = Money(parsed)
	case nil:
		*m = Zero
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}
