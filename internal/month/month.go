// Package month provides the calendar month key budgets are organised by.
package month

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const layout = "2006-01"

// Min and Max bound the months a ledger accepts. Balance chains are swept
// month by month, so the range also bounds the work one projection can cause.
const (
	Min Month = 1900 * 12
	Max Month = 2199*12 + 11
)

// Month is a calendar year/month, stored as the number of months since
// January of year 0 so that ordering and distance are plain integer math.
type Month int32

func New(year int, m time.Month) Month {
	return Month(year*12 + int(m) - 1)
}

// Of returns the month containing t, evaluated in UTC.
func Of(t time.Time) Month {
	t = t.UTC()
	return New(t.Year(), t.Month())
}

// Parse reads the YYYY-MM form and rejects months outside Min..Max.
func Parse(s string) (Month, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("month: invalid %q, want YYYY-MM", s)
	}
	m := Of(t)
	if !m.Valid() {
		return 0, fmt.Errorf("month: %q outside %s..%s", s, Min, Max)
	}
	return m, nil
}

func MustParse(s string) Month {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Valid reports whether m lies within Min..Max.
func (m Month) Valid() bool {
	return m >= Min && m <= Max
}

func (m Month) Year() int {
	return int(m) / 12
}

func (m Month) Month() time.Month {
	return time.Month(int(m)%12 + 1)
}

func (m Month) Next() Month {
	return m + 1
}

func (m Month) Prev() Month {
	return m - 1
}

func (m Month) AddMonths(n int) Month {
	return m + Month(n)
}

// Sub returns the number of months from o to m.
func (m Month) Sub(o Month) int {
	return int(m - o)
}

func (m Month) Before(o Month) bool {
	return m < o
}

func (m Month) After(o Month) bool {
	return m > o
}

func (m Month) Compare(o Month) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// Start is midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// End is the exclusive upper bound of the month, the start of the next one.
func (m Month) End() time.Time {
	return m.Next().Start()
}

// Contains reports whether t falls inside the month (in UTC).
func (m Month) Contains(t time.Time) bool {
	return Of(t) == m
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns holding the first of the month.
func (m *Month) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*m = Of(v)
	case string:
		return m.scanString(v)
	case []byte:
		return m.scanString(string(v))
	default:
		return fmt.Errorf("month: cannot scan %T", src)
	}
	return nil
}

func (m *Month) scanString(s string) error {
	if len(s) >= len("2006-01-02") {
		t, err := time.Parse("2006-01-02", s[:10])
		if err != nil {
			return fmt.Errorf("month: scan %q: %w", s, err)
		}
		*m = Of(t)
		return nil
	}
	return m.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. The first of the month is sent as a plain
// date so the session time zone cannot shift it.
func (m Month) Value() (driver.Value, error) {
	return m.Start().Format(time.DateOnly), nil
}

// Earliest returns the smaller of a and b.
func Earliest(a, b Month) Month {
	if b < a {
		return b
	}
	return a
}

// Latest returns the larger of a and b.
func Latest(a, b Month) Month {
	if b > a {
		return b
	}
	return a
}
