package holdings

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for purchase dates (ISO-8601 date).
const DateFormat = "2006-01-02"

// Date represents a purchase date with day-level granularity. Two Date values
// compare equal exactly when they name the same calendar day, regardless of
// the timezone or format they were parsed from.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date.
func Today() Date { return NewDate(time.Now().Date()) }

// ParseDate reads a date from its string form. It accepts a plain ISO date
// ("2024-01-31") or a full RFC3339 timestamp, of which only the calendar day
// is kept.
func ParseDate(s string) (Date, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateFormat, trimmed); err == nil {
		return NewDate(t.Date()), nil
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return NewDate(t.Date()), nil
	}
	return Date{}, fmt.Errorf("parse date %q: want %s or RFC3339", s, DateFormat)
}

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// String formats the date as an ISO date.
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool {
	return d.y == 0 && d.m == 0 && d.d == 0
}

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// MarshalJSON encodes the date as an ISO date string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO date or RFC3339 string. An empty string decodes
// to the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// time returns a canonical representation of the day (midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }
