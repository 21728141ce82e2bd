package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for payment dates.
const DateLayout = "2006-01-02"

// Date is a calendar date in "yyyy-mm-dd" form. The zero value means the date
// is absent and encodes as JSON null.
type Date string

// NewDate formats t as a Date in t's own location.
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s as "yyyy-mm-dd". An empty string yields the absent date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: invalid date %q (want yyyy-mm-dd)", ErrValidation, s)
	}
	return Date(s), nil
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d == ""
}

// Time returns the date at midnight UTC. ok is false for absent or malformed dates.
func (d Date) Time() (t time.Time, ok bool) {
	if d == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MarshalJSON encodes the absent date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts null, a "yyyy-mm-dd" string, or a full timestamp
// string (older clients stored ISO timestamps), keeping only the date part.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			s = t.UTC().Format(DateLayout)
		}
	}
	*d = Date(s)
	return nil
}
