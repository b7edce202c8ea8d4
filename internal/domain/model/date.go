package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date layouts shared by the season file, export names and the output header.
const (
	// KeyLayout is the canonical form embedded in export file names (event_MM-DD-YYYY).
	KeyLayout = "01-02-2006"
	// ISOLayout is the YYYY-MM-DD form used by older export names.
	ISOLayout = "2006-01-02"
	// DayFirstLayout reads DD/MM/YYYY with or without leading zeros.
	DayFirstLayout = "2/1/2006"
	// MonthFirstLayout reads MM/DD/YYYY with or without leading zeros.
	MonthFirstLayout = "1/2/2006"
	// HeaderLayout renders dates as DD/MM/YYYY in the standings header.
	HeaderLayout = "02/01/2006"
)

// ErrInvalidDate is returned when a date string matches no accepted layout.
var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day without time or zone. The zero Date is invalid.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the calendar day of t in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses s with the unambiguous ISO and key layouts first, then
// with each of slashLayouts in order. Slash forms are ambiguous between
// day-first and month-first, so the caller decides which to accept.
func ParseDate(s string, slashLayouts ...string) (Date, error) {
	s = strings.TrimSpace(s)
	layouts := []string{ISOLayout, KeyLayout}
	if strings.Contains(s, "/") {
		layouts = slashLayouts
		if len(layouts) == 0 {
			layouts = []string{DayFirstLayout}
		}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.Time().Compare(o.Time())
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// Format renders d with a time layout.
func (d Date) Format(layout string) string { return d.Time().Format(layout) }

// Key renders d in the canonical MM-DD-YYYY form.
func (d Date) Key() string { return d.Format(KeyLayout) }

// String implements fmt.Stringer using the ISO form.
func (d Date) String() string { return d.Format(ISOLayout) }
