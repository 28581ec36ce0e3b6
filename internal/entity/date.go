package entity

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// lenientDateLayouts are accepted when decoding invoices supplied as JSON.
var lenientDateLayouts = []string{
	dateLayout,
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
	"02-01-2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for _, layout := range lenientDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}
