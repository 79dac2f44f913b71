// Package schedule turns a doctor's weekly template into bookable day slots
// and resolves them against existing appointments. Everything here is pure.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the one canonical day-of-week enum. Monday is zero.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY",
}

// AllWeekdays lists Monday..Sunday in order.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ISO returns 1 for Monday through 7 for Sunday.
func (d Weekday) ISO() int { return int(d) + 1 }

// WeekdayFromISO is the inverse of ISO.
func WeekdayFromISO(n int) (Weekday, error) {
	d := Weekday(n - 1)
	if !d.Valid() {
		return 0, fmt.Errorf("iso weekday %d out of range", n)
	}
	return d, nil
}

// WeekdayOf maps a time.Weekday (Sunday=0) onto the Monday-first enum.
func WeekdayOf(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

// ParseWeekday accepts the wire name in any case.
func ParseWeekday(s string) (Weekday, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == up {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
