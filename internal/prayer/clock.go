package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Clock is a wall-clock time of day with second precision, stored as seconds
// since local midnight. Valid values are in [0, 86400).
type Clock int

// NewClock builds a Clock from hours, minutes and seconds.
func NewClock(h, m, s int) (Clock, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("%w: invalid time %02d:%02d:%02d", ErrInput, h, m, s)
	}
	return Clock(h*3600 + m*60 + s), nil
}

// MustClock is NewClock for constant inputs; it panics on invalid values.
func MustClock(h, m int) Clock {
	c, err := NewClock(h, m, 0)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// ParseClock parses "HH:MM" or "HH:MM:SS". A trailing parenthesised zone
// such as "04:12 (BST)" is ignored.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInput, s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid time %q", ErrInput, s)
		}
		vals[i] = v
	}
	return NewClock(vals[0], vals[1], vals[2])
}

func (c Clock) Hour() int   { return int(c) / 3600 }
func (c Clock) Minute() int { return int(c) % 3600 / 60 }
func (c Clock) Second() int { return int(c) % 60 }

// Seconds returns the number of seconds since midnight.
func (c Clock) Seconds() int { return int(c) }

// String formats as HH:MM, which is the precision prayer times are published in.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format renders the clock with a time layout such as "15:04" or "3:04 PM".
func (c Clock) Format(layout string) string {
	return c.On(Date{Year: 2000, Month: time.January, Day: 1}, time.UTC).Format(layout)
}

// On places the clock on a calendar date in loc.
func (c Clock) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), c.Second(), 0, loc)
}

// minutesBetween returns whole minutes from a to b, truncated toward zero.
func minutesBetween(a, b Clock) int {
	return (int(b) - int(a)) / 60
}

// minutesToMidnight counts the minutes from c up to and including the last
// minute of the day, so 21:00 yields 180.
func minutesToMidnight(c Clock) int {
	return (secondsPerDay-1-int(c))/60 + 1
}

// minutesFromMidnight counts whole minutes from 00:00 to c.
func minutesFromMidnight(c Clock) int {
	return int(c) / 60
}

// Date is a civil calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate normalises overflowing values the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrInput, s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.midnight().Format(dateLayout)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Before(o Date) bool { return d.midnight().Before(o.midnight()) }
func (d Date) After(o Date) bool  { return d.midnight().After(o.midnight()) }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.midnight().Sub(d.midnight()).Hours() / 24)
}

func (d Date) Weekday() time.Weekday {
	return d.midnight().Weekday()
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
