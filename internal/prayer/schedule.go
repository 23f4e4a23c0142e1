package prayer

import (
	"context"
	"errors"
	"fmt"
)

// Window is the span of time in which a prayer can be performed.
// Start is inclusive and End exclusive. Isha's End is the following day's
// Fajr start, so CrossesMidnight is set and End reads earlier than Start.
type Window struct {
	Name            Name
	Start           Clock
	End             Clock
	CrossesMidnight bool
}

// Contains reports whether c falls inside the window on the window's own day
// or, for Isha, after midnight and before the next Fajr.
func (w Window) Contains(c Clock) bool {
	if w.CrossesMidnight {
		return c >= w.Start || c < w.End
	}
	return c >= w.Start && c < w.End
}

// DurationMinutes is the window length in whole minutes, splitting at midnight
// for Isha.
func (w Window) DurationMinutes() int {
	if w.CrossesMidnight {
		return minutesToMidnight(w.Start) + minutesFromMidnight(w.End)
	}
	return minutesBetween(w.Start, w.End)
}

// DaySchedule holds the five prayer windows of one calendar date.
type DaySchedule struct {
	Date    Date
	Windows [5]Window
	Sunrise Clock
	Sunset  Clock
}

func (s DaySchedule) Window(n Name) Window {
	return s.Windows[n]
}

func (s DaySchedule) Start(n Name) Clock {
	return s.Windows[n].Start
}

// NextDayFajr is the start of Fajr on the day after s.Date.
func (s DaySchedule) NextDayFajr() Clock {
	return s.Windows[Isha].End
}

// Validate checks that windows and sunrise are strictly increasing.
func (s DaySchedule) Validate() error {
	order := []struct {
		label string
		at    Clock
	}{
		{"fajr", s.Windows[Fajr].Start},
		{"sunrise", s.Sunrise},
		{"dhuhr", s.Windows[Dhuhr].Start},
		{"asr", s.Windows[Asr].Start},
		{"maghrib", s.Windows[Maghrib].Start},
		{"isha", s.Windows[Isha].Start},
	}
	for i := 1; i < len(order); i++ {
		if order[i].at <= order[i-1].at {
			return fmt.Errorf("%w: %s (%s) not after %s (%s) on %s",
				ErrCalculationUnavailable,
				order[i].label, order[i].at, order[i-1].label, order[i-1].at, s.Date)
		}
	}
	return nil
}

// DayTimes is the raw output of an astronomical calculator for one date.
type DayTimes struct {
	Fajr    Clock `json:"fajr"`
	Sunrise Clock `json:"sunrise"`
	Dhuhr   Clock `json:"dhuhr"`
	Asr     Clock `json:"asr"`
	Sunset  Clock `json:"sunset"`
	Maghrib Clock `json:"maghrib"`
	Isha    Clock `json:"isha"`
}

// TimesSource computes prayer start times for a single date. Implementations
// return ErrInput for parameters they reject and ErrCalculationUnavailable
// for anything else.
type TimesSource interface {
	ComputeDay(ctx context.Context, date Date, coords Coordinates, m Methodology) (DayTimes, error)
}

// WindowCalculator turns a TimesSource into DaySchedules. It keeps no state
// besides the source and is safe for concurrent use.
type WindowCalculator struct {
	source TimesSource
}

func NewWindowCalculator(source TimesSource) *WindowCalculator {
	return &WindowCalculator{source: source}
}

// ComputeSchedule returns the prayer windows for date under settings. The
// source is consulted for date and date+1, the latter supplying Isha's end.
func (c *WindowCalculator) ComputeSchedule(ctx context.Context, date Date, settings Settings) (DaySchedule, error) {
	if date.IsZero() {
		return DaySchedule{}, fmt.Errorf("%w: missing date", ErrInput)
	}
	if err := settings.Validate(); err != nil {
		return DaySchedule{}, err
	}

	coords, method := settings.Coordinates(), settings.Methodology()
	today, err := c.computeDay(ctx, date, coords, method)
	if err != nil {
		return DaySchedule{}, err
	}
	tomorrow, err := c.computeDay(ctx, date.AddDays(1), coords, method)
	if err != nil {
		return DaySchedule{}, err
	}

	s := DaySchedule{
		Date:    date,
		Sunrise: today.Sunrise,
		Sunset:  today.Sunset,
		Windows: [5]Window{
			{Name: Fajr, Start: today.Fajr, End: today.Sunrise},
			{Name: Dhuhr, Start: today.Dhuhr, End: today.Asr},
			{Name: Asr, Start: today.Asr, End: today.Maghrib},
			{Name: Maghrib, Start: today.Maghrib, End: today.Isha},
			{Name: Isha, Start: today.Isha, End: tomorrow.Fajr, CrossesMidnight: true},
		},
	}
	if err := s.Validate(); err != nil {
		return DaySchedule{}, err
	}
	return s, nil
}

func (c *WindowCalculator) computeDay(ctx context.Context, date Date, coords Coordinates, m Methodology) (DayTimes, error) {
	t, err := c.source.ComputeDay(ctx, date, coords, m)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, ErrInput) || errors.Is(err, ErrCalculationUnavailable) {
		return DayTimes{}, fmt.Errorf("compute %s: %w", date, err)
	}
	return DayTimes{}, fmt.Errorf("compute %s: %w: %w", date, ErrCalculationUnavailable, err)
}
