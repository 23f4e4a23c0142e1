package prayer

import (
	"fmt"
	"time"
)

// StatusLookup returns the record stored for a prayer, if any.
type StatusLookup func(Name) (Record, bool)

// LookupFrom builds a StatusLookup over a day's records.
func LookupFrom(records []Record) StatusLookup {
	byName := make(map[Name]Record, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}
	return func(n Name) (Record, bool) {
		r, ok := byName[n]
		return r, ok
	}
}

// Context describes the prayer in progress at a given moment.
type Context struct {
	Current Name
	// Date is the day the current prayer belongs to. Before Fajr this is the
	// previous day, since the night still counts as that day's Isha.
	Date            Date
	FromPreviousDay bool
	Start           Clock
	End             Clock
	Status          Status
	TimePrayed      *Clock
	HasPrayed       bool

	NextLabel string
	NextAt    Clock

	Countdown      time.Duration
	CountdownKnown bool
}

// Remaining formats the countdown as HH:MM:SS, or "--" when it is unknown.
func (c Context) Remaining() string {
	return FormatCountdown(c.Countdown, c.CountdownKnown)
}

type resolveOptions struct {
	previous *DaySchedule
}

type ResolveOption func(*resolveOptions)

// WithPreviousDay supplies the previous day's schedule so that the hours
// before Fajr are measured from yesterday's Isha start.
func WithPreviousDay(prev DaySchedule) ResolveOption {
	return func(o *resolveOptions) {
		o.previous = &prev
	}
}

// Resolve determines the current prayer at now. It is a pure function and is
// evaluated every second by the UI.
func Resolve(schedule DaySchedule, nextDayFajr Clock, lookup StatusLookup, now Clock, opts ...ResolveOption) Context {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx := Context{Date: schedule.Date}
	if now < schedule.Start(Fajr) {
		ctx.Current = Isha
		ctx.FromPreviousDay = true
		ctx.Date = schedule.Date.AddDays(-1)
		ctx.Start = schedule.Start(Isha)
		if o.previous != nil {
			ctx.Start = o.previous.Start(Isha)
			ctx.Date = o.previous.Date
		}
	} else {
		ctx.Current = Fajr
		for _, w := range schedule.Windows {
			if w.Start <= now {
				ctx.Current = w.Name
			}
		}
		ctx.Start = schedule.Start(ctx.Current)
	}

	if lookup != nil {
		if rec, ok := lookup(ctx.Current); ok {
			ctx.Status = rec.Status
			ctx.TimePrayed = rec.TimePrayed
		}
	}
	ctx.HasPrayed = ctx.Status.HasPrayed()

	switch {
	case ctx.Current == Fajr && !ctx.HasPrayed:
		ctx.NextLabel, ctx.NextAt = "Sunrise", schedule.Sunrise
	case ctx.Current == Fajr:
		ctx.NextLabel, ctx.NextAt = Dhuhr.String(), schedule.Start(Dhuhr)
	case ctx.Current == Isha:
		ctx.NextLabel, ctx.NextAt = Fajr.String(), nextDayFajr
	default:
		next, _ := ctx.Current.Next()
		ctx.NextLabel, ctx.NextAt = next.String(), schedule.Start(next)
	}

	if ctx.Current == Isha {
		ctx.End = nextDayFajr
	} else {
		ctx.End = schedule.Window(ctx.Current).End
	}

	secs := int(ctx.NextAt) - int(now)
	if ctx.Current == Isha && ctx.NextAt < now {
		secs = (secondsPerDay - int(now)) + int(ctx.NextAt)
	}
	if secs >= 0 {
		ctx.Countdown = time.Duration(secs) * time.Second
		ctx.CountdownKnown = true
	}
	return ctx
}

// FormatCountdown renders d as HH:MM:SS. Unknown or negative durations
// render as "--".
func FormatCountdown(d time.Duration, known bool) string {
	if !known || d < 0 {
		return "--"
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
