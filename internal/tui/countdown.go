package tui

import (
	"time"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

// countdownModel resolves the current prayer once per tick against the
// loaded view of today. Nothing here touches the store.
type countdownModel struct {
	now func() time.Time

	date    prayer.Date
	view    tracker.DayView
	loaded  bool
	current prayer.Context
}

func newCountdownModel(now func() time.Time) countdownModel {
	return countdownModel{now: now, date: prayer.DateOf(now())}
}

func (c *countdownModel) setView(v tracker.DayView) {
	if v.Date != c.date {
		return
	}
	c.view = v
	c.loaded = true
	c.tick()
}

// setRecords applies records of today or yesterday; yesterday's matter
// before Fajr.
func (c *countdownModel) setRecords(date prayer.Date, recs []prayer.Record) {
	if !c.loaded {
		return
	}
	switch date {
	case c.view.Date:
		c.view.Records = recs
	case c.view.Date.AddDays(-1):
		c.view.PreviousRecords = recs
	default:
		return
	}
	c.tick()
}

// setRecord applies a single write so the panel does not wait for the feed,
// which only follows the day on screen.
func (c *countdownModel) setRecord(rec prayer.Record) {
	if !c.loaded {
		return
	}
	switch rec.Date {
	case c.view.Date:
		c.view.Records = mergeRecord(c.view.Records, rec)
	case c.view.Date.AddDays(-1):
		c.view.PreviousRecords = mergeRecord(c.view.PreviousRecords, rec)
	default:
		return
	}
	c.tick()
}

// mergeRecord replaces the record of the same prayer or appends rec.
func mergeRecord(recs []prayer.Record, rec prayer.Record) []prayer.Record {
	out := make([]prayer.Record, 0, len(recs)+1)
	for _, r := range recs {
		if r.Name != rec.Name {
			out = append(out, r)
		}
	}
	return append(out, rec)
}

func (c *countdownModel) tick() {
	if !c.loaded {
		return
	}
	c.current = c.view.Resolve(prayer.ClockOf(c.now()))
}

// rollover reports whether the local date has moved past the loaded day and,
// if so, retargets the model at the new date.
func (c *countdownModel) rollover() (prayer.Date, bool) {
	today := prayer.DateOf(c.now())
	if today == c.date {
		return today, false
	}
	c.date = today
	c.loaded = false
	return today, true
}

func (c countdownModel) ready() bool { return c.loaded }

func (c countdownModel) stale() bool { return c.loaded && c.view.Stale }
