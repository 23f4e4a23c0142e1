package tracker

import (
	"context"
	"errors"
	"sync"

	"github.com/sadopc/salah/internal/prayer"
)

// DayView holds everything needed to resolve the current prayer for one day
// without touching the store again.
type DayView struct {
	Date     prayer.Date
	Schedule prayer.DaySchedule
	Records  []prayer.Record

	// Previous is yesterday's schedule, used before Fajr. Nil when it could
	// not be computed.
	Previous        *prayer.DaySchedule
	PreviousRecords []prayer.Record

	// Stale is set when Schedule is a last-known copy after a failed lookup.
	Stale bool
}

// Resolve returns the prayer context at now on the view's day.
func (v DayView) Resolve(now prayer.Clock) prayer.Context {
	if now < v.Schedule.Start(prayer.Fajr) {
		var opts []prayer.ResolveOption
		if v.Previous != nil {
			opts = append(opts, prayer.WithPreviousDay(*v.Previous))
		}
		return prayer.Resolve(v.Schedule, v.Schedule.Start(prayer.Fajr), prayer.LookupFrom(v.PreviousRecords), now, opts...)
	}
	return prayer.Resolve(v.Schedule, v.Schedule.NextDayFajr(), prayer.LookupFrom(v.Records), now)
}

// Status returns the stored status of name on the view's day.
func (v DayView) Status(name prayer.Name) prayer.Status {
	for _, r := range v.Records {
		if r.Name == name {
			return r.Status
		}
	}
	return prayer.Empty
}

// DayView loads the schedule and records of date together with the previous
// day's. A missing schedule is an error; a stale one is returned with Stale
// set.
func (t *Tracker) DayView(ctx context.Context, date prayer.Date) (DayView, error) {
	v := DayView{Date: date}
	s, err := t.Schedule(ctx, date)
	switch {
	case err == nil:
	case s.Date.IsZero():
		return v, err
	default:
		v.Stale = true
	}
	v.Schedule = s

	if v.Records, err = t.records.RecordsForDate(ctx, date); err != nil {
		return v, err
	}

	yesterday := date.AddDays(-1)
	if prev, _ := t.Schedule(ctx, yesterday); !prev.Date.IsZero() {
		v.Previous = &prev
	}
	if v.PreviousRecords, err = t.records.RecordsForDate(ctx, yesterday); err != nil {
		return v, err
	}
	return v, nil
}

// Current resolves the prayer in progress at the tracker's current time.
func (t *Tracker) Current(ctx context.Context) (prayer.Context, DayView, error) {
	now := t.now()
	v, err := t.DayView(ctx, prayer.DateOf(now))
	if err != nil && v.Schedule.Date.IsZero() {
		return prayer.Context{}, v, err
	}
	return v.Resolve(prayer.ClockOf(now)), v, err
}

// DayUpdate carries the records of one followed day.
type DayUpdate struct {
	Date    prayer.Date
	Records []prayer.Record
}

// DayFeed follows the records of one date at a time. Switching to another
// date cancels the previous subscription. An update already in flight may
// still arrive, so receivers compare DayUpdate.Date with the date they follow.
type DayFeed struct {
	store RecordStore
	out   chan DayUpdate

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

var errFeedClosed = errors.New("day feed closed")

func (t *Tracker) NewDayFeed() *DayFeed {
	return &DayFeed{store: t.records, out: make(chan DayUpdate)}
}

// Updates is the channel every followed date is delivered on. It is never
// closed; stop reading when the caller's context ends.
func (f *DayFeed) Updates() <-chan DayUpdate {
	return f.out
}

// Follow starts delivering the records of date, replacing any previously
// followed date.
func (f *DayFeed) Follow(ctx context.Context, date prayer.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFeedClosed
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	sub, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	ch := f.store.WatchRecords(sub, date, date)
	go func() {
		for recs := range ch {
			if !f.current(gen) {
				return
			}
			select {
			case f.out <- DayUpdate{Date: date, Records: recs}:
			case <-sub.Done():
				return
			}
		}
	}()
	return nil
}

func (f *DayFeed) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && f.gen == gen
}

// Close stops the active subscription.
func (f *DayFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
