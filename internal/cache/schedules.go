// Package cache memoises day schedules by date.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sadopc/salah/internal/prayer"
)

// ComputeFunc produces the schedule for a date under the current settings.
type ComputeFunc func(ctx context.Context, date prayer.Date) (prayer.DaySchedule, error)

// Schedules computes each date at most once until Invalidate is called.
// Concurrent requests for the same date share a single computation; failures
// are not cached.
type Schedules struct {
	compute ComputeFunc
	group   singleflight.Group

	mu         sync.RWMutex
	generation uint64
	entries    map[prayer.Date]prayer.DaySchedule
	lastKnown  map[prayer.Date]prayer.DaySchedule
}

func NewSchedules(compute ComputeFunc) *Schedules {
	return &Schedules{
		compute:   compute,
		entries:   make(map[prayer.Date]prayer.DaySchedule),
		lastKnown: make(map[prayer.Date]prayer.DaySchedule),
	}
}

// Schedule returns the memoised schedule for date, computing it if needed.
func (c *Schedules) Schedule(ctx context.Context, date prayer.Date) (prayer.DaySchedule, error) {
	c.mu.RLock()
	s, ok := c.entries[date]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	key := fmt.Sprintf("%d/%s", gen, date)
	v, err, _ := c.group.Do(key, func() (any, error) {
		s, err := c.compute(ctx, date)
		if err != nil {
			return prayer.DaySchedule{}, err
		}
		c.mu.Lock()
		// Results computed under settings that were since replaced are
		// returned to the caller but not stored.
		if c.generation == gen {
			c.entries[date] = s
		}
		c.lastKnown[date] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return prayer.DaySchedule{}, err
	}
	return v.(prayer.DaySchedule), nil
}

// Invalidate drops every memoised schedule. Dropped entries stay available
// through LastKnown.
func (c *Schedules) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[prayer.Date]prayer.DaySchedule)
	c.mu.Unlock()
}

// LastKnown returns the most recent successful schedule for date, even if it
// was computed under earlier settings.
func (c *Schedules) LastKnown(date prayer.Date) (prayer.DaySchedule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.lastKnown[date]
	return s, ok
}

// Len reports the number of live entries.
func (c *Schedules) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Preload computes several dates concurrently and returns the first error.
func (c *Schedules) Preload(ctx context.Context, dates ...prayer.Date) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, d := range dates {
		g.Go(func() error {
			_, err := c.Schedule(ctx, d)
			return err
		})
	}
	return g.Wait()
}
