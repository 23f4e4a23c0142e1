package store

import (
	"context"
	"sync"

	"github.com/sadopc/salah/internal/prayer"
)

const (
	tableRecords  = "prayer_records"
	tableSettings = "settings"
)

// change describes a committed write. A zero range covers the whole table.
type change struct {
	table    string
	from, to prayer.Date
}

func recordsChanged(from, to prayer.Date) change {
	return change{table: tableRecords, from: from, to: to}
}

func (c change) overlaps(from, to prayer.Date) bool {
	if c.from.IsZero() && c.to.IsZero() {
		return true
	}
	return !c.to.Before(from) && !c.from.After(to)
}

type subscription struct {
	match  func(change) bool
	notify chan struct{}
}

// hub fans out change notifications to subscribers. Notifications coalesce:
// a subscriber that is busy re-querying sees at most one pending signal.
type hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscription]struct{})}
}

func (h *hub) subscribe(match func(change) bool) (*subscription, func()) {
	sub := &subscription{match: match, notify: make(chan struct{}, 1)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub, func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
}

func (h *hub) publish(c change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.match(c) {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// watch subscribes before the first load so no write between the two is lost.
func watch[T any](ctx context.Context, s *Store, match func(change) bool, load func(context.Context) (T, error)) <-chan T {
	out := make(chan T)
	sub, unsubscribe := s.hub.subscribe(match)

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Error().Err(err).Msg("watch query failed")
			} else {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-sub.notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
