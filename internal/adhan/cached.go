package adhan

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sadopc/salah/internal/prayer"
)

// TimesCache persists computed day times by key.
type TimesCache interface {
	LoadTimes(ctx context.Context, key string) (prayer.DayTimes, bool, error)
	SaveTimes(ctx context.Context, key string, date prayer.Date, t prayer.DayTimes) error
}

// CachedSource serves previously fetched days from a TimesCache and falls
// through to the wrapped source for everything else. Cache errors never fail
// a lookup.
type CachedSource struct {
	source prayer.TimesSource
	cache  TimesCache
	log    zerolog.Logger
}

func NewCachedSource(source prayer.TimesSource, cache TimesCache, log zerolog.Logger) *CachedSource {
	return &CachedSource{source: source, cache: cache, log: log}
}

func (c *CachedSource) ComputeDay(ctx context.Context, date prayer.Date, coords prayer.Coordinates, m prayer.Methodology) (prayer.DayTimes, error) {
	key := CacheKey(date, coords, m)

	t, ok, err := c.cache.LoadTimes(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("date", date.String()).Msg("read times cache")
	}
	if ok {
		return t, nil
	}

	t, err = c.source.ComputeDay(ctx, date, coords, m)
	if err != nil {
		return prayer.DayTimes{}, err
	}
	if err := c.cache.SaveTimes(ctx, key, date, t); err != nil {
		c.log.Warn().Err(err).Str("date", date.String()).Msg("write times cache")
	}
	return t, nil
}

// CacheKey hashes every parameter that affects the computed times, so a
// change of location or method never reuses stale entries.
func CacheKey(date prayer.Date, coords prayer.Coordinates, m prayer.Methodology) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%s",
		date, coords.Latitude, coords.Longitude, m.Method, m.Madhab, m.HighLatitudeRule)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}
