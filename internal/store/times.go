package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sadopc/salah/internal/prayer"
)

// LoadTimes returns cached calculator output for key.
func (s *Store) LoadTimes(ctx context.Context, key string) (prayer.DayTimes, bool, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM computed_times WHERE cache_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return prayer.DayTimes{}, false, nil
	}
	if err != nil {
		return prayer.DayTimes{}, false, fmt.Errorf("load times %s: %w", key, err)
	}

	var t prayer.DayTimes
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return prayer.DayTimes{}, false, fmt.Errorf("decode times %s: %w", key, err)
	}
	return t, true, nil
}

func (s *Store) SaveTimes(ctx context.Context, key string, date prayer.Date, t prayer.DayTimes) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode times: %w", err)
	}
	q, args, err := psql.Insert("computed_times").
		Columns("cache_key", "date", "payload", "created_at").
		Values(key, date.String(), string(payload), time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save times: %w", err)
	}
	return nil
}

// PruneTimes drops cached calculator output for dates before cutoff.
func (s *Store) PruneTimes(ctx context.Context, cutoff prayer.Date) (int64, error) {
	q, args, err := psql.Delete("computed_times").Where(sq.Lt{"date": cutoff.String()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("prune times: %w", err)
	}
	return res.RowsAffected()
}
