package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sadopc/salah/internal/prayer"
)

const upsertSuffix = `ON CONFLICT(prayer_name, date) DO UPDATE SET
	status = excluded.status,
	time_prayed = excluded.time_prayed,
	window_fraction = excluded.window_fraction,
	updated_at = excluded.updated_at`

func upsertQuery(rec prayer.Record, now time.Time) (string, []any, error) {
	rec = rec.Normalize()
	return psql.Insert("prayer_records").
		Columns(recordColumns...).
		Values(
			rec.Name.Key(),
			rec.Date.String(),
			rec.Status.Code(),
			clockValue(rec.TimePrayed),
			fractionValue(rec.WindowFraction),
			now.UTC().Format(time.RFC3339),
		).
		Suffix(upsertSuffix).
		ToSql()
}

func validateRecord(rec prayer.Record) error {
	if !rec.Name.Valid() || !rec.Status.Valid() || rec.Date.IsZero() {
		return fmt.Errorf("%w: record %s/%s/%s", prayer.ErrInput, rec.Name, rec.Date, rec.Status)
	}
	return nil
}

// UpsertRecord inserts rec or replaces the row with the same prayer and date.
func (s *Store) UpsertRecord(ctx context.Context, rec prayer.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	q, args, err := upsertQuery(rec, time.Now())
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	s.hub.publish(recordsChanged(rec.Date, rec.Date))
	return nil
}

// UpsertRecords writes every record for date in one transaction.
func (s *Store) UpsertRecords(ctx context.Context, date prayer.Date, recs []prayer.Record) error {
	for _, rec := range recs {
		if err := validateRecord(rec); err != nil {
			return err
		}
		if rec.Date != date {
			return fmt.Errorf("%w: record for %s in batch for %s", prayer.ErrInput, rec.Date, date)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, rec := range recs {
		q, args, err := upsertQuery(rec, now)
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert record %s: %w", rec.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.hub.publish(recordsChanged(date, date))
	return nil
}

// Record returns the stored record for name on date, or prayer.ErrNotFound.
func (s *Store) Record(ctx context.Context, name prayer.Name, date prayer.Date) (prayer.Record, error) {
	q, args, err := psql.Select(recordColumns...).
		From("prayer_records").
		Where(sq.Eq{"prayer_name": name.Key(), "date": date.String()}).
		ToSql()
	if err != nil {
		return prayer.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return prayer.Record{}, fmt.Errorf("record %s on %s: %w", name, date, prayer.ErrNotFound)
		}
		return prayer.Record{}, fmt.Errorf("get record: %w", err)
	}
	recs, err := s.decode([]recordRow{row})
	if err != nil {
		return prayer.Record{}, err
	}
	return recs[0], nil
}

func (s *Store) RecordsForDate(ctx context.Context, date prayer.Date) ([]prayer.Record, error) {
	return s.RecordsInRange(ctx, date, date)
}

// RecordsInRange returns records dated from..to inclusive, ordered by date
// and then by prayer.
func (s *Store) RecordsInRange(ctx context.Context, from, to prayer.Date) ([]prayer.Record, error) {
	q, args, err := psql.Select(recordColumns...).
		From("prayer_records").
		Where(sq.GtOrEq{"date": from.String()}).
		Where(sq.LtOrEq{"date": to.String()}).
		OrderBy("date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return s.decode(rows)
}

func (s *Store) decode(rows []recordRow) ([]prayer.Record, error) {
	recs := make([]prayer.Record, 0, len(rows))
	for _, row := range rows {
		rec, known, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("record %s/%s: %w", row.Prayer, row.Date, err)
		}
		if !known {
			s.log.Warn().
				Int("code", row.Status).
				Str("prayer", row.Prayer).
				Str("date", row.Date).
				Msgf("unknown status code, reading as %s", rec.Status)
		}
		recs = append(recs, rec)
	}
	slices.SortStableFunc(recs, func(a, b prayer.Record) int {
		if a.Date != b.Date {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		return int(a.Name) - int(b.Name)
	})
	return recs, nil
}

// DeleteRecordsForDate removes every record dated date and returns how many went.
func (s *Store) DeleteRecordsForDate(ctx context.Context, date prayer.Date) (int64, error) {
	return s.deleteRecords(ctx, sq.Eq{"date": date.String()}, recordsChanged(date, date))
}

// DeleteAllRecords wipes the prayer history.
func (s *Store) DeleteAllRecords(ctx context.Context) (int64, error) {
	return s.deleteRecords(ctx, nil, recordsChanged(prayer.Date{}, prayer.Date{}))
}

func (s *Store) deleteRecords(ctx context.Context, where sq.Sqlizer, c change) (int64, error) {
	b := psql.Delete("prayer_records")
	if where != nil {
		b = b.Where(where)
	}
	q, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	n, _ := res.RowsAffected()
	s.hub.publish(c)
	return n, nil
}

// WatchRecords emits the records dated from..to immediately and again after
// every write that touches that range. The channel closes when ctx is done.
func (s *Store) WatchRecords(ctx context.Context, from, to prayer.Date) <-chan []prayer.Record {
	match := func(c change) bool {
		return c.table == tableRecords && c.overlaps(from, to)
	}
	return watch(ctx, s, match, func(ctx context.Context) ([]prayer.Record, error) {
		return s.RecordsInRange(ctx, from, to)
	})
}

// exec is shared by helpers that run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ execer = (*sqlx.DB)(nil)
	_ execer = (*sqlx.Tx)(nil)
)
