package store

import (
	"database/sql"
	"fmt"

	"github.com/sadopc/salah/internal/prayer"
)

type Setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// recordRow mirrors a prayer_records row.
type recordRow struct {
	Prayer         string          `db:"prayer_name"`
	Date           string          `db:"date"`
	Status         int             `db:"status"`
	TimePrayed     sql.NullString  `db:"time_prayed"`
	WindowFraction sql.NullFloat64 `db:"window_fraction"`
	UpdatedAt      string          `db:"updated_at"`
}

var recordColumns = []string{"prayer_name", "date", "status", "time_prayed", "window_fraction", "updated_at"}

func (r recordRow) toRecord() (prayer.Record, bool, error) {
	name, err := prayer.ParseName(r.Prayer)
	if err != nil {
		return prayer.Record{}, false, fmt.Errorf("decode prayer: %w", err)
	}
	date, err := prayer.ParseDate(r.Date)
	if err != nil {
		return prayer.Record{}, false, fmt.Errorf("decode date: %w", err)
	}
	status, known := prayer.StatusFromCode(r.Status)

	rec := prayer.Record{Name: name, Date: date, Status: status}
	if r.TimePrayed.Valid {
		c, err := prayer.ParseClock(r.TimePrayed.String)
		if err != nil {
			return prayer.Record{}, false, fmt.Errorf("decode time prayed: %w", err)
		}
		rec.TimePrayed = &c
	}
	if r.WindowFraction.Valid {
		f := r.WindowFraction.Float64
		rec.WindowFraction = &f
	}
	return rec.Normalize(), known, nil
}

func clockValue(c *prayer.Clock) any {
	if c == nil {
		return nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

func fractionValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
