package prayer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Record is the stored completion state of one prayer on one date.
// TimePrayed and WindowFraction are only ever set when Status is Prayed.
type Record struct {
	Name           Name
	Date           Date
	Status         Status
	TimePrayed     *Clock
	WindowFraction *float64
}

// Normalize clears the time and fraction of any non-Prayed record.
func (r Record) Normalize() Record {
	if r.Status != Prayed {
		r.TimePrayed = nil
		r.WindowFraction = nil
	}
	return r
}

// RecordWriter persists records, replacing any existing row with the same key.
type RecordWriter interface {
	UpsertRecord(ctx context.Context, rec Record) error
}

// ScheduleSource provides (possibly memoised) schedules by date.
type ScheduleSource interface {
	Schedule(ctx context.Context, date Date) (DaySchedule, error)
}

// pickerSlack absorbs the rounding of minute-precision time pickers at the
// window edges.
const pickerSlack = 60

// Recorder validates and stores prayer status changes.
type Recorder struct {
	writer    RecordWriter
	schedules ScheduleSource
	log       zerolog.Logger
}

func NewRecorder(writer RecordWriter, schedules ScheduleSource, log zerolog.Logger) *Recorder {
	return &Recorder{writer: writer, schedules: schedules, log: log}
}

// RecordStatus writes status for the prayer on date and returns the record it
// attempted to write. For Prayed with a time, the time is checked against the
// prayer's window and the elapsed window fraction is stored alongside it.
// isNextDay marks an Isha performed after midnight.
//
// A persistence failure returns the attempted record together with an error
// wrapping ErrPersistence.
func (r *Recorder) RecordStatus(ctx context.Context, name Name, date Date, status Status, timePrayed *Clock, isNextDay bool) (Record, error) {
	if !name.Valid() {
		return Record{}, fmt.Errorf("%w: unknown prayer %d", ErrInput, int(name))
	}
	if !status.Valid() {
		return Record{}, fmt.Errorf("%w: unknown status %d", ErrInput, int(status))
	}
	if date.IsZero() {
		return Record{}, fmt.Errorf("%w: missing date", ErrInput)
	}

	rec := Record{Name: name, Date: date, Status: status}
	if status == Prayed && timePrayed != nil {
		t := *timePrayed
		rec.TimePrayed = &t

		schedule, err := r.schedules.Schedule(ctx, date)
		if err != nil {
			r.log.Warn().Err(err).
				Str("prayer", name.Key()).
				Str("date", date.String()).
				Msg("schedule unavailable, storing without window fraction")
		} else {
			w := schedule.Window(name)
			if err := ValidateTimePrayed(w, t, isNextDay); err != nil {
				return Record{}, err
			}
			rec.WindowFraction = WindowFraction(w, t, isNextDay)
		}
	}
	rec = rec.Normalize()

	if err := r.writer.UpsertRecord(ctx, rec); err != nil {
		return rec, fmt.Errorf("record %s on %s: %w: %w", name, date, ErrPersistence, err)
	}
	r.log.Debug().
		Str("prayer", name.Key()).
		Str("date", date.String()).
		Str("status", status.String()).
		Msg("recorded prayer status")
	return rec, nil
}

// ValidateTimePrayed rejects times that cannot belong to w. Only Isha may be
// prayed after midnight, and then no later than the next day's Fajr.
func ValidateTimePrayed(w Window, t Clock, isNextDay bool) error {
	reject := func(reason string) error {
		return &TimeValidationError{Name: w.Name, Time: t, IsNextDay: isNextDay, Reason: reason}
	}

	if isNextDay {
		if !w.CrossesMidnight {
			return reject("only isha can be prayed after midnight")
		}
		if int(t) > int(w.End)+pickerSlack {
			return reject(fmt.Sprintf("after fajr at %s", w.End))
		}
		return nil
	}

	if int(t)+pickerSlack < int(w.Start) {
		return reject(fmt.Sprintf("before the window opens at %s", w.Start))
	}
	if !w.CrossesMidnight && int(t) > int(w.End)+pickerSlack {
		return reject(fmt.Sprintf("after the window closes at %s", w.End))
	}
	return nil
}

// WindowFraction returns how far through w the prayer was performed, in
// [0, 1]. Degenerate windows yield nil.
func WindowFraction(w Window, t Clock, isNextDay bool) *float64 {
	duration := w.DurationMinutes()
	if duration <= 0 {
		return nil
	}

	var elapsed int
	if isNextDay {
		elapsed = minutesToMidnight(w.Start) + minutesFromMidnight(t)
	} else {
		elapsed = minutesBetween(w.Start, t)
	}

	f := clampFraction(float64(elapsed) / float64(duration))
	return &f
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
