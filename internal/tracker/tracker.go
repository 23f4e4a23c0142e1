// Package tracker wires settings, schedules and records together for the CLI
// and the TUI.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/salah/internal/cache"
	"github.com/sadopc/salah/internal/prayer"
)

// RecordStore is the persistence the tracker needs for prayer records.
type RecordStore interface {
	prayer.RecordWriter
	Record(ctx context.Context, name prayer.Name, date prayer.Date) (prayer.Record, error)
	RecordsForDate(ctx context.Context, date prayer.Date) ([]prayer.Record, error)
	RecordsInRange(ctx context.Context, from, to prayer.Date) ([]prayer.Record, error)
	DeleteRecordsForDate(ctx context.Context, date prayer.Date) (int64, error)
	DeleteAllRecords(ctx context.Context) (int64, error)
	WatchRecords(ctx context.Context, from, to prayer.Date) <-chan []prayer.Record
}

type SettingsStore interface {
	Settings(ctx context.Context) (prayer.Settings, error)
	UpdateSettings(ctx context.Context, patch prayer.SettingsPatch) (prayer.Settings, error)
	WatchSettings(ctx context.Context) <-chan prayer.Settings
}

type Tracker struct {
	records   RecordStore
	settings  SettingsStore
	calc      *prayer.WindowCalculator
	schedules *cache.Schedules
	recorder  *prayer.Recorder
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*Tracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

func New(records RecordStore, settings SettingsStore, source prayer.TimesSource, opts ...Option) *Tracker {
	t := &Tracker{
		records:  records,
		settings: settings,
		calc:     prayer.NewWindowCalculator(source),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.schedules = cache.NewSchedules(t.computeSchedule)
	t.recorder = prayer.NewRecorder(records, t.schedules, t.log)
	return t
}

func (t *Tracker) computeSchedule(ctx context.Context, date prayer.Date) (prayer.DaySchedule, error) {
	settings, err := t.settings.Settings(ctx)
	if err != nil {
		return prayer.DaySchedule{}, fmt.Errorf("%w: load settings: %w", prayer.ErrCalculationUnavailable, err)
	}
	return t.calc.ComputeSchedule(ctx, date, settings)
}

// Now returns the current time from the tracker's clock.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Today is the local calendar date.
func (t *Tracker) Today() prayer.Date {
	return prayer.DateOf(t.now())
}

// Schedule returns the prayer windows for date. On failure the last schedule
// successfully computed for date, if any, is returned alongside the error so
// callers can keep showing it.
func (t *Tracker) Schedule(ctx context.Context, date prayer.Date) (prayer.DaySchedule, error) {
	s, err := t.schedules.Schedule(ctx, date)
	if err == nil {
		return s, nil
	}
	t.log.Warn().Err(err).Str("date", date.String()).Msg("compute schedule")
	if last, ok := t.schedules.LastKnown(date); ok {
		return last, err
	}
	return prayer.DaySchedule{}, err
}

// Preload warms the schedule cache for the days around date.
func (t *Tracker) Preload(ctx context.Context, date prayer.Date) error {
	return t.schedules.Preload(ctx, date.AddDays(-1), date, date.AddDays(1))
}

// RecordRequest is a user's status change for one prayer.
type RecordRequest struct {
	Name       prayer.Name
	Date       prayer.Date
	Status     prayer.Status
	TimePrayed *prayer.Clock
	IsNextDay  bool
}

func (t *Tracker) Record(ctx context.Context, req RecordRequest) (prayer.Record, error) {
	return t.recorder.RecordStatus(ctx, req.Name, req.Date, req.Status, req.TimePrayed, req.IsNextDay)
}

// Toggle records chosen for the prayer, or clears it when chosen is already
// the stored status.
func (t *Tracker) Toggle(ctx context.Context, name prayer.Name, date prayer.Date, chosen prayer.Status) (prayer.Record, error) {
	current := prayer.Empty
	rec, err := t.records.Record(ctx, name, date)
	switch {
	case err == nil:
		current = rec.Status
	case !errors.Is(err, prayer.ErrNotFound):
		return prayer.Record{}, fmt.Errorf("%w: read %s on %s: %w", prayer.ErrPersistence, name, date, err)
	}
	return t.Record(ctx, RecordRequest{Name: name, Date: date, Status: prayer.Toggle(current, chosen)})
}

// Reset deletes every record of date.
func (t *Tracker) Reset(ctx context.Context, date prayer.Date) (int64, error) {
	n, err := t.records.DeleteRecordsForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", prayer.ErrPersistence, err)
	}
	t.log.Info().Str("date", date.String()).Int64("deleted", n).Msg("reset day")
	return n, nil
}

func (t *Tracker) ResetAll(ctx context.Context) (int64, error) {
	n, err := t.records.DeleteAllRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", prayer.ErrPersistence, err)
	}
	t.log.Info().Int64("deleted", n).Msg("reset history")
	return n, nil
}

// Records returns the records dated from..to inclusive.
func (t *Tracker) Records(ctx context.Context, from, to prayer.Date) ([]prayer.Record, error) {
	return t.records.RecordsInRange(ctx, from, to)
}

// Stats summarises from..to and lays it out per day.
func (t *Tracker) Stats(ctx context.Context, from, to prayer.Date) (prayer.Summary, []prayer.DayStatuses, error) {
	if to.Before(from) {
		return prayer.Summary{}, nil, fmt.Errorf("%w: range %s..%s is reversed", prayer.ErrInput, from, to)
	}
	recs, err := t.records.RecordsInRange(ctx, from, to)
	if err != nil {
		return prayer.Summary{}, nil, err
	}
	return prayer.Summarize(from, to, recs), prayer.DailyGrid(from, to, recs), nil
}

func (t *Tracker) Settings(ctx context.Context) (prayer.Settings, error) {
	return t.settings.Settings(ctx)
}

// UpdateSettings persists patch and drops every memoised schedule.
func (t *Tracker) UpdateSettings(ctx context.Context, patch prayer.SettingsPatch) (prayer.Settings, error) {
	s, err := t.settings.UpdateSettings(ctx, patch)
	if err != nil {
		return s, err
	}
	t.schedules.Invalidate()
	t.log.Info().
		Float64("latitude", s.Latitude).
		Float64("longitude", s.Longitude).
		Str("method", s.Method.String()).
		Str("madhab", s.Madhab.String()).
		Str("high_latitude_rule", s.HighLatitudeRule.String()).
		Msg("settings updated")
	return s, nil
}

// Run invalidates the schedule cache whenever the stored settings change,
// including changes made by another process. The first emission also
// invalidates, covering writes made before the watch was established. It
// returns when ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	for s := range t.settings.WatchSettings(ctx) {
		t.schedules.Invalidate()
		t.log.Debug().Str("method", s.Method.String()).Msg("settings changed, schedules invalidated")
	}
}
