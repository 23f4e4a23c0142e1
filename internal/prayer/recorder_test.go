package prayer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	records map[string]Record
	writes  int
	err     error
}

func newMemWriter() *memWriter {
	return &memWriter{records: make(map[string]Record)}
}

func (w *memWriter) UpsertRecord(_ context.Context, rec Record) error {
	if w.err != nil {
		return w.err
	}
	w.writes++
	w.records[rec.Name.Key()+"/"+rec.Date.String()] = rec
	return nil
}

func (w *memWriter) get(n Name, d Date) (Record, bool) {
	r, ok := w.records[n.Key()+"/"+d.String()]
	return r, ok
}

type staticSchedules struct {
	byDate map[Date]DaySchedule
	err    error
}

func (s staticSchedules) Schedule(_ context.Context, date Date) (DaySchedule, error) {
	if s.err != nil {
		return DaySchedule{}, s.err
	}
	sch, ok := s.byDate[date]
	if !ok {
		return DaySchedule{}, ErrCalculationUnavailable
	}
	return sch, nil
}

func newTestRecorder(t *testing.T, sch DaySchedule) (*Recorder, *memWriter) {
	t.Helper()
	w := newMemWriter()
	src := staticSchedules{byDate: map[Date]DaySchedule{sch.Date: sch}}
	return NewRecorder(w, src, zerolog.Nop()), w
}

func clockPtr(t *testing.T, s string) *Clock {
	c := clk(t, s)
	return &c
}

// ============================================================
// Window fraction
// ============================================================

func TestRecordStatus_FajrFraction(t *testing.T) {
	t.Parallel()

	sch := schedule(t, testDate, "05:30", "06:15", "12:10", "15:20", "18:00", "21:00", "05:30")
	rec, w := newTestRecorder(t, sch)

	got, err := rec.RecordStatus(context.Background(), Fajr, testDate, Prayed, clockPtr(t, "05:40"), false)
	require.NoError(t, err)

	require.NotNil(t, got.WindowFraction)
	assert.InDelta(t, 10.0/45.0, *got.WindowFraction, 1e-9)
	require.NotNil(t, got.TimePrayed)
	assert.Equal(t, clk(t, "05:40"), *got.TimePrayed)

	stored, ok := w.get(Fajr, testDate)
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestRecordStatus_IshaAfterMidnight(t *testing.T) {
	t.Parallel()

	sch := schedule(t, testDate, "05:30", "06:15", "12:10", "15:20", "18:00", "21:00", "05:30")
	rec, _ := newTestRecorder(t, sch)

	got, err := rec.RecordStatus(context.Background(), Isha, testDate, Prayed, clockPtr(t, "00:20"), true)
	require.NoError(t, err)
	require.NotNil(t, got.WindowFraction)
	// 180 + 20 elapsed over 180 + 330.
	assert.InDelta(t, 200.0/510.0, *got.WindowFraction, 1e-9)
	assert.InDelta(t, 0.392, *got.WindowFraction, 0.001)
}

func TestRecordStatus_IshaSameDay(t *testing.T) {
	t.Parallel()

	sch := standardDay(t)
	rec, _ := newTestRecorder(t, sch)

	got, err := rec.RecordStatus(context.Background(), Isha, testDate, Prayed, clockPtr(t, "23:00"), false)
	require.NoError(t, err)
	require.NotNil(t, got.WindowFraction)
	assert.InDelta(t, 120.0/float64(sch.Window(Isha).DurationMinutes()), *got.WindowFraction, 1e-9)
}

func TestRecordStatus_NonPrayedClearsFields(t *testing.T) {
	t.Parallel()

	for _, st := range []Status{Missed, Congregation, Late, Empty} {
		t.Run(st.String(), func(t *testing.T) {
			rec, w := newTestRecorder(t, standardDay(t))
			got, err := rec.RecordStatus(context.Background(), Dhuhr, testDate, st, clockPtr(t, "12:05"), false)
			require.NoError(t, err)
			assert.Equal(t, st, got.Status)
			assert.Nil(t, got.TimePrayed)
			assert.Nil(t, got.WindowFraction)

			stored, _ := w.get(Dhuhr, testDate)
			assert.Nil(t, stored.TimePrayed)
			assert.Nil(t, stored.WindowFraction)
		})
	}
}

func TestRecordStatus_PrayedWithoutTime(t *testing.T) {
	t.Parallel()

	rec, w := newTestRecorder(t, standardDay(t))
	got, err := rec.RecordStatus(context.Background(), Asr, testDate, Prayed, nil, false)
	require.NoError(t, err)
	assert.Nil(t, got.TimePrayed)
	assert.Nil(t, got.WindowFraction)
	assert.Equal(t, 1, w.writes)
}

func TestRecordStatus_Idempotent(t *testing.T) {
	t.Parallel()

	rec, w := newTestRecorder(t, standardDay(t))
	first, err := rec.RecordStatus(context.Background(), Asr, testDate, Prayed, clockPtr(t, "16:00"), false)
	require.NoError(t, err)
	second, err := rec.RecordStatus(context.Background(), Asr, testDate, Prayed, clockPtr(t, "16:00"), false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stored, _ := w.get(Asr, testDate)
	assert.Equal(t, first, stored)
	assert.Len(t, w.records, 1)
}

func TestRecordStatus_ToggleClearsPreviousTime(t *testing.T) {
	t.Parallel()

	rec, w := newTestRecorder(t, standardDay(t))
	_, err := rec.RecordStatus(context.Background(), Asr, testDate, Prayed, clockPtr(t, "16:00"), false)
	require.NoError(t, err)

	next := Toggle(Prayed, Prayed)
	require.Equal(t, Empty, next)
	_, err = rec.RecordStatus(context.Background(), Asr, testDate, next, nil, false)
	require.NoError(t, err)

	stored, _ := w.get(Asr, testDate)
	assert.Equal(t, Empty, stored.Status)
	assert.Nil(t, stored.TimePrayed)
	assert.Nil(t, stored.WindowFraction)
}

// ============================================================
// Validation
// ============================================================

func TestRecordStatus_RejectsImpossibleTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prayer    Name
		at        string
		isNextDay bool
	}{
		{"before dhuhr opens", Dhuhr, "11:00", false},
		{"after asr closes", Asr, "19:30", false},
		{"before isha opens", Isha, "20:00", false},
		{"next day for non-isha", Maghrib, "00:10", true},
		{"next day after fajr", Isha, "06:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, w := newTestRecorder(t, standardDay(t))
			_, err := rec.RecordStatus(context.Background(), tt.prayer, testDate, Prayed, clockPtr(t, tt.at), tt.isNextDay)
			require.ErrorIs(t, err, ErrTimeValidation)

			var tve *TimeValidationError
			require.ErrorAs(t, err, &tve)
			assert.Equal(t, tt.prayer, tve.Name)
			assert.Zero(t, w.writes, "no write on validation failure")
		})
	}
}

func TestRecordStatus_AcceptsWindowEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prayer    Name
		at        string
		isNextDay bool
		want      float64
	}{
		{"at start", Dhuhr, "12:10", false, 0},
		{"minute before start", Dhuhr, "12:09", false, 0},
		{"at end", Dhuhr, "15:20", false, 1},
		{"minute after end", Dhuhr, "15:21", false, 1},
		{"isha at next fajr", Isha, "05:28", true, 1},
		{"isha at midnight", Isha, "00:00", true, 180.0 / 508.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := newTestRecorder(t, standardDay(t))
			got, err := rec.RecordStatus(context.Background(), tt.prayer, testDate, Prayed, clockPtr(t, tt.at), tt.isNextDay)
			require.NoError(t, err)
			require.NotNil(t, got.WindowFraction)
			assert.InDelta(t, tt.want, *got.WindowFraction, 1e-9)
		})
	}
}

func TestRecordStatus_InvalidInput(t *testing.T) {
	t.Parallel()

	rec, w := newTestRecorder(t, standardDay(t))
	_, err := rec.RecordStatus(context.Background(), Name(9), testDate, Prayed, nil, false)
	require.ErrorIs(t, err, ErrInput)
	_, err = rec.RecordStatus(context.Background(), Fajr, testDate, Status(42), nil, false)
	require.ErrorIs(t, err, ErrInput)
	_, err = rec.RecordStatus(context.Background(), Fajr, Date{}, Missed, nil, false)
	require.ErrorIs(t, err, ErrInput)
	assert.Zero(t, w.writes)
}

// ============================================================
// Degradation
// ============================================================

func TestRecordStatus_ScheduleUnavailable(t *testing.T) {
	t.Parallel()

	w := newMemWriter()
	rec := NewRecorder(w, staticSchedules{err: ErrCalculationUnavailable}, zerolog.Nop())

	got, err := rec.RecordStatus(context.Background(), Asr, testDate, Prayed, clockPtr(t, "03:00"), false)
	require.NoError(t, err, "status write must not be blocked by the fraction")
	assert.Equal(t, Prayed, got.Status)
	require.NotNil(t, got.TimePrayed)
	assert.Nil(t, got.WindowFraction)
	assert.Equal(t, 1, w.writes)
}

func TestRecordStatus_DegenerateWindow(t *testing.T) {
	t.Parallel()

	w := Window{Name: Dhuhr, Start: clk(t, "12:00"), End: clk(t, "12:00")}
	assert.Nil(t, WindowFraction(w, clk(t, "12:00"), false))
}

func TestRecordStatus_PersistenceFailure(t *testing.T) {
	t.Parallel()

	w := newMemWriter()
	w.err = errors.New("disk full")
	src := staticSchedules{byDate: map[Date]DaySchedule{testDate: standardDay(t)}}
	rec := NewRecorder(w, src, zerolog.Nop())

	got, err := rec.RecordStatus(context.Background(), Maghrib, testDate, Missed, nil, false)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Record{Name: Maghrib, Date: testDate, Status: Missed}, got, "attempted record is returned")
}

func TestWindowFraction_Clamped(t *testing.T) {
	t.Parallel()

	w := Window{Name: Asr, Start: clk(t, "15:00"), End: clk(t, "18:00")}
	for c := Clock(0); c < secondsPerDay; c += 60 * 7 {
		f := WindowFraction(w, c, false)
		require.NotNil(t, f)
		require.GreaterOrEqual(t, *f, 0.0)
		require.LessOrEqual(t, *f, 1.0)
		if c <= w.Start {
			require.Zero(t, *f)
		}
		if c >= w.End {
			require.Equal(t, 1.0, *f)
		}
	}
}
