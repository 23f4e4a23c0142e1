package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/store"
)

type stubSource struct {
	mu    sync.Mutex
	times prayer.DayTimes
	err   error
	calls atomic.Int32
}

func (s *stubSource) ComputeDay(context.Context, prayer.Date, prayer.Coordinates, prayer.Methodology) (prayer.DayTimes, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.times, s.err
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var day = prayer.NewDate(2024, 3, 10)

func at(h, m int) time.Time {
	return time.Date(2024, 3, 10, h, m, 0, 0, time.Local)
}

func newTestTracker(t *testing.T, now time.Time) (*Tracker, *store.Store, *stubSource) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	src := &stubSource{times: prayer.DayTimes{
		Fajr:    prayer.MustClock(5, 30),
		Sunrise: prayer.MustClock(6, 15),
		Dhuhr:   prayer.MustClock(12, 10),
		Asr:     prayer.MustClock(15, 20),
		Sunset:  prayer.MustClock(18, 0),
		Maghrib: prayer.MustClock(18, 0),
		Isha:    prayer.MustClock(21, 0),
	}}
	tr := New(st, st, src, WithClock(func() time.Time { return now }))
	return tr, st, src
}

func clockPtr(h, m int) *prayer.Clock {
	c := prayer.MustClock(h, m)
	return &c
}

func TestCurrent_Daytime(t *testing.T) {
	tr, _, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	_, err := tr.Record(ctx, RecordRequest{Name: prayer.Dhuhr, Date: day, Status: prayer.Congregation})
	require.NoError(t, err)

	cur, view, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, prayer.Dhuhr, cur.Current)
	assert.Equal(t, day, cur.Date)
	assert.Equal(t, prayer.Congregation, cur.Status)
	assert.True(t, cur.HasPrayed)
	assert.Equal(t, day, view.Date)
	assert.False(t, view.Stale)
}

func TestCurrent_BeforeDawnUsesYesterdaysIsha(t *testing.T) {
	tr, _, _ := newTestTracker(t, at(3, 0))
	ctx := context.Background()
	yesterday := day.AddDays(-1)

	_, err := tr.Record(ctx, RecordRequest{
		Name: prayer.Isha, Date: yesterday, Status: prayer.Prayed,
		TimePrayed: clockPtr(0, 30), IsNextDay: true,
	})
	require.NoError(t, err)

	cur, _, err := tr.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, prayer.Isha, cur.Current)
	assert.True(t, cur.FromPreviousDay)
	assert.Equal(t, yesterday, cur.Date)
	assert.Equal(t, prayer.Prayed, cur.Status)
	assert.Equal(t, prayer.MustClock(21, 0), cur.Start)
	assert.Equal(t, prayer.MustClock(5, 30), cur.End)
}

func TestRecord_StoresWindowFraction(t *testing.T) {
	tr, st, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	rec, err := tr.Record(ctx, RecordRequest{Name: prayer.Asr, Date: day, Status: prayer.Prayed, TimePrayed: clockPtr(16, 40)})
	require.NoError(t, err)
	require.NotNil(t, rec.WindowFraction)
	assert.InDelta(t, 0.5, *rec.WindowFraction, 1e-9)

	stored, err := st.Record(ctx, prayer.Asr, day)
	require.NoError(t, err)
	assert.Equal(t, rec.WindowFraction, stored.WindowFraction)
}

func TestRecord_RejectsTimeOutsideWindow(t *testing.T) {
	tr, st, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	_, err := tr.Record(ctx, RecordRequest{Name: prayer.Asr, Date: day, Status: prayer.Prayed, TimePrayed: clockPtr(12, 0)})
	require.ErrorIs(t, err, prayer.ErrTimeValidation)

	_, err = st.Record(ctx, prayer.Asr, day)
	assert.ErrorIs(t, err, prayer.ErrNotFound)
}

func TestToggle(t *testing.T) {
	tr, _, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	rec, err := tr.Toggle(ctx, prayer.Fajr, day, prayer.Late)
	require.NoError(t, err)
	assert.Equal(t, prayer.Late, rec.Status)

	rec, err = tr.Toggle(ctx, prayer.Fajr, day, prayer.Late)
	require.NoError(t, err)
	assert.Equal(t, prayer.Empty, rec.Status)

	rec, err = tr.Toggle(ctx, prayer.Fajr, day, prayer.Missed)
	require.NoError(t, err)
	assert.Equal(t, prayer.Missed, rec.Status)
}

// unreadable fails every single-record read while writes still reach the store.
type unreadable struct{ *store.Store }

func (unreadable) Record(context.Context, prayer.Name, prayer.Date) (prayer.Record, error) {
	return prayer.Record{}, errors.New("disk I/O error")
}

func TestToggle_ReadFailureIsNotEmpty(t *testing.T) {
	_, st, src := newTestTracker(t, at(14, 0))
	ctx := context.Background()
	tr := New(unreadable{st}, st, src, WithClock(func() time.Time { return at(14, 0) }))

	require.NoError(t, st.UpsertRecord(ctx, prayer.Record{Name: prayer.Fajr, Date: day, Status: prayer.Late}))

	_, err := tr.Toggle(ctx, prayer.Fajr, day, prayer.Late)
	require.ErrorIs(t, err, prayer.ErrPersistence)

	rec, err := st.Record(ctx, prayer.Fajr, day)
	require.NoError(t, err)
	assert.Equal(t, prayer.Late, rec.Status, "a failed read must not clear or overwrite the stored status")
}

func TestReset(t *testing.T) {
	tr, _, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	for _, n := range prayer.Names {
		_, err := tr.Record(ctx, RecordRequest{Name: n, Date: day, Status: prayer.Missed})
		require.NoError(t, err)
	}
	_, err := tr.Record(ctx, RecordRequest{Name: prayer.Fajr, Date: day.AddDays(1), Status: prayer.Late})
	require.NoError(t, err)

	n, err := tr.Reset(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	recs, err := tr.Records(ctx, day, day.AddDays(1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, day.AddDays(1), recs[0].Date)

	n, err = tr.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStats(t *testing.T) {
	tr, _, _ := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	_, err := tr.Record(ctx, RecordRequest{Name: prayer.Fajr, Date: day, Status: prayer.Prayed})
	require.NoError(t, err)
	_, err = tr.Record(ctx, RecordRequest{Name: prayer.Dhuhr, Date: day, Status: prayer.Missed})
	require.NoError(t, err)

	sum, grid, err := tr.Stats(ctx, day.AddDays(-1), day)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Days)
	assert.Equal(t, 1, sum.Counts[prayer.Prayed])
	assert.Equal(t, 1, sum.Counts[prayer.Missed])
	require.Len(t, grid, 2)
	assert.Equal(t, 1, grid[1].Prayed())

	_, _, err = tr.Stats(ctx, day, day.AddDays(-1))
	assert.ErrorIs(t, err, prayer.ErrInput)
}

func TestSchedule_FallsBackToLastKnown(t *testing.T) {
	tr, _, src := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	first, err := tr.Schedule(ctx, day)
	require.NoError(t, err)

	src.fail(errors.New("network down"))
	_, err = tr.UpdateSettings(ctx, prayer.SettingsPatch{})
	require.NoError(t, err)

	got, err := tr.Schedule(ctx, day)
	require.ErrorIs(t, err, prayer.ErrCalculationUnavailable)
	assert.Equal(t, first, got)

	view, err := tr.DayView(ctx, day)
	require.Error(t, err)
	assert.True(t, view.Stale)

	_, err = tr.Schedule(ctx, day.AddDays(30))
	require.ErrorIs(t, err, prayer.ErrCalculationUnavailable)
}

func TestUpdateSettingsInvalidatesSchedules(t *testing.T) {
	tr, _, src := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	_, err := tr.Schedule(ctx, day)
	require.NoError(t, err)
	_, err = tr.Schedule(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "second lookup is memoised")

	lat := 21.4225
	s, err := tr.UpdateSettings(ctx, prayer.SettingsPatch{Latitude: &lat})
	require.NoError(t, err)
	assert.Equal(t, lat, s.Latitude)

	_, err = tr.Schedule(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int32(4), src.calls.Load())
}

func TestRunInvalidatesOnExternalSettingsChange(t *testing.T) {
	tr, st, src := newTestTracker(t, at(14, 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	_, err := tr.Schedule(ctx, day)
	require.NoError(t, err)
	base := src.calls.Load()

	require.NoError(t, st.SetSetting(ctx, store.KeyMadhab, prayer.Hanafi.String()))
	assert.Eventually(t, func() bool {
		_, err := tr.Schedule(ctx, day)
		return err == nil && src.calls.Load() > base
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPreload(t *testing.T) {
	tr, _, src := newTestTracker(t, at(14, 0))
	ctx := context.Background()

	require.NoError(t, tr.Preload(ctx, day))
	calls := src.calls.Load()

	for _, d := range []prayer.Date{day.AddDays(-1), day, day.AddDays(1)} {
		_, err := tr.Schedule(ctx, d)
		require.NoError(t, err)
	}
	assert.Equal(t, calls, src.calls.Load())
}
