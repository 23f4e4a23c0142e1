package prayer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	days  map[Date]DayTimes
	def   DayTimes
	err   error
	calls []Date
}

func (f *fakeSource) ComputeDay(_ context.Context, date Date, _ Coordinates, _ Methodology) (DayTimes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	if f.err != nil {
		return DayTimes{}, f.err
	}
	if t, ok := f.days[date]; ok {
		return t, nil
	}
	return f.def, nil
}

func clk(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func dayTimes(t *testing.T, fajr, sunrise, dhuhr, asr, maghrib, isha string) DayTimes {
	t.Helper()
	return DayTimes{
		Fajr:    clk(t, fajr),
		Sunrise: clk(t, sunrise),
		Dhuhr:   clk(t, dhuhr),
		Asr:     clk(t, asr),
		Sunset:  clk(t, maghrib),
		Maghrib: clk(t, maghrib),
		Isha:    clk(t, isha),
	}
}

var testDate = NewDate(2024, 3, 10)

func TestComputeSchedule(t *testing.T) {
	t.Parallel()

	src := &fakeSource{days: map[Date]DayTimes{
		testDate:            dayTimes(t, "05:30", "06:15", "12:10", "15:20", "18:00", "21:00"),
		testDate.AddDays(1): dayTimes(t, "05:28", "06:13", "12:10", "15:21", "18:02", "21:01"),
	}}
	calc := NewWindowCalculator(src)

	s, err := calc.ComputeSchedule(context.Background(), testDate, DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, testDate, s.Date)
	assert.Equal(t, []Date{testDate, testDate.AddDays(1)}, src.calls)
	assert.Equal(t, clk(t, "06:15"), s.Sunrise)

	fajr := s.Window(Fajr)
	assert.Equal(t, clk(t, "05:30"), fajr.Start)
	assert.Equal(t, clk(t, "06:15"), fajr.End, "fajr closes at sunrise")
	assert.False(t, fajr.CrossesMidnight)

	assert.Equal(t, clk(t, "15:20"), s.Window(Dhuhr).End)
	assert.Equal(t, clk(t, "18:00"), s.Window(Asr).End)
	assert.Equal(t, clk(t, "21:00"), s.Window(Maghrib).End)

	isha := s.Window(Isha)
	assert.Equal(t, clk(t, "21:00"), isha.Start)
	assert.Equal(t, clk(t, "05:28"), isha.End, "isha closes at tomorrow's fajr")
	assert.True(t, isha.CrossesMidnight)
	assert.Equal(t, clk(t, "05:28"), s.NextDayFajr())

	for i, n := range Names {
		assert.Equal(t, n, s.Windows[i].Name)
	}
}

func TestComputeSchedule_Ordering(t *testing.T) {
	t.Parallel()

	src := &fakeSource{def: dayTimes(t, "03:10", "04:43", "13:02", "17:25", "21:22", "23:05")}
	s, err := NewWindowCalculator(src).ComputeSchedule(context.Background(), testDate, DefaultSettings())
	require.NoError(t, err)

	assert.Less(t, s.Start(Fajr), s.Sunrise)
	assert.Less(t, s.Sunrise, s.Start(Dhuhr))
	for i := 1; i < len(Names); i++ {
		assert.Less(t, s.Windows[i-1].Start, s.Windows[i].Start)
	}
	// Isha's end reads earlier than its start on a same-day clock.
	assert.Less(t, s.Window(Isha).End, s.Window(Isha).Start)
}

func TestComputeSchedule_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 91, 0},
		{"latitude too low", -90.5, 0},
		{"longitude too high", 10, 180.1},
		{"longitude too low", 10, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := &fakeSource{}
			settings := DefaultSettings()
			settings.Latitude, settings.Longitude = tt.lat, tt.lon

			_, err := NewWindowCalculator(src).ComputeSchedule(context.Background(), testDate, settings)
			require.ErrorIs(t, err, ErrInput)
			assert.Empty(t, src.calls, "source must not be called with invalid input")
		})
	}
}

func TestComputeSchedule_SourceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"input error propagates", ErrInput, ErrInput},
		{"unavailable propagates", ErrCalculationUnavailable, ErrCalculationUnavailable},
		{"unknown error is unavailable", errors.New("boom"), ErrCalculationUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := &fakeSource{err: tt.err}
			s, err := NewWindowCalculator(src).ComputeSchedule(context.Background(), testDate, DefaultSettings())
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, DaySchedule{}, s, "no partial schedule on failure")
		})
	}
}

func TestComputeSchedule_RejectsUnorderedTimes(t *testing.T) {
	t.Parallel()

	// Isha before Maghrib, as a calculator can produce at extreme latitudes.
	src := &fakeSource{def: dayTimes(t, "02:00", "03:30", "13:00", "17:30", "22:40", "00:20")}
	_, err := NewWindowCalculator(src).ComputeSchedule(context.Background(), testDate, DefaultSettings())
	require.ErrorIs(t, err, ErrCalculationUnavailable)
	assert.Contains(t, err.Error(), "isha")
}

func TestComputeSchedule_MissingDate(t *testing.T) {
	t.Parallel()

	_, err := NewWindowCalculator(&fakeSource{}).ComputeSchedule(context.Background(), Date{}, DefaultSettings())
	require.ErrorIs(t, err, ErrInput)
}

func TestWindowDurationMinutes(t *testing.T) {
	t.Parallel()

	w := Window{Name: Isha, Start: clk(t, "21:00"), End: clk(t, "05:30"), CrossesMidnight: true}
	assert.Equal(t, 510, w.DurationMinutes())

	w = Window{Name: Fajr, Start: clk(t, "05:30"), End: clk(t, "06:15")}
	assert.Equal(t, 45, w.DurationMinutes())
}

func TestWindowContains(t *testing.T) {
	t.Parallel()

	isha := Window{Name: Isha, Start: clk(t, "21:00"), End: clk(t, "05:30"), CrossesMidnight: true}
	assert.True(t, isha.Contains(clk(t, "21:00")))
	assert.True(t, isha.Contains(clk(t, "23:59")))
	assert.True(t, isha.Contains(clk(t, "00:10")))
	assert.False(t, isha.Contains(clk(t, "05:30")))
	assert.False(t, isha.Contains(clk(t, "12:00")))

	asr := Window{Name: Asr, Start: clk(t, "15:20"), End: clk(t, "18:00")}
	assert.True(t, asr.Contains(clk(t, "15:20")))
	assert.False(t, asr.Contains(clk(t, "18:00")))
}
