package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	t.Parallel()

	// Stored codes are a persistence contract.
	want := map[Status]int{Prayed: 0, Congregation: 1, Late: 2, Missed: 3, Empty: 4}
	for s, code := range want {
		assert.Equal(t, code, s.Code(), s.String())
		got, ok := StatusFromCode(code)
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestStatusFromCode_Unknown(t *testing.T) {
	t.Parallel()

	s, ok := StatusFromCode(17)
	assert.False(t, ok)
	assert.Equal(t, Prayed, s)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]Status{
		"prayed":       Prayed,
		"PRAYED":       Prayed,
		"congregation": Congregation,
		"jamaah":       Congregation,
		"late":         Late,
		"missed":       Missed,
		"empty":        Empty,
		"unset":        Empty,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("sleeping")
	assert.ErrorIs(t, err, ErrInput)
}

func TestToggle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Empty, Toggle(Late, Late))
	assert.Equal(t, Missed, Toggle(Late, Missed))
	assert.Equal(t, Prayed, Toggle(Empty, Prayed))
	assert.Equal(t, Empty, Toggle(Empty, Empty))
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Not set", Empty.Label())
	assert.Equal(t, "In congregation", Congregation.Label())
}

func TestParseName(t *testing.T) {
	t.Parallel()

	for i, key := range []string{"fajr", "Dhuhr", "ASR", "maghrib", "isha"} {
		n, err := ParseName(key)
		require.NoError(t, err)
		assert.Equal(t, Names[i], n)
	}
	n, err := ParseName("zuhr")
	require.NoError(t, err)
	assert.Equal(t, Dhuhr, n)

	_, err = ParseName("tahajjud")
	assert.ErrorIs(t, err, ErrInput)

	next, ok := Maghrib.Next()
	assert.True(t, ok)
	assert.Equal(t, Isha, next)
	_, ok = Isha.Next()
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"04:12", "04:12", true},
		{"04:12 (BST)", "04:12", true},
		{"23:59:59", "23:59", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"noon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseClock(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestMinutesToMidnight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 180, minutesToMidnight(MustClock(21, 0)))
	assert.Equal(t, 1, minutesToMidnight(MustClock(23, 59)))
	assert.Equal(t, 1440, minutesToMidnight(0))
}

func TestDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, time.Wednesday, d.Weekday())

	_, err = ParseDate("28/02/2024")
	assert.ErrorIs(t, err, ErrInput)
}

func TestSettingsPatch(t *testing.T) {
	t.Parallel()

	lat := 21.4225
	m := UmmAlQura
	got := SettingsPatch{Latitude: &lat, Method: &m}.Apply(DefaultSettings())
	assert.Equal(t, 21.4225, got.Latitude)
	assert.Equal(t, -0.1278, got.Longitude)
	assert.Equal(t, UmmAlQura, got.Method)
	assert.Equal(t, Shafi, got.Madhab)

	assert.True(t, SettingsPatch{}.IsEmpty())
}

func TestParseSettingsEnums(t *testing.T) {
	t.Parallel()

	for _, m := range Methods {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	for _, r := range HighLatitudeRules {
		got, err := ParseHighLatitudeRule(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	got, err := ParseMadhab("Hanafi")
	require.NoError(t, err)
	assert.Equal(t, Hanafi, got)

	_, err = ParseMethod("jafari")
	assert.ErrorIs(t, err, ErrInput)
}
