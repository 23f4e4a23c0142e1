package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

// timeForm asks when a prayer was performed. Values are pointers so they
// survive the model being copied by value.
type timeForm struct {
	form    *huh.Form
	name    prayer.Name
	date    prayer.Date
	value   *string
	nextDay *bool
}

// afterMidnight presets the Isha confirmation, used when last night's Isha is
// recorded before Fajr.
func newTimeForm(name prayer.Name, date prayer.Date, w prayer.Window, initial string, afterMidnight bool) *timeForm {
	value := initial
	nextDay := afterMidnight && name == prayer.Isha
	f := &timeForm{name: name, date: date, value: &value, nextDay: &nextDay}

	fields := []huh.Field{
		huh.NewInput().
			Title("Time prayed").
			Description(name.String() + " window " + w.Start.String() + "–" + w.End.String()).
			Placeholder("HH:MM").
			Value(f.value).
			Validate(func(s string) error {
				_, err := prayer.ParseClock(s)
				return err
			}),
	}
	if name == prayer.Isha {
		fields = append(fields, huh.NewConfirm().
			Title("After midnight?").
			Description("Prayed after 00:00, before the next Fajr").
			Affirmative("Yes").
			Negative("No").
			Value(f.nextDay))
	}

	f.form = huh.NewForm(huh.NewGroup(fields...).Title("Record " + name.String())).
		WithShowHelp(true).
		WithShowErrors(true)
	return f
}

func (f *timeForm) request() (tracker.RecordRequest, error) {
	c, err := prayer.ParseClock(*f.value)
	if err != nil {
		return tracker.RecordRequest{}, err
	}
	return tracker.RecordRequest{
		Name:       f.name,
		Date:       f.date,
		Status:     prayer.Prayed,
		TimePrayed: &c,
		IsNextDay:  f.name == prayer.Isha && *f.nextDay,
	}, nil
}
