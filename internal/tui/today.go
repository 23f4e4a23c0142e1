package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

type todayModel struct {
	ctx        context.Context
	tracker    *tracker.Tracker
	feed       *tracker.DayFeed
	timeFormat string
	width      int
	height     int

	// date is the day shown in the list; live always follows the real today.
	date    prayer.Date
	day     tracker.DayView
	loaded  bool
	loadErr error
	cursor  int

	live countdownModel

	formActive bool
	form       *timeForm
}

func newTodayModel(ctx context.Context, tr *tracker.Tracker, feed *tracker.DayFeed, timeFormat string) todayModel {
	live := newCountdownModel(tr.Now)
	return todayModel{
		ctx:        ctx,
		tracker:    tr,
		feed:       feed,
		timeFormat: timeFormat,
		date:       live.date,
		live:       live,
	}
}

func (d todayModel) Init() tea.Cmd {
	return tea.Batch(d.follow(d.date), d.loadDay(d.date), d.preload(d.date))
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// follow switches the record subscription to date. It runs synchronously so
// the previous date is cancelled before anything else is loaded.
func (d todayModel) follow(date prayer.Date) tea.Cmd {
	if err := d.feed.Follow(d.ctx, date); err != nil {
		return func() tea.Msg { return errStatus("Follow day", err) }
	}
	return nil
}

func (d todayModel) loadDay(date prayer.Date) tea.Cmd {
	return func() tea.Msg {
		v, err := d.tracker.DayView(d.ctx, date)
		v.Date = date
		return dayViewMsg{view: v, err: err}
	}
}

func (d todayModel) preload(date prayer.Date) tea.Cmd {
	return func() tea.Msg {
		if err := d.tracker.Preload(d.ctx, date); err != nil {
			return errStatus("Preload", err)
		}
		return nil
	}
}

func (d todayModel) selected() prayer.Name {
	return prayer.Names[d.cursor]
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dayViewMsg:
		if msg.view.Date == d.live.date && !msg.view.Schedule.Date.IsZero() {
			d.live.setView(msg.view)
		}
		if msg.view.Date == d.date {
			d.loadErr = msg.err
			if !msg.view.Schedule.Date.IsZero() {
				first := !d.loaded
				d.day = msg.view
				d.loaded = true
				if first && d.date == d.live.date && d.live.ready() {
					d.cursor = int(d.live.current.Current)
				}
			}
		}
		if msg.err != nil {
			return d, func() tea.Msg { return errStatus("Prayer times", msg.err) }
		}
		return d, nil

	case dayUpdateMsg:
		if msg.Date == d.date && d.loaded {
			d.day.Records = msg.Records
		}
		d.live.setRecords(msg.Date, msg.Records)
		return d, nil

	case recordedMsg:
		rec := msg.record
		if rec.Date == d.date && d.loaded {
			d.day.Records = mergeRecord(d.day.Records, rec)
		}
		d.live.setRecord(rec)
		return d, nil

	case tickMsg:
		if today, ok := d.live.rollover(); ok {
			cmds := []tea.Cmd{d.loadDay(today), d.preload(today)}
			if d.date == today.AddDays(-1) {
				d.date = today
				d.loaded = false
				cmds = append(cmds, d.follow(today))
			}
			return d, tea.Batch(cmds...)
		}
		d.live.tick()
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(prayer.Names)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Prayed):
			return d, d.toggle(prayer.Prayed)
		case key.Matches(msg, keys.Congregation):
			return d, d.toggle(prayer.Congregation)
		case key.Matches(msg, keys.Late):
			return d, d.toggle(prayer.Late)
		case key.Matches(msg, keys.Missed):
			return d, d.toggle(prayer.Missed)
		case key.Matches(msg, keys.TimePrayed):
			return d.showForm()
		case key.Matches(msg, keys.Left):
			return d.switchDate(d.date.AddDays(-1))
		case key.Matches(msg, keys.Right):
			return d.switchDate(d.date.AddDays(1))
		case key.Matches(msg, keys.Today):
			return d.switchDate(d.live.date)
		}
	}
	return d, nil
}

func (d todayModel) switchDate(date prayer.Date) (todayModel, tea.Cmd) {
	if date == d.date {
		return d, nil
	}
	d.date = date
	d.loaded = false
	d.loadErr = nil
	return d, tea.Batch(d.follow(date), d.loadDay(date), d.preload(date))
}

// target is the day and window the selected prayer is recorded against.
// Before Fajr, Isha on today's list is still last night's Isha.
func (d todayModel) target() (prayer.Name, prayer.Date, prayer.Window) {
	name := d.selected()
	if name == prayer.Isha && d.date == d.live.date && d.live.ready() && d.live.current.FromPreviousDay {
		if prev := d.live.view.Previous; prev != nil {
			return name, d.live.current.Date, prev.Window(name)
		}
		return name, d.live.current.Date, d.day.Schedule.Window(name)
	}
	return name, d.date, d.day.Schedule.Window(name)
}

func (d todayModel) toggle(status prayer.Status) tea.Cmd {
	name, date, _ := d.target()
	return func() tea.Msg {
		rec, err := d.tracker.Toggle(d.ctx, name, date, status)
		if err != nil {
			return errStatus("Record "+name.String(), err)
		}
		return recordedMsg{record: rec}
	}
}

func (d todayModel) showForm() (todayModel, tea.Cmd) {
	if !d.loaded {
		return d, func() tea.Msg {
			return statusMsg{text: "Prayer times not loaded yet", isError: true}
		}
	}
	initial := ""
	if d.date == d.live.date {
		initial = prayer.ClockOf(d.tracker.Now()).String()
	}
	name, date, w := d.target()
	d.form = newTimeForm(name, date, w, initial, date != d.date)
	d.formActive = true
	return d, d.form.form.Init()
}

func (d todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form.form = f
	}

	switch d.form.form.State {
	case huh.StateCompleted:
		d.formActive = false
		req, err := d.form.request()
		d.form = nil
		if err != nil {
			return d, func() tea.Msg { return errStatus("Time prayed", err) }
		}
		return d, func() tea.Msg {
			rec, err := d.tracker.Record(d.ctx, req)
			if err != nil {
				var tv *prayer.TimeValidationError
				if errors.As(err, &tv) {
					return statusMsg{text: tv.Error(), isError: true}
				}
				return errStatus("Record "+req.Name.String(), err)
			}
			return recordedMsg{record: rec}
		}
	case huh.StateAborted:
		d.formActive = false
		d.form = nil
		return d, nil
	}
	return d, cmd
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.formActive && d.form != nil {
		return activePanelStyle.Width(w).Render(d.form.form.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderCurrentPanel(w),
		d.renderDayPanel(w),
	)
}

func (d todayModel) renderCurrentPanel(w int) string {
	if !d.live.ready() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			countdownUnknownStyle.Width(w-6).Render("--:--:--"),
			mutedStyle.Render("Loading prayer times…"),
		)
		return panelStyle.Width(w).Render(content)
	}

	cur := d.live.current
	name := cur.Current.String()
	if cur.FromPreviousDay {
		name += " (yesterday)"
	}
	window := fmt.Sprintf("%s – %s", cur.Start.Format(d.timeFormat), cur.End.Format(d.timeFormat))
	heading := lipgloss.JoinHorizontal(lipgloss.Bottom,
		highlightStyle.Bold(true).Render(name), "  ", mutedStyle.Render(window),
	)

	style := countdownStyle
	switch {
	case !cur.CountdownKnown:
		style = countdownUnknownStyle
	case cur.HasPrayed:
		style = countdownDoneStyle
	}
	countdown := style.Width(w - 6).Render(cur.Remaining())
	until := mutedStyle.Render(fmt.Sprintf("until %s at %s", cur.NextLabel, cur.NextAt.Format(d.timeFormat)))

	status := statusStyle(cur.Status).Render(statusGlyphs[cur.Status] + " " + cur.Status.Label())
	if cur.TimePrayed != nil {
		status += mutedStyle.Render(" at " + cur.TimePrayed.Format(d.timeFormat))
	}

	lines := []string{heading, countdown, until, status}
	if d.live.stale() {
		lines = append(lines, warningStyle.Render("Showing last known times"))
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (d todayModel) renderDayPanel(w int) string {
	title := titleStyle.Render(formatDate(d.date))
	if d.date == d.live.date {
		title += "  " + highlightStyle.Render("today")
	}
	if d.loaded && d.day.Stale {
		title += "  " + warningStyle.Render("(last known)")
	}

	if !d.loaded {
		msg := mutedStyle.Render("Loading…")
		if d.loadErr != nil {
			msg = errorStyle.Render("Prayer times unavailable: " + d.loadErr.Error())
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", msg))
	}

	var rows []string
	rows = append(rows, title, "")
	for i, name := range prayer.Names {
		win := d.day.Schedule.Window(name)
		rec, _ := prayer.LookupFrom(d.day.Records)(name)

		cursor := "  "
		nameStyle := normalItemStyle
		if i == d.cursor {
			cursor = "> "
			nameStyle = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s – %s  %s",
			cursor,
			nameStyle.Render(padRight(name.String(), 8)),
			win.Start.Format(d.timeFormat),
			win.End.Format(d.timeFormat),
			statusStyle(rec.Status).Render(statusGlyphs[rec.Status]+" "+padRight(rec.Status.Label(), 16)),
		)
		if rec.TimePrayed != nil {
			line += mutedStyle.Render(" at " + rec.TimePrayed.Format(d.timeFormat))
		}
		if rec.WindowFraction != nil {
			line += mutedStyle.Render(fmt.Sprintf(" (%.0f%% of window)", *rec.WindowFraction*100))
		}
		rows = append(rows, line)
	}

	rows = append(rows, "",
		mutedStyle.Render(fmt.Sprintf("  Sunrise %s   Sunset %s",
			d.day.Schedule.Sunrise.Format(d.timeFormat), d.day.Schedule.Sunset.Format(d.timeFormat))),
		"",
		mutedStyle.Render("  p/c/l/m: set status (again to clear)  t: time prayed  ←/→: day  .: today"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// reload refetches the shown day and today, e.g. after settings changed.
func (d todayModel) reload() tea.Cmd {
	if d.date == d.live.date {
		return d.loadDay(d.date)
	}
	return tea.Batch(d.loadDay(d.date), d.loadDay(d.live.date))
}
