package tui

import (
	"fmt"
	"strings"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Today", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg struct{}

// dayViewMsg carries a freshly loaded day. err may be set alongside a stale
// view.
type dayViewMsg struct {
	view tracker.DayView
	err  error
}

type dayUpdateMsg tracker.DayUpdate

type recordedMsg struct {
	record prayer.Record
}

type settingsSavedMsg struct {
	settings prayer.Settings
}

type exportDoneMsg struct {
	path  string
	count int
}

// --- Helpers ---

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// formatDate renders d as "Sun 10 Mar 2024".
func formatDate(d prayer.Date) string {
	return fmt.Sprintf("%s %02d %s %d", d.Weekday().String()[:3], d.Day, d.Month.String()[:3], d.Year)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
