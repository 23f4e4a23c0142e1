package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

// chartStatuses are stacked bottom to top.
var chartStatuses = []prayer.Status{prayer.Congregation, prayer.Prayed, prayer.Late, prayer.Missed}

type historyModel struct {
	ctx     context.Context
	tracker *tracker.Tracker
	width   int
	height  int

	mode    historyMode
	offset  int // weeks or 7-day blocks back from today (0 = current)
	summary prayer.Summary
	days    []prayer.DayStatuses

	chart barchart.Model
}

func newHistoryModel(ctx context.Context, tr *tracker.Tracker) historyModel {
	return historyModel{
		ctx:     ctx,
		tracker: tr,
		chart:   barchart.New(60, 12),
	}
}

func (r *historyModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type historyDataMsg struct {
	from, to prayer.Date
	summary  prayer.Summary
	days     []prayer.DayStatuses
}

func (r historyModel) refresh() tea.Cmd {
	from, to := r.dateRange()
	return func() tea.Msg {
		summary, days, err := r.tracker.Stats(r.ctx, from, to)
		if err != nil {
			return errStatus("History", err)
		}
		return historyDataMsg{from: from, to: to, summary: summary, days: days}
	}
}

// dateRange returns the inclusive range shown for the current mode and offset.
func (r historyModel) dateRange() (prayer.Date, prayer.Date) {
	today := r.tracker.Today()

	switch r.mode {
	case historyWeekly:
		// Week starts on Monday
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		start := today.AddDays(-int(weekday-time.Monday) - 7*r.offset)
		return start, start.AddDays(6)
	default:
		end := today.AddDays(-7 * r.offset)
		return end.AddDays(-6), end
	}
}

func (r historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if from, to := r.dateRange(); from != msg.from || to != msg.to {
			return r, nil
		}
		r.summary = msg.summary
		r.days = msg.days
		r.buildChart()
		return r, nil

	case recordedMsg:
		from, to := r.dateRange()
		if !msg.record.Date.Before(from) && !msg.record.Date.After(to) {
			return r, r.refresh()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == historyDaily {
				r.mode = historyWeekly
			} else {
				r.mode = historyDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *historyModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, day := range r.days {
		counts := make(map[prayer.Status]int)
		for _, s := range day.Statuses {
			counts[s]++
		}

		var values []barchart.BarValue
		for _, s := range chartStatuses {
			if counts[s] == 0 {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  s.Label(),
				Value: float64(counts[s]),
				Style: statusStyle(s),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  fmt.Sprintf("%s %02d", day.Date.Weekday().String()[:3], day.Date.Day),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r historyModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Last 7 days")
	weeklyTab := inactiveTabStyle.Render("Week")
	if r.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Last 7 days")
	} else {
		weeklyTab = activeTabStyle.Render("Week")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", formatDate(from), formatDate(to)))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r historyModel) renderSummaryTable(w int) string {
	if r.summary.Total == 0 {
		return mutedStyle.Render("  No prayers recorded for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-18s %6s", "Status", "Count")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 26))))
	for _, s := range prayer.Statuses {
		if s == prayer.Empty {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %s %6d",
			statusStyle(s).Render(padRight(s.Label(), 18)), r.summary.Counts[s]))
	}
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %-18s %5.0f%%", "Performed", r.summary.PrayedRatio()*100))
	if r.summary.MeanFraction != nil {
		rows = append(rows, fmt.Sprintf("  %-18s %5.0f%%", "Mean window used", *r.summary.MeanFraction*100))
	}
	return strings.Join(rows, "\n")
}

func (r historyModel) renderLegend() string {
	var items []string
	for _, s := range chartStatuses {
		items = append(items, statusStyle(s).Render("●")+" "+s.Label())
	}
	return "  " + strings.Join(items, "  ")
}
