package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	accentText = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C63FF")).Bold(true)
)

// parseDateFlag returns def when v is empty.
func parseDateFlag(v string, def prayer.Date) (prayer.Date, error) {
	if v == "" {
		return def, nil
	}
	return prayer.ParseDate(v)
}

func (a *app) newTodayCmd() *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the prayer windows and statuses for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := a.rt.tracker
			d, err := parseDateFlag(date, tr.Today())
			if err != nil {
				return err
			}
			view, err := tr.DayView(cmd.Context(), d)
			if err != nil && !view.Stale {
				return err
			}
			if view.Stale {
				warnStale(cmd)
			}
			if asJSON {
				return printDayJSON(cmd.OutOrStdout(), view)
			}
			printDay(cmd.OutOrStdout(), view, a.rt.cfg.Display.TimeFormat)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func warnStale(cmd *cobra.Command) {
	fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("warning: prayer times could not be refreshed, showing last known schedule"))
}

func recordsByName(records []prayer.Record) map[prayer.Name]prayer.Record {
	m := make(map[prayer.Name]prayer.Record, len(records))
	for _, r := range records {
		m[r.Name] = r
	}
	return m
}

func printDay(w io.Writer, view tracker.DayView, layout string) {
	byName := recordsByName(view.Records)

	rows := make([][]string, 0, len(prayer.Names))
	for _, n := range prayer.Names {
		win := view.Schedule.Window(n)
		rec := byName[n]
		prayedAt := ""
		if rec.TimePrayed != nil {
			prayedAt = rec.TimePrayed.Format(layout)
		}
		rows = append(rows, []string{
			n.String(),
			win.Start.Format(layout),
			win.End.Format(layout),
			rec.Status.Label(),
			prayedAt,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Prayer", "Start", "End", "Status", "Prayed at").
		Rows(rows...)

	fmt.Fprintln(w, boldStyle.Render(view.Date.String()))
	fmt.Fprintln(w, t.Render())
}

type dayJSON struct {
	Date    string       `json:"date"`
	Stale   bool         `json:"stale,omitempty"`
	Prayers []prayerJSON `json:"prayers"`
}

type prayerJSON struct {
	Prayer     string   `json:"prayer"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Status     string   `json:"status"`
	TimePrayed string   `json:"time_prayed,omitempty"`
	Fraction   *float64 `json:"window_fraction,omitempty"`
}

func printDayJSON(w io.Writer, view tracker.DayView) error {
	byName := recordsByName(view.Records)
	out := dayJSON{Date: view.Date.String(), Stale: view.Stale}
	for _, n := range prayer.Names {
		win := view.Schedule.Window(n)
		rec := byName[n]
		p := prayerJSON{
			Prayer:   n.Key(),
			Start:    win.Start.String(),
			End:      win.End.String(),
			Status:   rec.Status.String(),
			Fraction: rec.WindowFraction,
		}
		if rec.TimePrayed != nil {
			p.TimePrayed = rec.TimePrayed.String()
		}
		out.Prayers = append(out.Prayers, p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *app) newNowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show the current prayer and the time left in its window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, view, err := a.rt.tracker.Current(cmd.Context())
			if err != nil && !view.Stale {
				return err
			}
			if view.Stale {
				warnStale(cmd)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Prayer    string `json:"prayer"`
					Date      string `json:"date"`
					Start     string `json:"start"`
					End       string `json:"end"`
					Status    string `json:"status"`
					Next      string `json:"next"`
					NextAt    string `json:"next_at"`
					Remaining string `json:"remaining"`
				}{
					Prayer:    cur.Current.Key(),
					Date:      cur.Date.String(),
					Start:     cur.Start.String(),
					End:       cur.End.String(),
					Status:    cur.Status.String(),
					Next:      cur.NextLabel,
					NextAt:    cur.NextAt.String(),
					Remaining: cur.Remaining(),
				})
			}

			layout := a.rt.cfg.Display.TimeFormat
			fmt.Fprintf(out, "%s  %s - %s  %s\n",
				accentText.Render(cur.Current.String()),
				cur.Start.Format(layout), cur.End.Format(layout),
				cur.Status.Label())
			if cur.FromPreviousDay {
				fmt.Fprintln(out, dimStyle.Render("(counts towards "+cur.Date.String()+")"))
			}
			fmt.Fprintf(out, "%s in %s\n", cur.NextLabel, cur.Remaining())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
