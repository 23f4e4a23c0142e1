package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/salah/internal/export"
	"github.com/sadopc/salah/internal/prayer"
)

const defaultStatsDays = 30

// dateRange resolves --from/--to, defaulting to the last defaultStatsDays
// days ending today.
func (a *app) dateRange(from, to string) (prayer.Date, prayer.Date, error) {
	today := a.rt.tracker.Today()
	end, err := parseDateFlag(to, today)
	if err != nil {
		return prayer.Date{}, prayer.Date{}, err
	}
	start, err := parseDateFlag(from, end.AddDays(-(defaultStatsDays - 1)))
	if err != nil {
		return prayer.Date{}, prayer.Date{}, err
	}
	return start, end, nil
}

func (a *app) newStatsCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise prayer statuses over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := a.dateRange(from, to)
			if err != nil {
				return err
			}
			summary, days, err := a.rt.tracker.Stats(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, boldStyle.Render(fmt.Sprintf("%s to %s (%d days)", start, end, summary.Days)))

			t := table.New().Border(lipgloss.RoundedBorder()).Headers("Status", "Count")
			for _, s := range prayer.Statuses {
				if s == prayer.Empty {
					continue
				}
				t.Row(s.Label(), fmt.Sprint(summary.Counts[s]))
			}
			unset := summary.Days*len(prayer.Names) - summary.Total
			t.Row(prayer.Empty.Label(), fmt.Sprint(unset))
			fmt.Fprintln(out, t.Render())

			fmt.Fprintf(out, "Performed: %.0f%%\n", summary.PrayedRatio()*100)
			if summary.MeanFraction != nil {
				fmt.Fprintf(out, "Mean time into window: %.0f%%\n", *summary.MeanFraction*100)
			}

			complete := 0
			for _, d := range days {
				if d.Prayed() == len(prayer.Names) {
					complete++
				}
			}
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Days with all five performed: %d", complete)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, default 30 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, default today)")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var from, to, format, outPath string
	var all bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded statuses as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var start, end prayer.Date
			if all {
				start, end = prayer.NewDate(1970, 1, 1), a.rt.tracker.Today().AddDays(1)
			} else if start, end, err = a.dateRange(from, to); err != nil {
				return err
			}
			if end.Before(start) {
				return fmt.Errorf("%w: range %s..%s is reversed", prayer.ErrInput, start, end)
			}

			records, err := a.rt.tracker.Records(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				return export.Write(cmd.OutOrStdout(), f, records)
			}
			if err := export.ToFile(records, f, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d record(s) to %s\n", len(records), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, default 30 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every recorded day")
	cmd.MarkFlagsMutuallyExclusive("all", "from")
	cmd.MarkFlagsMutuallyExclusive("all", "to")
	return cmd
}

func (a *app) newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the database path and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.rt.store.MigrationStatus()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", a.rt.cfg.DBPath)
			fmt.Fprintf(out, "Schema:   v%d (latest v%d)\n", st.CurrentVersion, st.LatestVersion)
			if st.Dirty {
				fmt.Fprintln(out, warnStyle.Render("The last migration failed part way; the database needs manual repair."))
			}
			if st.Pending {
				fmt.Fprintln(out, "Migrations are pending and will run on next start.")
			}
			return nil
		},
	})
	return cmd
}
