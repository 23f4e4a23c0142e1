package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

func (a *app) newMarkCmd() *cobra.Command {
	var (
		date    string
		at      string
		nextDay bool
	)
	cmd := &cobra.Command{
		Use:   "mark <prayer> <status>",
		Short: "Record the status of a prayer",
		Long: `Record the status of a prayer.

Status is one of: prayed, congregation, late, missed, empty.
Choosing empty clears the prayer. With --at, the time the prayer was
performed is checked against its window and stored with it.

Without --date, Isha marked before today's Fajr is recorded against
the previous day.`,
		Example: `  salah mark fajr congregation
  salah mark asr prayed --at 16:40
  salah mark isha prayed --at 00:30 --next-day --date 2024-03-09`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := prayer.ParseName(args[0])
			if err != nil {
				return err
			}
			status, err := prayer.ParseStatus(args[1])
			if err != nil {
				return err
			}

			tr := a.rt.tracker
			ctx := cmd.Context()

			var d prayer.Date
			if date != "" {
				if d, err = prayer.ParseDate(date); err != nil {
					return err
				}
			} else {
				d = tr.Today()
				if name == prayer.Isha {
					if cur, _, err := tr.Current(ctx); err == nil && cur.FromPreviousDay {
						d = cur.Date
					}
				}
			}

			req := tracker.RecordRequest{Name: name, Date: d, Status: status}
			if at != "" {
				if status != prayer.Prayed {
					return fmt.Errorf("%w: --at only applies to the prayed status", prayer.ErrInput)
				}
				c, err := prayer.ParseClock(at)
				if err != nil {
					return err
				}
				req.TimePrayed = &c
				req.IsNextDay = nextDay
			} else if nextDay {
				return fmt.Errorf("%w: --next-day needs --at", prayer.ErrInput)
			}

			rec, err := tr.Record(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %s", rec.Name, rec.Date, rec.Status.Label())
			if rec.TimePrayed != nil {
				fmt.Fprintf(out, " at %s", rec.TimePrayed.Format(a.rt.cfg.Display.TimeFormat))
			}
			if rec.WindowFraction != nil {
				fmt.Fprintf(out, " (%.0f%% into the window)", *rec.WindowFraction*100)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day the prayer belongs to (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "at", "", "Time the prayer was performed (HH:MM)")
	cmd.Flags().BoolVar(&nextDay, "next-day", false, "The --at time is after midnight (Isha only)")
	return cmd
}

func (a *app) newResetCmd() *cobra.Command {
	var (
		date string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete recorded statuses for a day, or all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := a.rt.tracker
			var (
				n   int64
				err error
			)
			switch {
			case all && date != "":
				return fmt.Errorf("%w: use either --date or --all", prayer.ErrInput)
			case all:
				n, err = tr.ResetAll(cmd.Context())
			case date != "":
				var d prayer.Date
				if d, err = prayer.ParseDate(date); err != nil {
					return err
				}
				n, err = tr.Reset(cmd.Context(), d)
			default:
				return fmt.Errorf("%w: reset needs --date or --all", prayer.ErrInput)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to clear (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every recorded day")
	return cmd
}
