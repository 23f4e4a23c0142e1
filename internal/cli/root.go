// Package cli implements the salah command line. Running it without a
// subcommand starts the interactive TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sadopc/salah/internal/adhan"
	"github.com/sadopc/salah/internal/config"
	"github.com/sadopc/salah/internal/logging"
	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/store"
	"github.com/sadopc/salah/internal/tracker"
	"github.com/sadopc/salah/internal/tui"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	dbPath     string
	timeFormat string
	verbose    bool
}

// runtime is everything a command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	tracker *tracker.Tracker
	closers []io.Closer
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

type openFunc func(flags globalFlags) (*runtime, error)

type app struct {
	flags globalFlags
	open  openFunc
	rt    *runtime
}

// NewRootCmd creates the root command. The version is set by the calling
// binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, openRuntime)
}

func newRootCmd(version string, open openFunc) *cobra.Command {
	a := &app{open: open}

	rootCmd := &cobra.Command{
		Use:     "salah",
		Short:   "Track the five daily prayers",
		Long:    "Record whether and when each daily prayer was performed, with prayer windows from the Al Adhan API.\nRun without a subcommand to open the interactive view.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(a.flags)
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.rt == nil {
				return nil
			}
			err := a.rt.Close()
			a.rt = nil
			return err
		},
		RunE:          a.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (default: ~/.config/salah/config.toml)")
	pf.StringVar(&a.flags.dbPath, "db", "", "Database file (overrides config)")
	pf.StringVar(&a.flags.timeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(a.newTodayCmd())
	rootCmd.AddCommand(a.newNowCmd())
	rootCmd.AddCommand(a.newMarkCmd())
	rootCmd.AddCommand(a.newResetCmd())
	rootCmd.AddCommand(a.newSettingsCmd())
	rootCmd.AddCommand(a.newStatsCmd())
	rootCmd.AddCommand(a.newExportCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(a.newDBCmd())

	return rootCmd
}

// timeLayout maps the --time-format shorthands onto Go layouts.
func timeLayout(v string) (string, error) {
	switch v {
	case "24h", "15:04":
		return "15:04", nil
	case "12h", "3:04 PM":
		return "3:04 PM", nil
	}
	return "", fmt.Errorf("%w: time format %q (want 12h or 24h)", prayer.ErrInput, v)
}

// openRuntime loads configuration, opens the database and wires the tracker
// to the Al Adhan API behind the persistent computed-times cache.
func openRuntime(flags globalFlags) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.timeFormat != "" {
		layout, err := timeLayout(flags.timeFormat)
		if err != nil {
			return nil, err
		}
		cfg.Display.TimeFormat = layout
	}

	log, logCloser, err := logging.New(cfg.Log, flags.verbose)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	st, err := store.New(cfg.DBPath, store.WithLogger(log.With().Str("component", "store").Logger()))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, st)

	if cfg.Cache.RetainDays > 0 {
		cutoff := prayer.DateOf(time.Now()).AddDays(-cfg.Cache.RetainDays)
		if n, err := st.PruneTimes(context.Background(), cutoff); err != nil {
			log.Warn().Err(err).Msg("prune computed times")
		} else if n > 0 {
			log.Debug().Int64("pruned", n).Str("before", cutoff.String()).Msg("pruned computed times")
		}
	}

	client := adhan.NewClient(cfg.API.BaseURL, cfg.API.Timeout())
	source := adhan.NewCachedSource(client, st, log.With().Str("component", "adhan").Logger())
	rt.tracker = tracker.New(st, st, source, tracker.WithLogger(log.With().Str("component", "tracker").Logger()))

	log.Debug().Str("db", cfg.DBPath).Str("api", cfg.API.BaseURL).Msg("runtime ready")
	return rt, nil
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tr := a.rt.tracker
	go tr.Run(ctx)

	feed := tr.NewDayFeed()
	defer feed.Close()

	model := tui.NewApp(ctx, tr, feed, tui.Options{TimeFormat: a.rt.cfg.Display.TimeFormat})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
