package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/store"
)

func (a *app) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change location and calculation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.rt.tracker.Settings(cmd.Context())
			if err != nil {
				return err
			}
			printSettings(cmd, s)
			return nil
		},
	}
	cmd.AddCommand(a.newSettingsSetCmd())
	return cmd
}

func (a *app) newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: fmt.Sprintf(`Change a setting and recompute prayer times.

Keys: %s
Use "salah methods" for the accepted calculation methods, madhabs and
high latitude rules.`, strings.Join(store.SettingKeys, ", ")),
		Example: `  salah settings set latitude 21.4225
  salah settings set calculation_method umm-al-qura
  salah settings set madhab hanafi`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := store.ParseSetting(args[0], args[1])
			if err != nil {
				return err
			}
			s, err := a.rt.tracker.UpdateSettings(cmd.Context(), patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], settingValue(s, args[0]))
			return nil
		},
	}
}

func settingValue(s prayer.Settings, key string) string {
	switch key {
	case store.KeyLatitude:
		return fmt.Sprintf("%.4f", s.Latitude)
	case store.KeyLongitude:
		return fmt.Sprintf("%.4f", s.Longitude)
	case store.KeyMethod:
		return s.Method.String()
	case store.KeyMadhab:
		return s.Madhab.String()
	case store.KeyHighLatitudeRule:
		return s.HighLatitudeRule.String()
	}
	return ""
}

func printSettings(cmd *cobra.Command, s prayer.Settings) {
	descriptions := map[string]string{
		store.KeyMethod:           s.Method.DisplayName(),
		store.KeyMadhab:           s.Madhab.DisplayName(),
		store.KeyHighLatitudeRule: s.HighLatitudeRule.DisplayName(),
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Key", "Value", "")
	for _, k := range store.SettingKeys {
		t.Row(k, settingValue(s, k), descriptions[k])
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List calculation methods, madhabs and high latitude rules",
		Args:  cobra.NoArgs,
		// Needs no database or network.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			methods := table.New().Border(lipgloss.RoundedBorder()).Headers("Method", "Authority")
			for _, m := range prayer.Methods {
				methods.Row(m.String(), m.DisplayName())
			}
			fmt.Fprintln(out, boldStyle.Render("Calculation methods"))
			fmt.Fprintln(out, methods.Render())

			madhabs := table.New().Border(lipgloss.RoundedBorder()).Headers("Madhab", "Description")
			for _, m := range prayer.Madhabs {
				madhabs.Row(m.String(), m.DisplayName())
			}
			fmt.Fprintln(out, boldStyle.Render("Madhabs"))
			fmt.Fprintln(out, madhabs.Render())

			rules := table.New().Border(lipgloss.RoundedBorder()).Headers("Rule", "Description")
			for _, r := range prayer.HighLatitudeRules {
				rules.Row(r.String(), r.DisplayName())
			}
			fmt.Fprintln(out, boldStyle.Render("High latitude rules"))
			fmt.Fprintln(out, rules.Render())
			return nil
		},
	}
}
