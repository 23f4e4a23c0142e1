package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/salah/internal/prayer"
	"github.com/sadopc/salah/internal/tracker"
)

type settingsModel struct {
	ctx     context.Context
	tracker *tracker.Tracker
	width   int
	height  int

	settings   prayer.Settings
	loaded     bool
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	latitude  *string
	longitude *string
	method    *prayer.Method
	madhab    *prayer.Madhab
	rule      *prayer.HighLatitudeRule
}

func newSettingsModel(ctx context.Context, tr *tracker.Tracker) settingsModel {
	lat, lon := "", ""
	var (
		method prayer.Method
		madhab prayer.Madhab
		rule   prayer.HighLatitudeRule
	)
	return settingsModel{
		ctx:       ctx,
		tracker:   tr,
		latitude:  &lat,
		longitude: &lon,
		method:    &method,
		madhab:    &madhab,
		rule:      &rule,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings prayer.Settings
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.tracker.Settings(s.ctx)
		if err != nil {
			return errStatus("Settings", err)
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.loaded = true
		return s, nil

	case settingsSavedMsg:
		s.settings = msg.settings
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) && s.loaded {
			return s.showForm()
		}
	}
	return s, nil
}

func validateDegrees(limit float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("not a number")
		}
		if f < -limit || f > limit {
			return fmt.Errorf("must be between %g and %g", -limit, limit)
		}
		return nil
	}
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.latitude = strconv.FormatFloat(s.settings.Latitude, 'f', -1, 64)
	*s.longitude = strconv.FormatFloat(s.settings.Longitude, 'f', -1, 64)
	*s.method = s.settings.Method
	*s.madhab = s.settings.Madhab
	*s.rule = s.settings.HighLatitudeRule

	methods := make([]huh.Option[prayer.Method], 0, len(prayer.Methods))
	for _, m := range prayer.Methods {
		methods = append(methods, huh.NewOption(m.DisplayName(), m))
	}
	madhabs := make([]huh.Option[prayer.Madhab], 0, len(prayer.Madhabs))
	for _, m := range prayer.Madhabs {
		madhabs = append(madhabs, huh.NewOption(m.DisplayName(), m))
	}
	rules := make([]huh.Option[prayer.HighLatitudeRule], 0, len(prayer.HighLatitudeRules))
	for _, r := range prayer.HighLatitudeRules {
		rules = append(rules, huh.NewOption(r.DisplayName(), r))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Latitude").Value(s.latitude).Validate(validateDegrees(90)),
			huh.NewInput().Title("Longitude").Value(s.longitude).Validate(validateDegrees(180)),
		).Title("Location"),
		huh.NewGroup(
			huh.NewSelect[prayer.Method]().Title("Calculation method").Options(methods...).Value(s.method),
			huh.NewSelect[prayer.Madhab]().Title("Asr (madhab)").Options(madhabs...).Value(s.madhab),
			huh.NewSelect[prayer.HighLatitudeRule]().Title("High latitude rule").Options(rules...).Value(s.rule),
		).Title("Calculation"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save(s.patch())
	}

	return s, cmd
}

// patch holds only the fields that differ from the loaded settings.
func (s settingsModel) patch() prayer.SettingsPatch {
	var p prayer.SettingsPatch
	if lat, err := strconv.ParseFloat(*s.latitude, 64); err == nil && lat != s.settings.Latitude {
		p.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(*s.longitude, 64); err == nil && lon != s.settings.Longitude {
		p.Longitude = &lon
	}
	if m := *s.method; m != s.settings.Method {
		p.Method = &m
	}
	if m := *s.madhab; m != s.settings.Madhab {
		p.Madhab = &m
	}
	if r := *s.rule; r != s.settings.HighLatitudeRule {
		p.HighLatitudeRule = &r
	}
	return p
}

func (s settingsModel) save(p prayer.SettingsPatch) tea.Cmd {
	if p.IsEmpty() {
		return func() tea.Msg { return statusMsg{text: "Settings unchanged"} }
	}
	return func() tea.Msg {
		settings, err := s.tracker.UpdateSettings(s.ctx, p)
		if err != nil {
			return errStatus("Save settings", err)
		}
		return settingsSavedMsg{settings: settings}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	if !s.loaded {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Loading…")))
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value))
	}
	rows := []string{
		title,
		"",
		row("Latitude", strconv.FormatFloat(s.settings.Latitude, 'f', 4, 64)),
		row("Longitude", strconv.FormatFloat(s.settings.Longitude, 'f', 4, 64)),
		row("Calculation method", s.settings.Method.DisplayName()),
		row("Asr (madhab)", s.settings.Madhab.DisplayName()),
		row("High latitude rule", s.settings.HighLatitudeRule.DisplayName()),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
