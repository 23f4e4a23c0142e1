package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sadopc/salah/internal/prayer"
)

// Settings keys.
const (
	KeyLatitude         = "latitude"
	KeyLongitude        = "longitude"
	KeyMethod           = "calculation_method"
	KeyMadhab           = "madhab"
	KeyHighLatitudeRule = "high_latitude_rule"
)

// SettingKeys lists the keys understood by Settings, in display order.
var SettingKeys = []string{KeyLatitude, KeyLongitude, KeyMethod, KeyMadhab, KeyHighLatitudeRule}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, prayer.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := setSetting(ctx, s.db, key, value); err != nil {
		return err
	}
	s.hub.publish(change{table: tableSettings})
	return nil
}

func setSetting(ctx context.Context, db execer, key, value string) error {
	if _, err := db.ExecContext(ctx, upsertSetting, key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetAllSettings(ctx context.Context) ([]Setting, error) {
	var settings []Setting
	if err := s.db.SelectContext(ctx, &settings, `SELECT key, value FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Settings returns the stored prayer settings. Missing keys take their
// default; values that fail to parse are logged and replaced by the default.
func (s *Store) Settings(ctx context.Context) (prayer.Settings, error) {
	all, err := s.GetAllSettings(ctx)
	if err != nil {
		return prayer.Settings{}, err
	}
	out := prayer.DefaultSettings()
	for _, kv := range all {
		if err := applySetting(&out, kv.Key, kv.Value); err != nil {
			s.log.Warn().Err(err).Str("key", kv.Key).Msg("ignoring stored setting")
		}
	}
	return out, nil
}

// ParseSetting validates value for key and returns it as a patch.
func ParseSetting(key, value string) (prayer.SettingsPatch, error) {
	var p prayer.SettingsPatch
	switch key {
	case KeyLatitude, KeyLongitude:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return p, fmt.Errorf("%w: %s %q is not a number", prayer.ErrInput, key, value)
		}
		if key == KeyLatitude {
			p.Latitude = &f
		} else {
			p.Longitude = &f
		}
	case KeyMethod:
		m, err := prayer.ParseMethod(value)
		if err != nil {
			return p, err
		}
		p.Method = &m
	case KeyMadhab:
		m, err := prayer.ParseMadhab(value)
		if err != nil {
			return p, err
		}
		p.Madhab = &m
	case KeyHighLatitudeRule:
		r, err := prayer.ParseHighLatitudeRule(value)
		if err != nil {
			return p, err
		}
		p.HighLatitudeRule = &r
	default:
		return p, fmt.Errorf("%w: unknown setting %q", prayer.ErrInput, key)
	}
	return p, nil
}

func applySetting(s *prayer.Settings, key, value string) error {
	p, err := ParseSetting(key, value)
	if err != nil {
		return err
	}
	next := p.Apply(*s)
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

func patchValues(p prayer.SettingsPatch) map[string]string {
	kv := make(map[string]string)
	if p.Latitude != nil {
		kv[KeyLatitude] = strconv.FormatFloat(*p.Latitude, 'f', -1, 64)
	}
	if p.Longitude != nil {
		kv[KeyLongitude] = strconv.FormatFloat(*p.Longitude, 'f', -1, 64)
	}
	if p.Method != nil {
		kv[KeyMethod] = p.Method.String()
	}
	if p.Madhab != nil {
		kv[KeyMadhab] = p.Madhab.String()
	}
	if p.HighLatitudeRule != nil {
		kv[KeyHighLatitudeRule] = p.HighLatitudeRule.String()
	}
	return kv
}

// UpdateSettings applies a partial update atomically and returns the result.
// The merged settings must be valid or nothing is written.
func (s *Store) UpdateSettings(ctx context.Context, patch prayer.SettingsPatch) (prayer.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return prayer.Settings{}, err
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return current, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return current, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for key, value := range patchValues(patch) {
		if err := setSetting(ctx, tx, key, value); err != nil {
			return current, err
		}
	}
	if err := tx.Commit(); err != nil {
		return current, fmt.Errorf("commit: %w", err)
	}
	s.hub.publish(change{table: tableSettings})
	return next, nil
}

// WatchSettings emits the current settings and again after every change.
func (s *Store) WatchSettings(ctx context.Context) <-chan prayer.Settings {
	match := func(c change) bool { return c.table == tableSettings }
	return watch(ctx, s, match, s.Settings)
}
