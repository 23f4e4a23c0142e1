package prayer

import (
	"fmt"
	"math"
	"strings"
)

// Method is one of the standard calculation conventions for Fajr and Isha angles.
type Method int

const (
	MuslimWorldLeague Method = iota
	Egyptian
	Karachi
	UmmAlQura
	Dubai
	MoonsightingCommittee
	NorthAmerica
	Kuwait
	Qatar
	Singapore
)

// Methods lists every supported calculation method.
var Methods = []Method{
	MuslimWorldLeague, Egyptian, Karachi, UmmAlQura, Dubai,
	MoonsightingCommittee, NorthAmerica, Kuwait, Qatar, Singapore,
}

var methodInfo = map[Method]struct{ key, name string }{
	MuslimWorldLeague:     {"mwl", "Muslim World League"},
	Egyptian:              {"egyptian", "Egyptian General Authority of Survey"},
	Karachi:               {"karachi", "University of Islamic Sciences, Karachi"},
	UmmAlQura:             {"umm-al-qura", "Umm al-Qura University, Makkah"},
	Dubai:                 {"dubai", "Dubai"},
	MoonsightingCommittee: {"moonsighting", "Moonsighting Committee Worldwide"},
	NorthAmerica:          {"isna", "Islamic Society of North America"},
	Kuwait:                {"kuwait", "Kuwait"},
	Qatar:                 {"qatar", "Qatar"},
	Singapore:             {"singapore", "Majlis Ugama Islam Singapura"},
}

func (m Method) Valid() bool { _, ok := methodInfo[m]; return ok }

func (m Method) String() string {
	if i, ok := methodInfo[m]; ok {
		return i.key
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// DisplayName is the full name of the issuing authority.
func (m Method) DisplayName() string {
	if i, ok := methodInfo[m]; ok {
		return i.name
	}
	return m.String()
}

func ParseMethod(s string) (Method, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for m, i := range methodInfo {
		if i.key == k {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown calculation method %q", ErrInput, s)
}

// Madhab selects the shadow ratio used for Asr.
type Madhab int

const (
	Shafi Madhab = iota
	Hanafi
)

var Madhabs = []Madhab{Shafi, Hanafi}

func (m Madhab) Valid() bool { return m == Shafi || m == Hanafi }

func (m Madhab) String() string {
	switch m {
	case Shafi:
		return "shafi"
	case Hanafi:
		return "hanafi"
	}
	return fmt.Sprintf("madhab(%d)", int(m))
}

func (m Madhab) DisplayName() string {
	switch m {
	case Shafi:
		return "Shafi (standard Asr)"
	case Hanafi:
		return "Hanafi (later Asr)"
	}
	return m.String()
}

func ParseMadhab(s string) (Madhab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shafi", "standard":
		return Shafi, nil
	case "hanafi":
		return Hanafi, nil
	}
	return 0, fmt.Errorf("%w: unknown madhab %q", ErrInput, s)
}

// HighLatitudeRule picks how Fajr and Isha are bounded when twilight never ends.
type HighLatitudeRule int

const (
	MiddleOfTheNight HighLatitudeRule = iota
	SeventhOfTheNight
	TwilightAngle
)

var HighLatitudeRules = []HighLatitudeRule{MiddleOfTheNight, SeventhOfTheNight, TwilightAngle}

var ruleInfo = map[HighLatitudeRule]struct{ key, name string }{
	MiddleOfTheNight:  {"middle-of-the-night", "Middle of the night"},
	SeventhOfTheNight: {"seventh-of-the-night", "Seventh of the night"},
	TwilightAngle:     {"twilight-angle", "Twilight angle"},
}

func (r HighLatitudeRule) Valid() bool { _, ok := ruleInfo[r]; return ok }

func (r HighLatitudeRule) String() string {
	if i, ok := ruleInfo[r]; ok {
		return i.key
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

func (r HighLatitudeRule) DisplayName() string {
	if i, ok := ruleInfo[r]; ok {
		return i.name
	}
	return r.String()
}

func ParseHighLatitudeRule(s string) (HighLatitudeRule, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for r, i := range ruleInfo {
		if i.key == k {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown high latitude rule %q", ErrInput, s)
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Validate rejects coordinates outside the valid geographic range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInput, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInput, c.Longitude)
	}
	return nil
}

// Methodology bundles the calculation parameters handed to a TimesSource.
type Methodology struct {
	Method           Method
	Madhab           Madhab
	HighLatitudeRule HighLatitudeRule
}

// Settings is the user's persisted location and calculation preferences.
type Settings struct {
	Latitude         float64
	Longitude        float64
	Method           Method
	Madhab           Madhab
	HighLatitudeRule HighLatitudeRule
}

// DefaultSettings is used until the user saves their own: central London,
// Muslim World League, Shafi Asr, middle-of-the-night rule.
func DefaultSettings() Settings {
	return Settings{
		Latitude:         51.5074,
		Longitude:        -0.1278,
		Method:           MuslimWorldLeague,
		Madhab:           Shafi,
		HighLatitudeRule: MiddleOfTheNight,
	}
}

func (s Settings) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

func (s Settings) Methodology() Methodology {
	return Methodology{Method: s.Method, Madhab: s.Madhab, HighLatitudeRule: s.HighLatitudeRule}
}

func (s Settings) Validate() error {
	if err := s.Coordinates().Validate(); err != nil {
		return err
	}
	if !s.Method.Valid() {
		return fmt.Errorf("%w: %s", ErrInput, s.Method)
	}
	if !s.Madhab.Valid() {
		return fmt.Errorf("%w: %s", ErrInput, s.Madhab)
	}
	if !s.HighLatitudeRule.Valid() {
		return fmt.Errorf("%w: %s", ErrInput, s.HighLatitudeRule)
	}
	return nil
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Latitude         *float64
	Longitude        *float64
	Method           *Method
	Madhab           *Madhab
	HighLatitudeRule *HighLatitudeRule
}

func (p SettingsPatch) IsEmpty() bool {
	return p == SettingsPatch{}
}

// Apply returns s with every non-nil field of p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.Method != nil {
		s.Method = *p.Method
	}
	if p.Madhab != nil {
		s.Madhab = *p.Madhab
	}
	if p.HighLatitudeRule != nil {
		s.HighLatitudeRule = *p.HighLatitudeRule
	}
	return s
}
