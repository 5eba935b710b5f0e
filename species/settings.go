package species

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned when a settings document cannot be used.
var ErrInvalidSettings = errors.New("invalid analysis settings")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Limit is a count ceiling. The zero value allows nothing; Unbounded allows
// any count. Its text form is a non-negative integer or "inf".
type Limit struct {
	max       int
	unbounded bool
}

// Unbounded never exceeds.
var Unbounded = Limit{unbounded: true}

// AtMost returns a limit of n.
func AtMost(n int) Limit { return Limit{max: n} }

// Exceeded reports whether count is over the limit.
func (l Limit) Exceeded(count int) bool {
	return !l.unbounded && count > l.max
}

func (l Limit) IsUnbounded() bool { return l.unbounded }

// Max returns the ceiling and false for an unbounded limit.
func (l Limit) Max() (int, bool) { return l.max, !l.unbounded }

func (l Limit) String() string {
	if l.unbounded {
		return "inf"
	}
	return strconv.Itoa(l.max)
}

func (l Limit) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Limit) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	switch s {
	case "inf", ".inf", "+inf", "unbounded":
		*l = Unbounded
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: limit %q is neither a non-negative integer nor inf", ErrInvalidSettings, b)
	}
	*l = AtMost(n)
	return nil
}

// MarshalJSON writes a bounded limit as a number.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unbounded {
		return []byte(`"inf"`), nil
	}
	return []byte(strconv.Itoa(l.max)), nil
}

func (l *Limit) UnmarshalJSON(b []byte) error {
	return l.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// Settings are the thresholds of one analysis. Keys of a settings document
// use the upper case names.
type Settings struct {
	// MaxUni is the number of melodic unisons allowed.
	MaxUni Limit `yaml:"MAX_UNI" json:"MAX_UNI"`
	// Max4th through Max8va count melodic leaps of one size.
	Max4th Limit `yaml:"MAX_4TH" json:"MAX_4TH"`
	Max5th Limit `yaml:"MAX_5TH" json:"MAX_5TH"`
	Max6th Limit `yaml:"MAX_6TH" json:"MAX_6TH"`
	Max7th Limit `yaml:"MAX_7TH" json:"MAX_7TH"`
	Max8va Limit `yaml:"MAX_8VA" json:"MAX_8VA"`
	// MaxLrg counts leaps larger than a third.
	MaxLrg Limit `yaml:"MAX_LRG" json:"MAX_LRG"`
	// MaxSameDir is the number of consecutive melodic intervals moving in
	// the same direction.
	MaxSameDir Limit `yaml:"MAX_SAMEDIR" json:"MAX_SAMEDIR"`
	// MaxParallel is the number of consecutive harmonic thirds or sixths.
	MaxParallel Limit `yaml:"MAX_PARALLEL" json:"MAX_PARALLEL"`
	// MaxConsecLeap is the number of consecutive leaps of any size.
	MaxConsecLeap Limit `yaml:"MAX_CONSEC_LEAP" json:"MAX_CONSEC_LEAP"`
	// StepThreshold is the smallest leap, as an interval number, that must
	// be recovered by a step in the opposite direction.
	StepThreshold int `yaml:"STEP_THRESHOLD" json:"STEP_THRESHOLD" validate:"min=2,max=8"`
	// StartAbove lists the scale degrees a counterpoint above the cantus
	// firmus may start on.
	StartAbove []int `yaml:"START_ABOVE" json:"START_ABOVE" validate:"min=1,dive,min=1,max=7"`
	// StartBelow is the same list for a counterpoint below the cantus firmus.
	StartBelow []int `yaml:"START_BELOW" json:"START_BELOW" validate:"min=1,dive,min=1,max=7"`
	// CadencePatterns lists the allowed penultimate to final scale degrees.
	CadencePatterns [][2]int `yaml:"CADENCE_PATTERNS" json:"CADENCE_PATTERNS" validate:"dive,dive,min=1,max=7"`
	// HarmonicConsonances lists the interval numbers that count as harmonic
	// consonances, unison = 1 and octave = 8.
	HarmonicConsonances []int `yaml:"HARMONIC_CONSONANCES" json:"HARMONIC_CONSONANCES" validate:"min=1,dive,min=1,max=8"`
}

// Species1Settings returns the first species defaults.
func Species1Settings() Settings {
	return Settings{
		MaxUni:              AtMost(1),
		Max4th:              AtMost(2),
		Max5th:              AtMost(1),
		Max6th:              AtMost(0),
		Max7th:              AtMost(0),
		Max8va:              AtMost(0),
		MaxLrg:              AtMost(2),
		MaxSameDir:          AtMost(3),
		MaxParallel:         AtMost(3),
		MaxConsecLeap:       AtMost(2),
		StepThreshold:       5,
		StartAbove:          []int{1, 5},
		StartBelow:          []int{1},
		CadencePatterns:     [][2]int{{2, 1}, {7, 1}},
		HarmonicConsonances: []int{1, 3, 5, 6, 8},
	}
}

// Species2Settings returns the second species defaults: no melodic unisons,
// any number of fourth and fifth leaps, and a start on the third allowed
// above the cantus firmus.
func Species2Settings() Settings {
	s := Species1Settings()
	s.StartAbove = []int{1, 3, 5}
	s.Max4th = Unbounded
	s.Max5th = Unbounded
	s.MaxUni = AtMost(0)
	return s
}

// DefaultSettings returns the defaults for species 1 or 2.
func DefaultSettings(species int) (Settings, error) {
	switch species {
	case 1:
		return Species1Settings(), nil
	case 2:
		return Species2Settings(), nil
	}
	return Settings{}, fmt.Errorf("%w: %d, want 1 or 2", ErrInvalidSpecies, species)
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	s.StartAbove = slices.Clone(s.StartAbove)
	s.StartBelow = slices.Clone(s.StartBelow)
	s.CadencePatterns = slices.Clone(s.CadencePatterns)
	s.HarmonicConsonances = slices.Clone(s.HarmonicConsonances)
	return s
}

// Validate checks ranges of the numeric options.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// LoadSettings applies a YAML override document to base. Options missing
// from the document keep their base values.
func LoadSettings(r io.Reader, base Settings) (Settings, error) {
	s := base.Clone()
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// consonantSpan reports whether a harmonic span is in HarmonicConsonances.
func (s Settings) consonantSpan(span int) bool {
	return slices.Contains(s.HarmonicConsonances, span+1)
}

// SettingsTable holds the settings in effect for each species.
type SettingsTable map[int]Settings

func DefaultSettingsTable() SettingsTable {
	return SettingsTable{1: Species1Settings(), 2: Species2Settings()}
}

// LoadSettingsTable applies one override document to the defaults of
// both species.
func LoadSettingsTable(r io.Reader) (SettingsTable, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	t := SettingsTable{}
	for sp, base := range DefaultSettingsTable() {
		s, err := LoadSettings(strings.NewReader(string(doc)), base)
		if err != nil {
			return nil, fmt.Errorf("species %d: %w", sp, err)
		}
		t[sp] = s
	}
	return t, nil
}

// For returns a copy of the settings for species.
func (t SettingsTable) For(species int) (Settings, error) {
	if s, ok := t[species]; ok {
		return s.Clone(), nil
	}
	return DefaultSettings(species)
}
