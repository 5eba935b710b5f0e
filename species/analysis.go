// Package species checks two voice first and second species counterpoint
// against the voice leading rules of the pedagogical tradition.
package species

import (
	"errors"
	"fmt"

	"github.com/mager/species/score"
	"github.com/mager/species/theory"
	"go.uber.org/zap"
)

var (
	ErrInvalidSpecies  = errors.New("invalid species")
	ErrMissingVoices   = errors.New("score needs exactly two voices")
	ErrMissingKey      = errors.New("score has no key")
	ErrEmptyVoice      = errors.New("voice has nothing to analyze")
	ErrAlreadyAnalyzed = errors.New("analysis already ran")
	ErrNotSetUp        = errors.New("analysis is not set up")
	ErrNotAnalyzed     = errors.New("analysis has not completed")
)

type phase int

const (
	uninitialized phase = iota
	setUp
	analyzed
	reported
	failed
)

// State is the read-only view of the score that rules inspect. Voices hold
// nil for a rest and Intervals holds nil where either voice rests. All
// slices have one entry per timepoint.
type State struct {
	Species  int
	Settings Settings
	Key      theory.Key
	Tonic    theory.Pnum
	// Whole and Half are the measure and half measure durations.
	Whole, Half theory.Ratio

	Upper, Lower       []*theory.Pitch
	UpperDur, LowerDur []theory.Ratio
	Intervals          []*theory.Interval

	// CFLow is true when the cantus firmus is the lower voice.
	CFLow        bool
	CF, CP       []*theory.Pitch
	CFDur, CPDur []theory.Ratio
}

// Len is the number of timepoints.
func (s *State) Len() int { return len(s.Intervals) }

// Describe names the sounding pitches and harmonic interval at a 1-based
// timepoint index, noting a chromatically inflected counterpoint note.
func (s *State) Describe(index int) string {
	i := index - 1
	if i < 0 || i >= s.Len() {
		return ""
	}
	up, lo := s.Upper[i], s.Lower[i]
	if up == nil || lo == nil {
		return "rest"
	}
	desc := fmt.Sprintf("%s over %s", up, lo)
	if iv := s.Intervals[i]; iv != nil {
		name := iv.FullName()
		if iv.IsCompound() {
			name = "compound " + name
		}
		desc += " (" + name + ")"
	}
	if cp := s.CP[i]; cp != nil {
		if sd, err := s.Key.ScaleDegreeOf(cp.Pnum()); err == nil && sd.Inflection != theory.Diatonic {
			desc += ", counterpoint on the " + sd.String()
		}
	}
	return desc
}

// Observer receives the findings each rule added, in rule order.
type Observer func(rule Rule, findings []Finding)

// Option configures an Analysis.
type Option func(*Analysis)

// WithSettings replaces the species defaults.
func WithSettings(s Settings) Option {
	return func(a *Analysis) { a.settings = s.Clone(); a.customSettings = true }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(a *Analysis) { a.log = log }
}

// WithObserver registers fn to be called after every rule.
func WithObserver(fn Observer) Option {
	return func(a *Analysis) { a.observers = append(a.observers, fn) }
}

// Analysis runs the rule catalog over one score. It moves from set up to
// analyzed to reported and cannot be set up again once it has run.
type Analysis struct {
	score          *score.Score
	species        int
	settings       Settings
	customSettings bool
	rules          []Rule
	observers      []Observer
	log            *zap.SugaredLogger

	phase   phase
	state   *State
	results *Results
}

// New prepares an analysis of sc as the given species.
func New(sc *score.Score, species int, opts ...Option) *Analysis {
	a := &Analysis{
		score:   sc,
		species: species,
		rules:   Catalog(),
		log:     zap.NewNop().Sugar(),
		results: NewResults(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup validates the score and derives the per timepoint voices,
// durations and harmonic intervals.
func (a *Analysis) Setup() error {
	if a.phase >= analyzed {
		return ErrAlreadyAnalyzed
	}
	if a.species != 1 && a.species != 2 {
		return fmt.Errorf("%w: %d, want 1 or 2", ErrInvalidSpecies, a.species)
	}
	if !a.customSettings {
		a.settings, _ = DefaultSettings(a.species)
	}
	if err := a.settings.Validate(); err != nil {
		return err
	}
	sc := a.score
	if sc == nil || len(sc.Parts) != 2 {
		n := 0
		if sc != nil {
			n = len(sc.Parts)
		}
		return fmt.Errorf("%w: got %d", ErrMissingVoices, n)
	}
	if sc.Key == nil {
		return ErrMissingKey
	}
	if err := sc.Key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingKey, err)
	}
	for _, p := range sc.Parts {
		if len(p.Notes) == 0 {
			return fmt.Errorf("%w: part %s has no notes", ErrEmptyVoice, p.ID)
		}
	}
	tps, err := score.Timepoints(sc)
	if err != nil {
		return err
	}
	if len(tps) < 2 {
		return fmt.Errorf("%w: %d timepoints, need at least 2", ErrEmptyVoice, len(tps))
	}

	whole := sc.EffectiveMeter().MeasureDur()
	half, _ := whole.DivInt(2)
	st := &State{
		Species:   a.species,
		Settings:  a.settings,
		Key:       *sc.Key,
		Tonic:     sc.Key.Tonic(),
		Whole:     whole,
		Half:      half,
		Upper:     make([]*theory.Pitch, len(tps)),
		Lower:     make([]*theory.Pitch, len(tps)),
		UpperDur:  make([]theory.Ratio, len(tps)),
		LowerDur:  make([]theory.Ratio, len(tps)),
		Intervals: make([]*theory.Interval, len(tps)),
	}
	for i, tp := range tps {
		st.Upper[i], st.UpperDur[i] = tp.Upper.Pitch, tp.Upper.Dur
		st.Lower[i], st.LowerDur[i] = tp.Lower.Pitch, tp.Lower.Dur
		if tp.Upper.IsRest() || tp.Lower.IsRest() {
			continue
		}
		iv, err := theory.IntervalBetween(*tp.Lower.Pitch, *tp.Upper.Pitch)
		if err != nil {
			return fmt.Errorf("timepoint %d: %w", i+1, err)
		}
		st.Intervals[i] = &iv
	}
	for vi, v := range [][]*theory.Pitch{st.Upper, st.Lower} {
		if !sounds(v) {
			return fmt.Errorf("%w: part %s only rests", ErrEmptyVoice, sc.Parts[vi].ID)
		}
	}

	st.CFLow = !sc.CantusFirmusAbove()
	if st.CFLow {
		st.CF, st.CFDur, st.CP, st.CPDur = st.Lower, st.LowerDur, st.Upper, st.UpperDur
	} else {
		st.CF, st.CFDur, st.CP, st.CPDur = st.Upper, st.UpperDur, st.Lower, st.LowerDur
	}

	a.state = st
	a.phase = setUp
	a.log.Debugw("analysis set up",
		"title", sc.Title,
		"species", a.species,
		"key", st.Key.String(),
		"timepoints", len(tps),
		"cfLow", st.CFLow,
	)
	return nil
}

func sounds(v []*theory.Pitch) bool {
	for _, p := range v {
		if p != nil {
			return true
		}
	}
	return false
}

// Run applies every rule in catalog order. A rule error aborts the run and
// leaves no results to report.
func (a *Analysis) Run() error {
	switch a.phase {
	case uninitialized:
		return ErrNotSetUp
	case analyzed, reported, failed:
		return ErrAlreadyAnalyzed
	}
	for _, r := range a.rules {
		before := a.results.Len()
		if err := r.Apply(a.state, a.results); err != nil {
			a.phase = failed
			a.results = NewResults()
			a.log.Errorw("rule failed", "rule", r.Name, "error", err)
			return fmt.Errorf("rule %s: %w", r.Name, err)
		}
		added := a.results.Since(before)
		a.log.Debugw("rule applied", "rule", r.Name, "findings", len(added))
		for _, obs := range a.observers {
			obs(r, added)
		}
	}
	a.phase = analyzed
	a.log.Infow("analysis complete", "species", a.species, "findings", a.results.Len())
	return nil
}

// Report returns the findings rendered as "At #<n>: <message>", deduplicated
// and sorted lexicographically.
func (a *Analysis) Report() ([]string, error) {
	if a.phase != analyzed && a.phase != reported {
		return nil, ErrNotAnalyzed
	}
	a.phase = reported
	return a.results.Strings(), nil
}

// Findings returns the typed findings in report order.
func (a *Analysis) Findings() ([]Finding, error) {
	if a.phase != analyzed && a.phase != reported {
		return nil, ErrNotAnalyzed
	}
	return a.results.Findings(), nil
}

// State returns the derived state, or nil before Setup.
func (a *Analysis) State() *State { return a.state }

// Settings returns the settings in effect.
func (a *Analysis) Settings() Settings { return a.settings.Clone() }

func (a *Analysis) Species() int { return a.species }

// Analyze sets up, runs and reports in one call. A nil settings uses the
// species defaults.
func Analyze(sc *score.Score, species int, settings *Settings, opts ...Option) ([]string, error) {
	if settings != nil {
		opts = append([]Option{WithSettings(*settings)}, opts...)
	}
	a := New(sc, species, opts...)
	if err := a.Setup(); err != nil {
		return nil, err
	}
	if err := a.Run(); err != nil {
		return nil, err
	}
	return a.Report()
}
