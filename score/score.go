package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mager/species/theory"
)

var (
	// ErrMalformedScore is returned when a score cannot be aligned into timepoints.
	ErrMalformedScore = errors.New("malformed score")
	// ErrUnsupportedFormat is returned for an unknown document format.
	ErrUnsupportedFormat = errors.New("unsupported score format")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Score is a two part composition. The upper part comes first.
type Score struct {
	// Title is free text shown in reports.
	Title string `json:"title,omitempty" yaml:"title,omitempty" validate:"max=200"`
	// Key is the key signature and mode of the first bar. Analysis fails
	// without it.
	Key *theory.Key `json:"key,omitempty" yaml:"key,omitempty"`
	// Meter is the time signature, 4/4 when omitted. One measure is the
	// "whole" duration of first species counterpoint.
	Meter theory.Meter `json:"meter,omitempty" yaml:"meter,omitempty"`
	// Parts holds the voices, upper part first.
	Parts []Part `json:"parts" yaml:"parts" validate:"dive"`
}

// Part is one voice of the score.
type Part struct {
	ID    string `json:"id" yaml:"id" validate:"required,max=64"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty" validate:"max=200"`
	Notes []Note `json:"notes" yaml:"notes"`
}

// Note is a pitched note or, when Pitch is nil, a rest. Dur is a fraction
// of a whole note.
type Note struct {
	Pitch *theory.Pitch `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Dur   theory.Ratio  `json:"dur" yaml:"dur"`
}

// NewNote returns a note of pitch p.
func NewNote(p theory.Pitch, dur theory.Ratio) Note {
	return Note{Pitch: &p, Dur: dur}
}

// NewRest returns a rest.
func NewRest(dur theory.Ratio) Note {
	return Note{Dur: dur}
}

func (n Note) IsRest() bool { return n.Pitch == nil }

func (n Note) String() string {
	if n.IsRest() {
		return "R/" + n.Dur.String()
	}
	return n.Pitch.String() + "/" + n.Dur.String()
}

// Validate checks the document structure: part ids, positive durations and
// a legal meter.
func (s *Score) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedScore, err)
	}
	if s.Meter != (theory.Meter{}) {
		if err := s.Meter.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedScore, err)
		}
	}
	if s.Key != nil {
		if err := s.Key.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedScore, err)
		}
	}
	for _, p := range s.Parts {
		for i, n := range p.Notes {
			if n.Dur.Sign() <= 0 {
				return fmt.Errorf("%w: part %s note %d has duration %s", ErrMalformedScore, p.ID, i+1, n.Dur)
			}
		}
	}
	return nil
}

// EffectiveMeter returns the score meter, or 4/4 when none was given.
func (s *Score) EffectiveMeter() theory.Meter {
	if s.Meter == (theory.Meter{}) {
		return theory.CommonTime
	}
	return s.Meter
}

// CantusFirmusAbove reports whether the upper part carries the cantus
// firmus, which is the case when it is named "CF" or "Cantus Firmus".
// Otherwise the cantus firmus is the lower part.
func (s *Score) CantusFirmusAbove() bool {
	if len(s.Parts) == 0 {
		return false
	}
	name := strings.TrimSpace(s.Parts[0].Name)
	return strings.EqualFold(name, "CF") || strings.EqualFold(name, "Cantus Firmus")
}

// Length returns the total duration of part i.
func (s *Score) Length(i int) theory.Ratio {
	total := theory.RatioFromInt(0)
	for _, n := range s.Parts[i].Notes {
		total = total.Add(n.Dur)
	}
	return total
}
