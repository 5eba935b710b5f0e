package theory

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidMeter is returned for an unsupported time signature.
var ErrInvalidMeter = errors.New("invalid meter")

// Meter is a time signature such as 4/4 or 6/8.
type Meter struct {
	Num int `json:"num" yaml:"num"`
	Den int `json:"den" yaml:"den"`
}

var legalDens = []int{1, 2, 4, 8, 16, 32}

// CommonTime is 4/4.
var CommonTime = Meter{Num: 4, Den: 4}

// NewMeter accepts a numerator of 1..16 and a power of two denominator up to 32.
func NewMeter(num, den int) (Meter, error) {
	if num < 1 || num > 16 {
		return Meter{}, fmt.Errorf("%w: numerator %d outside 1-16", ErrInvalidMeter, num)
	}
	if !slices.Contains(legalDens, den) {
		return Meter{}, fmt.Errorf("%w: denominator %d is not one of %v", ErrInvalidMeter, den, legalDens)
	}
	return Meter{Num: num, Den: den}, nil
}

func (m Meter) Validate() error {
	_, err := NewMeter(m.Num, m.Den)
	return err
}

func (m Meter) IsCompound() bool  { return slices.Contains([]int{6, 9, 12, 15}, m.Num) }
func (m Meter) IsSimple() bool    { return m.Num >= 1 && m.Num <= 4 }
func (m Meter) IsComplex() bool   { return slices.Contains([]int{5, 7, 8, 10, 11, 13, 14}, m.Num) }
func (m Meter) IsDuple() bool     { return m.Num == 2 || m.Num == 6 }
func (m Meter) IsTriple() bool    { return m.Num == 3 || m.Num == 9 }
func (m Meter) IsQuadruple() bool { return m.Num == 4 || m.Num == 12 }
func (m Meter) IsQuintuple() bool { return m.Num == 5 || m.Num == 15 }
func (m Meter) IsSeptuple() bool  { return m.Num == 7 }

// Beat returns the beat unit: 1/4 in 4/4, 3/8 in 6/8.
func (m Meter) Beat() (Ratio, error) {
	switch {
	case m.IsSimple():
		return NewRatio(1, int64(m.Den))
	case m.IsCompound():
		return NewRatio(3, int64(m.Den))
	}
	return Ratio{}, fmt.Errorf("%w: %s has no regular beat", ErrInvalidMeter, m)
}

// MeasureDur is the length of one measure as a fraction of a whole note.
func (m Meter) MeasureDur() Ratio {
	return MustRatio(int64(m.Num), int64(max(m.Den, 1)))
}

func (m Meter) String() string { return fmt.Sprintf("%d/%d", m.Num, m.Den) }
