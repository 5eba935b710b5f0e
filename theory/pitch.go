package theory

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidPitch is returned for malformed pitch names or out of range pitches.
var ErrInvalidPitch = errors.New("invalid pitch")

// Letter is a diatonic note letter, C through B.
type Letter int

const (
	C Letter = iota
	D
	E
	F
	G
	A
	B
)

var letterNames = [7]string{"C", "D", "E", "F", "G", "A", "B"}

// letterPC is the natural pitch class of each letter.
var letterPC = [7]int{0, 2, 4, 5, 7, 9, 11}

func (l Letter) String() string {
	if l < C || l > B {
		return fmt.Sprintf("Letter(%d)", int(l))
	}
	return letterNames[l]
}

// PitchClass returns the natural pitch class of the letter.
func (l Letter) PitchClass() int { return letterPC[l] }

// Accidental is an inflection from double flat to double sharp.
type Accidental int

const (
	DoubleFlat Accidental = iota
	Flat
	Natural
	Sharp
	DoubleSharp
)

var (
	accidentalNames = [5]string{"bb", "b", "", "#", "##"}
	safeNames       = [5]string{"ff", "f", "", "s", "ss"}
)

// Semitones returns the chromatic offset of the accidental, -2..2.
func (a Accidental) Semitones() int { return int(a) - int(Natural) }

func (a Accidental) String() string {
	if a < DoubleFlat || a > DoubleSharp {
		return fmt.Sprintf("Accidental(%d)", int(a))
	}
	return accidentalNames[a]
}

// Octave indexes run 0..10. Index 0 is the sub-contra octave written "00",
// index k >= 1 is written as octave k-1.
const (
	MinOctave = 0
	MaxOctave = 10
)

// Pnum identifies a spelled pitch class, e.g. C# is distinct from Db.
type Pnum struct {
	Letter     Letter
	Accidental Accidental
}

// Value packs the pnum as (letter << 4) + accidental.
func (p Pnum) Value() int { return int(p.Letter)<<4 + int(p.Accidental) }

// PitchClass returns the 0..11 pitch class.
func (p Pnum) PitchClass() int {
	return ((p.Letter.PitchClass()+p.Accidental.Semitones())%12 + 12) % 12
}

// String returns the pnum using safe accidental names, e.g. "Cs" or "Bf".
func (p Pnum) String() string {
	return p.Letter.String() + safeNames[p.Accidental]
}

// ParsePnum parses a letter and optional accidental, e.g. "Fs", "Bb", "E".
func ParsePnum(s string) (Pnum, error) {
	l, a, rest, err := parseLetterAccidental(s)
	if err != nil {
		return Pnum{}, err
	}
	if rest != "" {
		return Pnum{}, fmt.Errorf("%w: unexpected %q after pitch class in %q", ErrInvalidPitch, rest, s)
	}
	return Pnum{Letter: l, Accidental: a}, nil
}

// Pitch is a spelled pitch with an octave. Pitches are immutable values.
type Pitch struct {
	letter     Letter
	accidental Accidental
	octave     int
}

// NewPitch builds a pitch from its letter, accidental and octave index.
func NewPitch(letter Letter, accidental Accidental, octave int) (Pitch, error) {
	if letter < C || letter > B {
		return Pitch{}, fmt.Errorf("%w: letter %d outside 0-6", ErrInvalidPitch, letter)
	}
	if accidental < DoubleFlat || accidental > DoubleSharp {
		return Pitch{}, fmt.Errorf("%w: accidental %d outside 0-4", ErrInvalidPitch, accidental)
	}
	if octave < MinOctave || octave > MaxOctave {
		return Pitch{}, fmt.Errorf("%w: octave index %d outside 0-10", ErrInvalidPitch, octave)
	}
	p := Pitch{letter: letter, accidental: accidental, octave: octave}
	if k := p.Keynum(); k < 0 || k > 127 {
		return Pitch{}, fmt.Errorf("%w: %s has keynum %d outside 0-127", ErrInvalidPitch, p, k)
	}
	return p, nil
}

// MustPitch parses s and panics on error. Intended for tests and constants.
func MustPitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePitch parses names like "C4", "F#3", "Bf2", "Dbb5", "Cn4" and "A00".
func ParsePitch(s string) (Pitch, error) {
	l, a, rest, err := parseLetterAccidental(s)
	if err != nil {
		return Pitch{}, err
	}
	var octave int
	switch {
	case rest == "00":
		octave = 0
	case len(rest) == 1 && rest[0] >= '0' && rest[0] <= '9':
		octave = int(rest[0]-'0') + 1
	default:
		return Pitch{}, fmt.Errorf("%w: bad octave %q in %q", ErrInvalidPitch, rest, s)
	}
	return NewPitch(l, a, octave)
}

func parseLetterAccidental(s string) (Letter, Accidental, string, error) {
	if s == "" {
		return 0, 0, "", fmt.Errorf("%w: empty name", ErrInvalidPitch)
	}
	idx := strings.IndexByte("CDEFGAB", strings.ToUpper(s[:1])[0])
	if idx < 0 {
		return 0, 0, "", fmt.Errorf("%w: bad letter in %q", ErrInvalidPitch, s)
	}
	rest := s[1:]
	acc := Natural
	switch {
	case strings.HasPrefix(rest, "bb"), strings.HasPrefix(rest, "ff"):
		acc, rest = DoubleFlat, rest[2:]
	case strings.HasPrefix(rest, "##"), strings.HasPrefix(rest, "ss"):
		acc, rest = DoubleSharp, rest[2:]
	case strings.HasPrefix(rest, "b"), strings.HasPrefix(rest, "f"):
		acc, rest = Flat, rest[1:]
	case strings.HasPrefix(rest, "#"), strings.HasPrefix(rest, "s"):
		acc, rest = Sharp, rest[1:]
	case strings.HasPrefix(rest, "n"):
		rest = rest[1:]
	}
	return Letter(idx), acc, rest, nil
}

var defaultSpelling = [12]Pnum{
	{C, Natural}, {C, Sharp}, {D, Natural}, {E, Flat}, {E, Natural}, {F, Natural},
	{F, Sharp}, {G, Natural}, {A, Flat}, {A, Natural}, {B, Flat}, {B, Natural},
}

// PitchFromKeynum returns the pitch for a midi key number using the default
// spelling C C# D Eb E F F# G Ab A Bb B.
func PitchFromKeynum(keynum int) (Pitch, error) {
	if keynum < 0 || keynum > 127 {
		return Pitch{}, fmt.Errorf("%w: keynum %d outside 0-127", ErrInvalidPitch, keynum)
	}
	pn := defaultSpelling[keynum%12]
	return NewPitch(pn.Letter, pn.Accidental, keynum/12)
}

// PitchFromKeynumSpelled returns the pitch for keynum spelled with the given
// accidental, e.g. 61 with Flat is Db4.
func PitchFromKeynumSpelled(keynum int, accidental Accidental) (Pitch, error) {
	if keynum < 0 || keynum > 127 {
		return Pitch{}, fmt.Errorf("%w: keynum %d outside 0-127", ErrInvalidPitch, keynum)
	}
	natural := keynum - accidental.Semitones()
	pc := ((natural % 12) + 12) % 12
	for l, lpc := range letterPC {
		if lpc != pc {
			continue
		}
		octave := (natural - pc) / 12
		if natural < 0 {
			octave = -1
		}
		return NewPitch(Letter(l), accidental, octave)
	}
	return Pitch{}, fmt.Errorf("%w: keynum %d cannot be spelled with %q", ErrInvalidPitch, keynum, accidental.String())
}

// HertzToKeynum returns the nearest midi key number for a frequency.
func HertzToKeynum(hz float64) (int, error) {
	if hz <= 0 {
		return 0, fmt.Errorf("%w: frequency %v must be positive", ErrInvalidPitch, hz)
	}
	k := int(math.Round(69 + 12*math.Log2(hz/440)))
	if k < 0 || k > 127 {
		return 0, fmt.Errorf("%w: frequency %v outside the midi range", ErrInvalidPitch, hz)
	}
	return k, nil
}

func (p Pitch) Letter() Letter         { return p.letter }
func (p Pitch) Accidental() Accidental { return p.accidental }

// Octave returns the octave index, 0..10.
func (p Pitch) Octave() int { return p.octave }

// Keynum returns the midi key number, C4 is 60.
func (p Pitch) Keynum() int {
	return p.octave*12 + p.letter.PitchClass() + p.accidental.Semitones()
}

// PitchClass returns the 0..11 pitch class.
func (p Pitch) PitchClass() int { return p.Pnum().PitchClass() }

// Hertz returns the equal tempered frequency with A4 at 440.
func (p Pitch) Hertz() float64 {
	return 440 * math.Pow(2, float64(p.Keynum()-69)/12)
}

func (p Pitch) Pnum() Pnum { return Pnum{Letter: p.letter, Accidental: p.accidental} }

// Pos packs (octave << 8) + (letter << 4) + accidental and gives pitches a
// total order by spelling.
func (p Pitch) Pos() int {
	return p.octave<<8 + int(p.letter)<<4 + int(p.accidental)
}

// Compare orders pitches by Pos.
func (p Pitch) Compare(o Pitch) int {
	switch a, b := p.Pos(), o.Pos(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (p Pitch) Less(o Pitch) bool  { return p.Compare(o) < 0 }
func (p Pitch) Equal(o Pitch) bool { return p == o }

// String returns the pitch name with default accidentals, e.g. "F#4" or "Bb00".
func (p Pitch) String() string {
	oct := "00"
	if p.octave > 0 {
		oct = fmt.Sprint(p.octave - 1)
	}
	return p.letter.String() + p.accidental.String() + oct
}

func (p Pitch) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pitch) UnmarshalText(b []byte) error {
	v, err := ParsePitch(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
