package theory

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for an out of range signum or an unknown mode.
var ErrInvalidKey = errors.New("invalid key")

// Mode is one of the seven diatonic modes. Its value is the rotation from
// the major scale.
type Mode int

const (
	Ionian Mode = iota
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Aeolian
	Locrian
)

const (
	MajorMode = Ionian
	MinorMode = Aeolian
)

var modeNames = [7]string{"Ionian", "Dorian", "Phrygian", "Lydian", "Mixolydian", "Aeolian", "Locrian"}

func (m Mode) String() string {
	if m < Ionian || m > Locrian {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts mode names case-insensitively, plus "major" and "minor".
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "major":
		return MajorMode, nil
	case "minor":
		return MinorMode, nil
	}
	for i, n := range modeNames {
		if strings.ToLower(n) == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidKey, s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Key is a key signature (-7 flats to 7 sharps) and a mode.
type Key struct {
	Signum int  `json:"signum" yaml:"signum"`
	Mode   Mode `json:"mode" yaml:"mode"`
}

// NewKey validates signum and mode.
func NewKey(signum int, mode Mode) (Key, error) {
	if signum < -7 || signum > 7 {
		return Key{}, fmt.Errorf("%w: signum %d outside -7..7", ErrInvalidKey, signum)
	}
	if mode < Ionian || mode > Locrian {
		return Key{}, fmt.Errorf("%w: mode %d outside 0-6", ErrInvalidKey, mode)
	}
	return Key{Signum: signum, Mode: mode}, nil
}

// NewKeyNamed is NewKey with a mode name such as "Dorian" or "minor".
func NewKeyNamed(signum int, mode string) (Key, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Key{}, err
	}
	return NewKey(signum, m)
}

// Validate reports whether a decoded key is in range.
func (k Key) Validate() error {
	_, err := NewKey(k.Signum, k.Mode)
	return err
}

// Scale returns the seven pitch classes of the key in scale degree order.
func (k Key) Scale() [7]Pnum {
	var base [7]Pnum
	for l := range base {
		base[l] = Pnum{Letter: Letter(l), Accidental: Natural}
	}
	for i := 0; i < k.Signum; i++ {
		base[(i*4+3)%7].Accidental++
	}
	for i := 0; i < -k.Signum; i++ {
		base[((6-i*4)%7+7)%7].Accidental--
	}
	start := ((k.Signum*4+int(k.Mode))%7 + 7) % 7
	var out [7]Pnum
	for d := range out {
		out[d] = base[(start+d)%7]
	}
	return out
}

func (k Key) Tonic() Pnum { return k.Scale()[0] }

// Degree returns the 1-based scale degree of pn, or false when pn is not
// diatonic in the key.
func (k Key) Degree(pn Pnum) (int, bool) {
	for i, s := range k.Scale() {
		if s == pn {
			return i + 1, true
		}
	}
	return 0, false
}

func (k Key) Contains(pn Pnum) bool {
	_, ok := k.Degree(pn)
	return ok
}

// String returns e.g. "C-Ionian" or "Fs-Dorian".
func (k Key) String() string {
	return k.Tonic().String() + "-" + k.Mode.String()
}
