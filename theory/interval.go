package theory

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidInterval is returned for malformed or impossible intervals.
var ErrInvalidInterval = errors.New("invalid interval")

// Quality is the chromatic size adjustment of an interval, from quintuply
// diminished (0) to quintuply augmented (12).
type Quality int

const (
	QuintuplyDiminished Quality = iota
	QuadruplyDiminished
	TriplyDiminished
	DoublyDiminished
	Diminished
	Minor
	Perfect
	Major
	Augmented
	DoublyAugmented
	TriplyAugmented
	QuadruplyAugmented
	QuintuplyAugmented
)

var qualitySymbols = [13]string{
	"ooooo", "oooo", "ooo", "oo", "o", "m", "P", "M", "+", "++", "+++", "++++", "+++++",
}

var numericalAdverbs = [5]string{"", "doubly-", "triply-", "quadruply-", "quintuply-"}

func (q Quality) String() string {
	if q < QuintuplyDiminished || q > QuintuplyAugmented {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualitySymbols[q]
}

// Span indexes, counting lines and spaces from zero.
const (
	Unison = iota
	Second
	Third
	Fourth
	Fifth
	Sixth
	Seventh
	Octave
)

var spanNames = [8]string{"unison", "second", "third", "fourth", "fifth", "sixth", "seventh", "octave"}

// spanSemitones is the perfect or major semitone size of each span.
var spanSemitones = [8]int{0, 2, 4, 5, 7, 9, 11, 12}

const (
	maxXoct      = 10
	maxSemitones = 127
)

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func perfectType(span int) bool {
	return span == Unison || span == Fourth || span == Fifth || span == Octave
}

// Interval is the distance between two pitches measured by span, quality,
// extra octaves and direction.
type Interval struct {
	span int
	qual Quality
	xoct int
	sign int
}

// NewInterval validates and builds an interval. A unison span with extra
// octaves is normalized to an octave span with one fewer extra octave.
func NewInterval(span int, qual Quality, xoct, sign int) (Interval, error) {
	if span < Unison || span > Octave {
		return Interval{}, fmt.Errorf("%w: span %d outside 0-7", ErrInvalidInterval, span)
	}
	if qual < QuintuplyDiminished || qual > QuintuplyAugmented {
		return Interval{}, fmt.Errorf("%w: quality %d outside 0-12", ErrInvalidInterval, qual)
	}
	if xoct < 0 || xoct > maxXoct {
		return Interval{}, fmt.Errorf("%w: extra octaves %d outside 0-10", ErrInvalidInterval, xoct)
	}
	if sign != 1 && sign != -1 {
		return Interval{}, fmt.Errorf("%w: sign %d must be 1 or -1", ErrInvalidInterval, sign)
	}
	off, err := qualityOffset(span, qual)
	if err != nil {
		return Interval{}, err
	}
	semis := spanSemitones[span] + off + xoct*12
	if semis < 0 {
		return Interval{}, fmt.Errorf("%w: %s%d would have %d semitones", ErrInvalidInterval, qual, span+xoct*7+1, semis)
	}
	if semis > maxSemitones {
		return Interval{}, fmt.Errorf("%w: %d semitones exceeds %d", ErrInvalidInterval, semis, maxSemitones)
	}
	if qual == QuintuplyDiminished && span != Fifth {
		return Interval{}, fmt.Errorf("%w: only a fifth can be quintuply diminished, got span %d", ErrInvalidInterval, span)
	}
	if qual == QuintuplyAugmented && span != Fourth {
		return Interval{}, fmt.Errorf("%w: only a fourth can be quintuply augmented, got span %d", ErrInvalidInterval, span)
	}
	if span == Unison && xoct > 0 {
		span, xoct = Octave, xoct-1
	}
	return Interval{span: span, qual: qual, xoct: xoct, sign: sign}, nil
}

// qualityOffset returns the semitone adjustment of qual from the perfect or
// major size of span.
func qualityOffset(span int, qual Quality) (int, error) {
	if perfectType(span) {
		switch {
		case qual <= Diminished:
			return int(qual) - int(Minor), nil
		case qual == Perfect:
			return 0, nil
		case qual >= Augmented:
			return int(qual) - int(Major), nil
		}
		return 0, fmt.Errorf("%w: %s is not a quality of the %s", ErrInvalidInterval, qualityName(qual), spanNames[span])
	}
	switch {
	case qual <= Diminished:
		return int(qual) - int(Perfect), nil
	case qual == Minor:
		return -1, nil
	case qual == Major:
		return 0, nil
	case qual >= Augmented:
		return int(qual) - int(Major), nil
	}
	return 0, fmt.Errorf("%w: %s is not a quality of the %s", ErrInvalidInterval, qualityName(qual), spanNames[span])
}

// qualityFromOffset inverts qualityOffset.
func qualityFromOffset(span, off int) (Quality, error) {
	if perfectType(span) {
		switch {
		case off >= -5 && off <= -1:
			return Quality(off + int(Minor)), nil
		case off == 0:
			return Perfect, nil
		case off >= 1 && off <= 5:
			return Quality(off + int(Major)), nil
		}
	} else {
		switch {
		case off >= -6 && off <= -2:
			return Quality(off + int(Perfect)), nil
		case off == -1:
			return Minor, nil
		case off == 0:
			return Major, nil
		case off >= 1 && off <= 5:
			return Quality(off + int(Major)), nil
		}
	}
	return 0, fmt.Errorf("%w: %d semitones off the %s has no quality", ErrInvalidInterval, off, spanNames[span])
}

// MustInterval parses s and panics on error.
func MustInterval(s string) Interval {
	i, err := ParseInterval(s)
	if err != nil {
		panic(err)
	}
	return i
}

var qualityLetters = map[string]string{
	"d": "o", "dd": "oo", "ddd": "ooo", "dddd": "oooo", "ddddd": "ooooo",
	"D": "o", "DD": "oo", "DDD": "ooo", "DDDD": "oooo", "DDDDD": "ooooo",
	"a": "+", "aa": "++", "aaa": "+++", "aaaa": "++++", "aaaaa": "+++++",
	"A": "+", "AA": "++", "AAA": "+++", "AAAA": "++++", "AAAAA": "+++++",
}

// ParseInterval parses names such as "P5", "-m3", "oo3", "M10" or "aa4".
func ParseInterval(s string) (Interval, error) {
	text := s
	sign := 1
	if strings.HasPrefix(text, "-") {
		sign, text = -1, text[1:]
	}
	qual := Quality(-1)
	for n := min(5, len(text)); n > 0; n-- {
		sym := text[:n]
		if mapped, ok := qualityLetters[sym]; ok {
			sym = mapped
		}
		if q := slices.Index(qualitySymbols[:], sym); q >= 0 {
			qual, text = Quality(q), text[n:]
			break
		}
	}
	if qual < 0 {
		return Interval{}, fmt.Errorf("%w: missing quality in %q", ErrInvalidInterval, s)
	}
	num, err := strconv.Atoi(text)
	if err != nil || num < 1 {
		return Interval{}, fmt.Errorf("%w: bad interval number in %q", ErrInvalidInterval, s)
	}
	span, xoct := splitSpan(num - 1)
	return NewInterval(span, qual, xoct, sign)
}

// splitSpan splits a total diatonic distance into a simple span and extra
// octaves, keeping octaves as span 7.
func splitSpan(total int) (span, xoct int) {
	if total%7 == 0 {
		if total <= 7 {
			return total, 0
		}
		return Octave, total/7 - 1
	}
	return total % 7, total / 7
}

// IntervalBetween returns the interval from p1 to p2, descending when p2 is
// spelled below p1.
func IntervalBetween(p1, p2 Pitch) (Interval, error) {
	lo, hi, sign := p1, p2, 1
	if p1.Pos() > p2.Pos() {
		lo, hi, sign = p2, p1, -1
	}
	if lo.Keynum() > hi.Keynum() {
		return Interval{}, fmt.Errorf("%w: %s is spelled above %s but sounds below it", ErrInvalidInterval, hi, lo)
	}
	total := (hi.octave-lo.octave)*7 + int(hi.letter) - int(lo.letter)
	span, xoct := splitSpan(total)
	off := hi.Keynum() - lo.Keynum() - spanSemitones[span] - xoct*12
	qual, err := qualityFromOffset(span, off)
	if err != nil {
		return Interval{}, fmt.Errorf("between %s and %s: %w", p1, p2, err)
	}
	return NewInterval(span, qual, xoct, sign)
}

func (i Interval) Span() int         { return i.span }
func (i Interval) Quality() Quality  { return i.qual }
func (i Interval) ExtraOctaves() int { return i.xoct }
func (i Interval) Sign() int         { return i.sign }

func (i Interval) is(span int, quals []Quality) bool {
	if i.span != span {
		return false
	}
	return len(quals) == 0 || slices.Contains(quals, i.qual)
}

// IsUnison and its siblings test the span, optionally restricted to the
// given qualities.
func (i Interval) IsUnison(q ...Quality) bool  { return i.is(Unison, q) }
func (i Interval) IsSecond(q ...Quality) bool  { return i.is(Second, q) }
func (i Interval) IsThird(q ...Quality) bool   { return i.is(Third, q) }
func (i Interval) IsFourth(q ...Quality) bool  { return i.is(Fourth, q) }
func (i Interval) IsFifth(q ...Quality) bool   { return i.is(Fifth, q) }
func (i Interval) IsSixth(q ...Quality) bool   { return i.is(Sixth, q) }
func (i Interval) IsSeventh(q ...Quality) bool { return i.is(Seventh, q) }
func (i Interval) IsOctave(q ...Quality) bool  { return i.is(Octave, q) }

func (i Interval) IsPerfect() bool { return i.qual == Perfect }
func (i Interval) IsMajor() bool   { return i.qual == Major }
func (i Interval) IsMinor() bool   { return i.qual == Minor }

// Diminished returns the diminution count 1-5, or 0 when not diminished.
func (i Interval) Diminished() int {
	if i.qual <= Diminished {
		return int(Minor - i.qual)
	}
	return 0
}

// Augmented returns the augmentation count 1-5, or 0 when not augmented.
func (i Interval) Augmented() int {
	if i.qual >= Augmented {
		return int(i.qual - Major)
	}
	return 0
}

func (i Interval) IsDiminished() bool { return i.Diminished() > 0 }
func (i Interval) IsAugmented() bool  { return i.Augmented() > 0 }

// IsPerfectType reports a unison, fourth, fifth or octave.
func (i Interval) IsPerfectType() bool   { return perfectType(i.span) }
func (i Interval) IsImperfectType() bool { return !perfectType(i.span) }

// IsConsonant counts the perfect fourth as consonant.
func (i Interval) IsConsonant() bool {
	if i.IsPerfectType() {
		return i.IsPerfect()
	}
	return i.IsThird(Minor, Major) || i.IsSixth(Minor, Major)
}

func (i Interval) IsDissonant() bool { return !i.IsConsonant() }

func (i Interval) IsSimple() bool   { return i.xoct == 0 }
func (i Interval) IsCompound() bool { return i.xoct > 0 }

func (i Interval) IsAscending() bool  { return i.sign == 1 }
func (i Interval) IsDescending() bool { return i.sign == -1 }

// Semitones returns the signed chromatic size.
func (i Interval) Semitones() int {
	off, _ := qualityOffset(i.span, i.qual)
	return (spanSemitones[i.span] + off + i.xoct*12) * i.sign
}

// Complemented inverts the span and quality.
func (i Interval) Complemented() (Interval, error) {
	return NewInterval(Octave-i.span, QuintuplyAugmented-i.qual, i.xoct, i.sign)
}

// Add returns the compound sum of two ascending intervals.
func (i Interval) Add(o Interval) (Interval, error) {
	if i.IsDescending() || o.IsDescending() {
		return Interval{}, fmt.Errorf("%w: cannot add descending intervals %s and %s", ErrInvalidInterval, i, o)
	}
	span := i.span + o.span
	xoct := i.xoct + o.xoct
	if span > Octave {
		span -= 7
		xoct++
	}
	off := i.Semitones() + o.Semitones() - xoct*12 - spanSemitones[span]
	qual, err := qualityFromOffset(span, off)
	if err != nil {
		return Interval{}, fmt.Errorf("adding %s and %s: %w", i, o, err)
	}
	return NewInterval(span, qual, xoct, 1)
}

// TransposePitch moves p by the interval, keeping the spelling consistent.
func (i Interval) TransposePitch(p Pitch) (Pitch, error) {
	letter := int(p.letter) + i.span*i.sign
	octave := p.octave
	if letter >= 7 || letter < 0 {
		letter = (letter + 7) % 7
		octave += i.sign
	}
	octave += i.xoct * i.sign
	natural := octave*12 + letterPC[letter]
	acc := p.Keynum() + i.Semitones() - natural + int(Natural)
	if acc < int(DoubleFlat) || acc > int(DoubleSharp) {
		return Pitch{}, fmt.Errorf("%w: %s transposed by %s needs accidental %d", ErrInvalidPitch, p, i, acc-int(Natural))
	}
	return NewPitch(Letter(letter), Accidental(acc), octave)
}

// TransposePnum moves a pitch class upward by the interval. Descending
// intervals are replaced by their complement.
func (i Interval) TransposePnum(pn Pnum) (Pnum, error) {
	iv := i
	if iv.IsDescending() {
		c, err := iv.Complemented()
		if err != nil {
			return Pnum{}, err
		}
		iv = c
	}
	letter := (int(pn.Letter) + iv.span) % 7
	target := pn.PitchClass() + abs(iv.Semitones())
	d := ((target-letterPC[letter])%12 + 12) % 12
	if d > 6 {
		d -= 12
	}
	if d < -2 || d > 2 {
		return Pnum{}, fmt.Errorf("%w: %s transposed by %s needs accidental %d", ErrInvalidPitch, pn, i, d)
	}
	return Pnum{Letter: Letter(letter), Accidental: Accidental(d + int(Natural))}, nil
}

// Pos gives a size ordering, (((span + xoct*7) + 1) << 8) + quality.
// Direction is ignored.
func (i Interval) Pos() int {
	return ((i.span+i.xoct*7)+1)<<8 + int(i.qual)
}

// Compare orders intervals by size only.
func (i Interval) Compare(o Interval) int {
	switch a, b := i.Pos(), o.Pos(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports the same size and direction.
func (i Interval) Equal(o Interval) bool { return i.Pos() == o.Pos() && i.sign == o.sign }

// Matches compares span, quality and sign, ignoring extra octaves.
func (i Interval) Matches(o Interval) bool {
	return i.span == o.span && i.qual == o.qual && i.sign == o.sign
}

// LinesAndSpaces returns the simple interval number, a unison is 1.
func (i Interval) LinesAndSpaces() int { return i.span + 1 }

func (i Interval) SpanName() string    { return spanNames[i.span] }
func (i Interval) QualityName() string { return qualityName(i.qual) }

func qualityName(q Quality) string {
	switch {
	case q < QuintuplyDiminished || q > QuintuplyAugmented:
		return q.String()
	case q <= Diminished:
		return numericalAdverbs[Minor-q-1] + "diminished"
	case q == Minor:
		return "minor"
	case q == Perfect:
		return "perfect"
	case q == Major:
		return "major"
	}
	return numericalAdverbs[q-Augmented] + "augmented"
}

// FullName returns e.g. "doubly-augmented third" or "descending perfect fifth".
func (i Interval) FullName() string {
	name := i.QualityName() + " " + i.SpanName()
	if i.IsDescending() {
		return "descending " + name
	}
	return name
}

func (i Interval) String() string {
	prefix := ""
	if i.IsDescending() {
		prefix = "-"
	}
	return prefix + i.qual.String() + strconv.Itoa(i.span+i.xoct*7+1)
}

func (i Interval) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Interval) UnmarshalText(b []byte) error {
	v, err := ParseInterval(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}
