package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	cases := []struct {
		text                   string
		span, qual, xoct, sign int
	}{
		{"P1", 0, 6, 0, 1},
		{"-P5", 4, 6, 0, -1},
		{"oo3", 2, 3, 0, 1},
		{"dd3", 2, 3, 0, 1},
		{"M10", 2, 7, 1, 1},
		{"P8", 7, 6, 0, 1},
		{"P15", 7, 6, 1, 1},
		{"aa4", 3, 9, 0, 1},
		{"+++++4", 3, 12, 0, 1},
		{"ooooo5", 4, 0, 0, 1},
		{"-m2", 1, 5, 0, -1},
	}
	for _, c := range cases {
		iv, err := ParseInterval(c.text)
		require.NoError(t, err, c.text)
		assert.Equal(t, c.span, iv.Span(), c.text)
		assert.Equal(t, Quality(c.qual), iv.Quality(), c.text)
		assert.Equal(t, c.xoct, iv.ExtraOctaves(), c.text)
		assert.Equal(t, c.sign, iv.Sign(), c.text)
	}
}

func TestParseIntervalErrors(t *testing.T) {
	for _, bad := range []string{"", "X5", "P", "M5", "P3", "ooooo4", "+++++5", "P0", "oooo3", "P78"} {
		_, err := ParseInterval(bad)
		assert.ErrorIs(t, err, ErrInvalidInterval, bad)
	}
}

func TestIntervalStringRoundTrip(t *testing.T) {
	for span := Unison; span <= Octave; span++ {
		for q := QuintuplyDiminished; q <= QuintuplyAugmented; q++ {
			for _, xoct := range []int{0, 1, 3} {
				for _, sign := range []int{1, -1} {
					iv, err := NewInterval(span, q, xoct, sign)
					if err != nil {
						continue
					}
					back, err := ParseInterval(iv.String())
					require.NoError(t, err, iv.String())
					assert.Equal(t, iv, back, iv.String())
				}
			}
		}
	}
}

func TestNewIntervalNormalizesUnison(t *testing.T) {
	iv, err := NewInterval(Unison, Perfect, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Octave, iv.Span())
	assert.Equal(t, 0, iv.ExtraOctaves())
}

func TestIntervalBetween(t *testing.T) {
	cases := map[[2]string]string{
		{"C4", "G4"}:  "P5",
		{"G4", "C4"}:  "-P5",
		{"C4", "E4"}:  "M3",
		{"E4", "C5"}:  "m6",
		{"C4", "C4"}:  "P1",
		{"C4", "C5"}:  "P8",
		{"C4", "E5"}:  "M10",
		{"F4", "B4"}:  "+4",
		{"B3", "F4"}:  "o5",
		{"C4", "C#4"}: "+1",
		{"B3", "C4"}:  "m2",
		{"C4", "D2"}:  "-m14",
	}
	for pair, want := range cases {
		iv, err := IntervalBetween(MustPitch(pair[0]), MustPitch(pair[1]))
		require.NoError(t, err, pair)
		assert.Equal(t, want, iv.String(), pair)
	}

	_, err := IntervalBetween(MustPitch("B#3"), MustPitch("Cb4"))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestIntervalSemitones(t *testing.T) {
	assert.Equal(t, 7, MustInterval("P5").Semitones())
	assert.Equal(t, -7, MustInterval("-P5").Semitones())
	assert.Equal(t, 6, MustInterval("o5").Semitones())
	assert.Equal(t, 16, MustInterval("M10").Semitones())
	assert.Equal(t, 0, MustInterval("o2").Semitones())
}

func TestIntervalPredicates(t *testing.T) {
	p4 := MustInterval("P4")
	assert.True(t, p4.IsFourth())
	assert.True(t, p4.IsFourth(Perfect))
	assert.False(t, p4.IsFourth(Augmented))
	assert.True(t, p4.IsConsonant())
	assert.True(t, p4.IsPerfectType())

	assert.True(t, MustInterval("m6").IsConsonant())
	assert.True(t, MustInterval("M2").IsDissonant())
	assert.True(t, MustInterval("+4").IsDissonant())
	assert.Equal(t, 2, MustInterval("oo3").Diminished())
	assert.Equal(t, 3, MustInterval("+++6").Augmented())
	assert.Equal(t, 0, MustInterval("M3").Augmented())
	assert.True(t, MustInterval("M9").IsCompound())
	assert.True(t, MustInterval("P8").IsSimple())
	assert.True(t, MustInterval("-m3").IsDescending())
}

func TestIntervalComplemented(t *testing.T) {
	iv := MustInterval("M3")
	c, err := iv.Complemented()
	require.NoError(t, err)
	assert.Equal(t, "m6", c.String())
	cc, err := c.Complemented()
	require.NoError(t, err)
	assert.Equal(t, iv, cc)

	c, err = MustInterval("ooooo5").Complemented()
	require.NoError(t, err)
	assert.Equal(t, "+++++4", c.String())

	_, err = MustInterval("o72").Complemented()
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestIntervalAdd(t *testing.T) {
	sum, err := MustInterval("M3").Add(MustInterval("m3"))
	require.NoError(t, err)
	assert.Equal(t, "P5", sum.String())

	sum, err = MustInterval("P5").Add(MustInterval("P5"))
	require.NoError(t, err)
	assert.Equal(t, "M9", sum.String())

	sum, err = MustInterval("P8").Add(MustInterval("P8"))
	require.NoError(t, err)
	assert.Equal(t, "P15", sum.String())

	_, err = MustInterval("-M3").Add(MustInterval("m3"))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestIntervalTranspose(t *testing.T) {
	p, err := MustInterval("M3").TransposePitch(MustPitch("D4"))
	require.NoError(t, err)
	assert.Equal(t, "F#4", p.String())

	p, err = MustInterval("-P5").TransposePitch(MustPitch("C4"))
	require.NoError(t, err)
	assert.Equal(t, "F3", p.String())

	p, err = MustInterval("m10").TransposePitch(MustPitch("A3"))
	require.NoError(t, err)
	assert.Equal(t, "C5", p.String())

	pn, err := MustInterval("m2").TransposePnum(Pnum{Letter: G, Accidental: Sharp})
	require.NoError(t, err)
	assert.Equal(t, Pnum{Letter: A, Accidental: Natural}, pn)

	pn, err = MustInterval("-M2").TransposePnum(Pnum{Letter: C, Accidental: Natural})
	require.NoError(t, err)
	assert.Equal(t, Pnum{Letter: B, Accidental: Flat}, pn)
}

func TestIntervalOrdering(t *testing.T) {
	assert.Equal(t, -1, MustInterval("M3").Compare(MustInterval("P4")))
	assert.Equal(t, 1, MustInterval("+3").Compare(MustInterval("M3")))
	assert.Equal(t, 0, MustInterval("-P5").Compare(MustInterval("P5")))
	assert.False(t, MustInterval("-P5").Equal(MustInterval("P5")))
	assert.True(t, MustInterval("M10").Matches(MustInterval("M3")))
	assert.Equal(t, (2+1)<<8+int(Major), MustInterval("M3").Pos())
}

func TestIntervalNames(t *testing.T) {
	assert.Equal(t, "doubly-augmented third", MustInterval("++3").FullName())
	assert.Equal(t, "descending perfect fifth", MustInterval("-P5").FullName())
	assert.Equal(t, "minor", MustInterval("m7").QualityName())
	assert.Equal(t, 3, MustInterval("M10").LinesAndSpaces())
}
