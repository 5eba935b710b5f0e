package theory

import "fmt"

// Inflection raises or lowers a scale degree by a semitone.
type Inflection int

const (
	Lowered  Inflection = -1
	Diatonic Inflection = 0
	Raised   Inflection = 1
)

// ScaleDegree is a 1-based degree with an inflection, e.g. the raised
// leading tone in minor is {7, Raised}.
type ScaleDegree struct {
	Degree     int
	Inflection Inflection
}

var majorDegreeSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

// Semitones returns the distance above the tonic of a major scale.
func (sd ScaleDegree) Semitones() int {
	return majorDegreeSemitones[sd.Degree-1] + int(sd.Inflection)
}

var degreeNames = [7]string{"tonic", "supertonic", "mediant", "subdominant", "dominant", "submediant", "leading tone"}

func (sd ScaleDegree) String() string {
	name := degreeNames[sd.Degree-1]
	switch sd.Inflection {
	case Raised:
		return "raised " + name
	case Lowered:
		return "lowered " + name
	}
	return name
}

// ScaleDegreeOf locates pn relative to the key's scale by letter and reports
// any chromatic inflection.
func (k Key) ScaleDegreeOf(pn Pnum) (ScaleDegree, error) {
	for i, s := range k.Scale() {
		if s.Letter != pn.Letter {
			continue
		}
		inf := int(pn.Accidental) - int(s.Accidental)
		if inf < -1 || inf > 1 {
			return ScaleDegree{}, fmt.Errorf("%w: %s is %d semitones from degree %d of %s", ErrInvalidPitch, pn, inf, i+1, k)
		}
		return ScaleDegree{Degree: i + 1, Inflection: Inflection(inf)}, nil
	}
	return ScaleDegree{}, fmt.Errorf("%w: letter of %s not found in %s", ErrInvalidPitch, pn, k)
}
