package theory

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrZeroDivision is returned for a zero denominator or a division by zero.
	ErrZeroDivision = errors.New("division by zero")
	// ErrInvalidRatio is returned when a ratio cannot be parsed or built.
	ErrInvalidRatio = errors.New("invalid ratio")
)

// Ratio is an exact fraction kept in lowest terms with a positive denominator.
// The zero value is not valid, use NewRatio or RatioFromInt.
type Ratio struct {
	num int64
	den int64
}

// NewRatio returns num/den reduced to lowest terms.
func NewRatio(num, den int64) (Ratio, error) {
	if den == 0 {
		return Ratio{}, fmt.Errorf("%w: denominator of %d/%d", ErrZeroDivision, num, den)
	}
	return reduce(num, den), nil
}

// MustRatio is like NewRatio but panics on a zero denominator.
func MustRatio(num, den int64) Ratio {
	r, err := NewRatio(num, den)
	if err != nil {
		panic(err)
	}
	return r
}

// RatioFromInt returns n/1.
func RatioFromInt(n int64) Ratio {
	return Ratio{num: n, den: 1}
}

// RatioFromFloat converts f using its shortest decimal spelling, so 0.1 is 1/10.
func RatioFromFloat(f float64) (Ratio, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Ratio{}, fmt.Errorf("%w: %v is not finite", ErrInvalidRatio, f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	den := int64(1)
	for range frac {
		if den > math.MaxInt64/10 {
			return Ratio{}, fmt.Errorf("%w: %v has too many decimals", ErrInvalidRatio, f)
		}
		den *= 10
	}
	num, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: %v: %v", ErrInvalidRatio, f, err)
	}
	if neg {
		num = -num
	}
	return reduce(num, den), nil
}

// ParseRatio parses "n/d" or a bare integer "n".
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	numText, denText, hasSlash := strings.Cut(s, "/")
	num, err := strconv.ParseInt(numText, 10, 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: numerator of %q", ErrInvalidRatio, s)
	}
	if !hasSlash {
		return RatioFromInt(num), nil
	}
	den, err := strconv.ParseInt(denText, 10, 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: denominator of %q", ErrInvalidRatio, s)
	}
	return NewRatio(num, den)
}

func reduce(num, den int64) Ratio {
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs64(num), den); g > 1 {
		num, den = num/g, den/g
	}
	return Ratio{num: num, den: den}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Num returns the numerator, which carries the sign.
func (r Ratio) Num() int64 { return r.num }

// Den returns the always-positive denominator.
func (r Ratio) Den() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

func (r Ratio) norm() Ratio {
	if r.den == 0 {
		return Ratio{num: r.num, den: 1}
	}
	return r
}

func (r Ratio) Add(o Ratio) Ratio {
	r, o = r.norm(), o.norm()
	l := r.den / gcd(r.den, o.den) * o.den
	return reduce(r.num*(l/r.den)+o.num*(l/o.den), l)
}

func (r Ratio) Sub(o Ratio) Ratio { return r.Add(o.Neg()) }

func (r Ratio) Mul(o Ratio) Ratio {
	r, o = r.norm(), o.norm()
	return reduce(r.num*o.num, r.den*o.den)
}

// Div returns r/o, failing when o is zero.
func (r Ratio) Div(o Ratio) (Ratio, error) {
	inv, err := o.Reciprocal()
	if err != nil {
		return Ratio{}, err
	}
	return r.Mul(inv), nil
}

// Mod returns the remainder of r/o, adjusted to be non-negative the way a
// floor division would.
func (r Ratio) Mod(o Ratio) (Ratio, error) {
	o = o.norm()
	if o.num == 0 {
		return Ratio{}, fmt.Errorf("%w: %s mod 0", ErrZeroDivision, r)
	}
	q, _ := r.Div(o)
	trunc := q.num / q.den
	d := r.Sub(o.MulInt(trunc))
	if d.num < 0 {
		if o.num < 0 {
			d = d.Sub(o)
		} else {
			d = d.Add(o)
		}
	}
	return d, nil
}

func (r Ratio) AddInt(n int64) Ratio { return r.Add(RatioFromInt(n)) }
func (r Ratio) SubInt(n int64) Ratio { return r.Sub(RatioFromInt(n)) }
func (r Ratio) MulInt(n int64) Ratio { return r.Mul(RatioFromInt(n)) }

func (r Ratio) DivInt(n int64) (Ratio, error) { return r.Div(RatioFromInt(n)) }
func (r Ratio) ModInt(n int64) (Ratio, error) { return r.Mod(RatioFromInt(n)) }

// AddFloat and the other float operations degrade to floating point.
func (r Ratio) AddFloat(f float64) float64 { return r.Float() + f }
func (r Ratio) SubFloat(f float64) float64 { return r.Float() - f }
func (r Ratio) MulFloat(f float64) float64 { return r.Float() * f }

func (r Ratio) DivFloat(f float64) (float64, error) {
	if f == 0 {
		return 0, fmt.Errorf("%w: %s / 0.0", ErrZeroDivision, r)
	}
	return r.Float() / f, nil
}

// Pow raises r to an integer power; negative powers use the reciprocal.
func (r Ratio) Pow(n int) (Ratio, error) {
	base := r.norm()
	if n < 0 {
		inv, err := base.Reciprocal()
		if err != nil {
			return Ratio{}, err
		}
		base, n = inv, -n
	}
	out := RatioFromInt(1)
	for range n {
		out = out.Mul(base)
	}
	return out, nil
}

// PowFloat raises r to a real power in floating point.
func (r Ratio) PowFloat(f float64) float64 {
	return math.Pow(r.Float(), f)
}

func (r Ratio) Neg() Ratio {
	r = r.norm()
	return Ratio{num: -r.num, den: r.den}
}

// Reciprocal returns den/num.
func (r Ratio) Reciprocal() (Ratio, error) {
	r = r.norm()
	if r.num == 0 {
		return Ratio{}, fmt.Errorf("%w: reciprocal of 0", ErrZeroDivision)
	}
	return reduce(r.den, r.num), nil
}

// Compare returns -1, 0 or 1 by exact cross-multiplication.
func (r Ratio) Compare(o Ratio) int {
	r, o = r.norm(), o.norm()
	lhs, rhs := r.num*o.den, o.num*r.den
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	}
	return 0
}

func (r Ratio) Equal(o Ratio) bool { return r.Compare(o) == 0 }
func (r Ratio) Less(o Ratio) bool  { return r.Compare(o) < 0 }
func (r Ratio) IsZero() bool       { return r.num == 0 }

// Sign returns -1, 0 or 1.
func (r Ratio) Sign() int {
	switch {
	case r.num < 0:
		return -1
	case r.num > 0:
		return 1
	}
	return 0
}

func (r Ratio) Float() float64 {
	r = r.norm()
	return float64(r.num) / float64(r.den)
}

// Dotted lengthens r by dots geometrically halved increments.
func (r Ratio) Dotted(dots int) (Ratio, error) {
	if dots <= 0 {
		return Ratio{}, fmt.Errorf("%w: dots must be positive, got %d", ErrInvalidRatio, dots)
	}
	half, _ := RatioFromInt(1).Mul(MustRatio(1, 2)).Pow(dots)
	return r.Mul(RatioFromInt(2).Sub(half)), nil
}

// Tuplets divides r*inTimeOf into n equal values that sum exactly to it.
func (r Ratio) Tuplets(n int, inTimeOf Ratio) ([]Ratio, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: tuplet count must be positive, got %d", ErrInvalidRatio, n)
	}
	if inTimeOf.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tuplet span must be positive, got %s", ErrInvalidRatio, inTimeOf)
	}
	each, _ := r.Mul(inTimeOf).DivInt(int64(n))
	out := make([]Ratio, n)
	for i := range out {
		out[i] = each
	}
	return out, nil
}

// Tup returns r divided into num parts.
func (r Ratio) Tup(num Ratio) (Ratio, error) {
	if num.Sign() <= 0 {
		return Ratio{}, fmt.Errorf("%w: tup divisor must be positive, got %s", ErrInvalidRatio, num)
	}
	return r.Div(num)
}

// Seconds converts a duration to seconds at tempo beats per minute, where
// beat is the duration of one beat (a quarter note is 1/4).
func (r Ratio) Seconds(tempo, beat Ratio) (float64, error) {
	if tempo.Sign() <= 0 {
		return 0, fmt.Errorf("%w: tempo must be positive, got %s", ErrInvalidRatio, tempo)
	}
	if beat.Sign() <= 0 {
		return 0, fmt.Errorf("%w: beat must be positive, got %s", ErrInvalidRatio, beat)
	}
	beats, _ := r.Div(beat)
	minutes, _ := beats.Div(tempo)
	return minutes.MulInt(60).Float(), nil
}

func (r Ratio) String() string {
	r = r.norm()
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ratio) UnmarshalText(b []byte) error {
	v, err := ParseRatio(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
