package species

import (
	"fmt"
	"slices"
	"strings"
)

// Category names one kind of violation. Its text is the message that follows
// the position in a rendered finding.
type Category int

const (
	ConsecutiveUnisonsFound Category = iota
	ConsecutiveFifthsFound
	ConsecutiveOctavesFound
	DirectUnisonsFound
	DirectFifthsFound
	DirectOctavesFound
	CfConsecutiveUnisonsFound
	CfConsecutiveFifthsFound
	CfConsecutiveOctavesFound
	VoiceOverlapFound
	VoiceCrossingFound
	WeakBeatDissonanceFound
	StrongBeatDissonanceFound
	ConsecutiveParallelsFound
	StartingPitchFound
	RestFound
	DurationFound
	MissingCadenceFound
	NonDiatonicPitchFound
	DissonantMelodicIntervalFound
	MelodicUnisonsFound
	FourthLeapsFound
	FifthLeapsFound
	SixthLeapsFound
	SeventhLeapsFound
	OctaveLeapsFound
	LargeLeapsFound
	ConsecutiveLeapsFound
	SameDirectionFound
	StepRecoveryFound
	CompoundIntervalFound

	numCategories
)

var categoryMessages = [numCategories]string{
	ConsecutiveUnisonsFound:       "consecutive unisons",
	ConsecutiveFifthsFound:        "consecutive fifths",
	ConsecutiveOctavesFound:       "consecutive octaves",
	DirectUnisonsFound:            "direct unisons",
	DirectFifthsFound:             "direct fifths",
	DirectOctavesFound:            "direct octaves",
	CfConsecutiveUnisonsFound:     "consecutive unisons in cantus firmus notes",
	CfConsecutiveFifthsFound:      "consecutive fifths in cantus firmus notes",
	CfConsecutiveOctavesFound:     "consecutive octaves in cantus firmus notes",
	VoiceOverlapFound:             "voice overlap",
	VoiceCrossingFound:            "voice crossing",
	WeakBeatDissonanceFound:       "forbidden weak beat dissonance",
	StrongBeatDissonanceFound:     "forbidden strong beat dissonance",
	ConsecutiveParallelsFound:     "too many consecutive parallel intervals",
	StartingPitchFound:            "forbidden starting pitch",
	RestFound:                     "forbidden rest",
	DurationFound:                 "forbidden duration",
	MissingCadenceFound:           "missing melodic cadence",
	NonDiatonicPitchFound:         "forbidden non-diatonic pitch",
	DissonantMelodicIntervalFound: "dissonant melodic interval",
	MelodicUnisonsFound:           "too many melodic unisons",
	FourthLeapsFound:              "too many leaps of a fourth",
	FifthLeapsFound:               "too many leaps of a fifth",
	SixthLeapsFound:               "too many leaps of a sixth",
	SeventhLeapsFound:             "too many leaps of a seventh",
	OctaveLeapsFound:              "too many leaps of an octave",
	LargeLeapsFound:               "too many large leaps",
	ConsecutiveLeapsFound:         "too many consecutive leaps",
	SameDirectionFound:            "too many consecutive intervals in same direction",
	StepRecoveryFound:             "missing reverse by step recovery",
	CompoundIntervalFound:         "forbidden compound melodic interval",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryMessages[c]
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCategory maps a message back to its category.
func ParseCategory(msg string) (Category, error) {
	i := slices.Index(categoryMessages[:], strings.TrimSpace(msg))
	if i < 0 {
		return 0, fmt.Errorf("unknown finding category %q", msg)
	}
	return Category(i), nil
}

// Finding is one violation at a 1-based timepoint position.
type Finding struct {
	Index    int      `json:"index"`
	Category Category `json:"category"`
}

func (f Finding) String() string {
	return fmt.Sprintf("At #%d: %s", f.Index, f.Category)
}

// ParseFinding parses the "At #<n>: <message>" form.
func ParseFinding(s string) (Finding, error) {
	var f Finding
	rest, ok := strings.CutPrefix(s, "At #")
	if !ok {
		return f, fmt.Errorf("finding %q does not start with \"At #\"", s)
	}
	num, msg, ok := strings.Cut(rest, ": ")
	if !ok {
		return f, fmt.Errorf("finding %q has no message", s)
	}
	if _, err := fmt.Sscanf(num, "%d", &f.Index); err != nil {
		return f, fmt.Errorf("finding %q: bad position: %w", s, err)
	}
	c, err := ParseCategory(msg)
	if err != nil {
		return f, err
	}
	f.Category = c
	return f, nil
}

// Results is the set of findings of one analysis. Adding a finding twice
// keeps one copy.
type Results struct {
	seen  map[Finding]struct{}
	order []Finding
}

func NewResults() *Results {
	return &Results{seen: map[Finding]struct{}{}}
}

// Add records a finding and reports whether it was new.
func (r *Results) Add(index int, c Category) bool {
	f := Finding{Index: index, Category: c}
	if _, ok := r.seen[f]; ok {
		return false
	}
	r.seen[f] = struct{}{}
	r.order = append(r.order, f)
	return true
}

// Has reports whether the category was already recorded at index.
func (r *Results) Has(index int, c Category) bool {
	_, ok := r.seen[Finding{Index: index, Category: c}]
	return ok
}

func (r *Results) Len() int { return len(r.order) }

// Since returns the findings added after the first n, in insertion order.
func (r *Results) Since(n int) []Finding {
	return slices.Clone(r.order[min(n, len(r.order)):])
}

// Findings returns the findings sorted by their rendered text.
func (r *Results) Findings() []Finding {
	out := slices.Clone(r.order)
	slices.SortFunc(out, func(a, b Finding) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// Strings returns the rendered findings in lexicographic order.
func (r *Results) Strings() []string {
	fs := r.Findings()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}
