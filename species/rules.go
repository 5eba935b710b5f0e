package species

import (
	"slices"

	"github.com/mager/species/theory"
)

// Rule is one check of the catalog. Apply reads the state and adds its
// findings to the results; it may consult findings of earlier rules.
type Rule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	apply       func(*State, *Results) error
}

func (r Rule) Apply(s *State, res *Results) error { return r.apply(s, res) }

// Catalog returns the rules in the order they run. Duration and large leap
// rules come before the rules that defer to their findings.
func Catalog() []Rule {
	return []Rule{
		{"ForbiddenStartingPitch", "The counterpoint must start on an allowed scale degree over the tonic.", forbiddenStartingPitch},
		{"ForbiddenRest", "Rests are only allowed on the first beat of the counterpoint.", forbiddenRest},
		{"ForbiddenDuration", "Counterpoint notes are whole notes in first species and half notes in second species.", forbiddenDuration},
		{"ConsecutiveUnisons", "Consecutive unisons are not allowed.", consecutive(isUnison, ConsecutiveUnisonsFound)},
		{"ConsecutiveFifths", "Consecutive fifths are not allowed.", consecutive(isFifth, ConsecutiveFifthsFound)},
		{"ConsecutiveOctaves", "Consecutive octaves are not allowed.", consecutive(isOctave, ConsecutiveOctavesFound)},
		{"DirectUnisons", "Direct unisons are not allowed.", direct(isUnison, DirectUnisonsFound)},
		{"DirectFifths", "Direct fifths are not allowed.", direct(isFifth, DirectFifthsFound)},
		{"DirectOctaves", "Direct octaves are not allowed.", direct(isOctave, DirectOctavesFound)},
		{"CfConsecUnisons", "Consecutive unisons in cantus firmus notes are not allowed.", cfConsecutive(isUnison, CfConsecutiveUnisonsFound)},
		{"CfConsecFifths", "Consecutive fifths in cantus firmus notes are not allowed.", cfConsecutive(isFifth, CfConsecutiveFifthsFound)},
		{"CfConsecOctaves", "Consecutive octaves in cantus firmus notes are not allowed.", cfConsecutive(isOctave, CfConsecutiveOctavesFound)},
		{"VoiceOverlap", "Voice overlap is not allowed.", voiceOverlap},
		{"VoiceCrossing", "Voice crossing is not allowed.", voiceCrossing},
		{"WeakBeatDissonance", "Weak beat dissonance has to be a passing tone.", weakBeatDissonance},
		{"StrongBeatDissonance", "Strong beat dissonance is not allowed.", strongBeatDissonance},
		{"ConsecParallels", "Too many consecutive parallel thirds or sixths are not allowed.", consecParallels},
		{"MelodicCadence", "The counterpoint must end with a stepwise melodic cadence to the tonic.", melodicCadence},
		{"NonDiatonicPitch", "Non-diatonic pitches are not allowed outside the cadence.", nonDiatonicPitch},
		{"DissonantMelodicInterval", "Dissonant melodic intervals are not allowed.", dissonantMelodicInterval},
		{"MaxLrg", "Too many large leaps are not allowed.", leapCount(func(s Settings) Limit { return s.MaxLrg }, isLarge, LargeLeapsFound, false)},
		{"MaxUni", "Too many melodic unisons are not allowed.", leapCount(func(s Settings) Limit { return s.MaxUni }, isPerfectUnison, MelodicUnisonsFound, false)},
		{"Max4th", "Too many leaps of a fourth are not allowed.", leapCount(func(s Settings) Limit { return s.Max4th }, isFourth, FourthLeapsFound, true)},
		{"Max5th", "Too many leaps of a fifth are not allowed.", leapCount(func(s Settings) Limit { return s.Max5th }, isFifth, FifthLeapsFound, true)},
		{"Max6th", "Too many leaps of a sixth are not allowed.", leapCount(func(s Settings) Limit { return s.Max6th }, isSixth, SixthLeapsFound, true)},
		{"Max7th", "Too many leaps of a seventh are not allowed.", leapCount(func(s Settings) Limit { return s.Max7th }, isSeventh, SeventhLeapsFound, true)},
		{"Max8va", "Too many leaps of an octave are not allowed.", leapCount(func(s Settings) Limit { return s.Max8va }, isOctave, OctaveLeapsFound, true)},
		{"MaxConsecLeap", "Too many consecutive leaps are not allowed.", maxConsecLeap},
		{"MaxSameDir", "Too many consecutive intervals in the same direction are not allowed.", maxSameDir},
		{"StepRecovery", "Large leaps must be recovered by a step in the opposite direction.", stepRecovery},
		{"CompoundInterval", "Compound melodic intervals are not allowed.", compoundInterval},
	}
}

var (
	minorSecond = theory.MustInterval("m2")
	majorSecond = theory.MustInterval("M2")
	minorThird  = theory.MustInterval("m3")
	unison      = theory.MustInterval("P1")
)

func isUnison(iv theory.Interval) bool        { return iv.IsUnison() }
func isFourth(iv theory.Interval) bool        { return iv.IsFourth() }
func isFifth(iv theory.Interval) bool         { return iv.IsFifth() }
func isSixth(iv theory.Interval) bool         { return iv.IsSixth() }
func isSeventh(iv theory.Interval) bool       { return iv.IsSeventh() }
func isOctave(iv theory.Interval) bool        { return iv.IsOctave() }
func isPerfectUnison(iv theory.Interval) bool { return iv.Compare(unison) == 0 }

// isLeap is anything larger than a second, isLarge anything larger than a third.
func isLeap(iv theory.Interval) bool  { return iv.Span() > theory.Second }
func isLarge(iv theory.Interval) bool { return iv.Span() > theory.Third }

// isAltered is a diminished or augmented interval.
func isAltered(iv theory.Interval) bool { return iv.IsDiminished() || iv.IsAugmented() }

func isMelodicDissonance(iv theory.Interval) bool {
	return iv.IsSeventh() || !(iv.IsMajor() || iv.IsMinor() || iv.IsPerfect())
}

// melodic returns the interval from a to b, or nil when either is a rest.
func melodic(a, b *theory.Pitch) (*theory.Interval, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	iv, err := theory.IntervalBetween(*a, *b)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// firstSounding skips leading rests.
func firstSounding(v []*theory.Pitch) (*theory.Pitch, bool) {
	for i, p := range v {
		if p != nil {
			return p, i > 0
		}
	}
	return nil, len(v) > 0
}

func forbiddenStartingPitch(s *State, r *Results) error {
	at := 1
	lower, upper := s.Lower[0], s.Upper[0]
	if s.Species == 2 {
		var lrest, urest bool
		lower, lrest = firstSounding(s.Lower)
		upper, urest = firstSounding(s.Upper)
		if lrest || urest {
			at = 2
		}
	}
	if lower == nil || upper == nil {
		return nil
	}
	if lower.Pnum() != s.Tonic {
		r.Add(at, StartingPitchFound)
		return nil
	}
	if deg, ok := s.Key.Degree(upper.Pnum()); !ok || !slices.Contains(s.Settings.StartAbove, deg) {
		r.Add(at, StartingPitchFound)
		return nil
	}
	if !s.CFLow {
		if deg, ok := s.Key.Degree(lower.Pnum()); !ok || !slices.Contains(s.Settings.StartBelow, deg) {
			r.Add(at, StartingPitchFound)
		}
	}
	return nil
}

func forbiddenRest(s *State, r *Results) error {
	if s.Species == 1 {
		for i := range s.Len() {
			if s.Lower[i] == nil || s.Upper[i] == nil {
				r.Add(i+1, RestFound)
			}
		}
		return nil
	}
	if s.CF[0] == nil {
		r.Add(1, RestFound)
	}
	for i := 1; i < s.Len(); i++ {
		if s.CF[i] == nil || s.CP[i] == nil {
			r.Add(i+1, RestFound)
		}
	}
	return nil
}

func forbiddenDuration(s *State, r *Results) error {
	n := len(s.CPDur)
	for i, d := range s.CPDur {
		var ok bool
		switch {
		case s.Species == 1:
			ok = d.Equal(s.Whole)
		case i < n-2:
			ok = d.Equal(s.Half)
		case i == n-2:
			ok = d.Equal(s.Whole) || d.Equal(s.Half)
		default:
			ok = d.Equal(s.Whole)
		}
		if !ok {
			r.Add(i+1, DurationFound)
		}
	}
	return nil
}

// consecutive flags adjacent harmonic intervals of the same kind, unless a
// duration was already flagged at either position. In second species the
// final pair is allowed over a held bass.
func consecutive(match func(theory.Interval) bool, c Category) func(*State, *Results) error {
	return func(s *State, r *Results) error {
		n := s.Len()
		var found []int
		for i := 0; i < n-1; i++ {
			a, b := s.Intervals[i], s.Intervals[i+1]
			if a == nil || b == nil || !match(*a) || !match(*b) {
				continue
			}
			if s.Species == 2 && i == n-2 && s.Lower[i].Equal(*s.Lower[i+1]) {
				continue
			}
			found = append(found, i)
		}
		for _, i := range found {
			if r.Has(i+1, DurationFound) || r.Has(i+2, DurationFound) {
				continue
			}
			r.Add(i+1, c)
		}
		return nil
	}
}

// direct flags arrival at the interval by similar motion with a leap in the
// upper voice. The position reported is the departure.
func direct(match func(theory.Interval) bool, c Category) func(*State, *Results) error {
	return func(s *State, r *Results) error {
		for i := 1; i < s.Len()-1; i++ {
			iv := s.Intervals[i]
			if iv == nil || !match(*iv) {
				continue
			}
			lower, err := melodic(s.Lower[i-1], s.Lower[i])
			if err != nil {
				return err
			}
			upper, err := melodic(s.Upper[i-1], s.Upper[i])
			if err != nil {
				return err
			}
			switch {
			case lower == nil || upper == nil:
			case !isLeap(*upper):
			case lower.Sign() != upper.Sign():
			case lower.Span() == upper.Span():
			case lower.IsUnison():
			default:
				r.Add(i, c)
			}
		}
		return nil
	}
}

// cfConsecutive compares harmonic intervals at successive cantus firmus
// notes in second species.
func cfConsecutive(match func(theory.Interval) bool, c Category) func(*State, *Results) error {
	both := func(a, b *theory.Interval) bool {
		return a != nil && b != nil && match(*a) && match(*b)
	}
	return func(s *State, r *Results) error {
		if s.Species == 1 {
			return nil
		}
		n := s.Len()
		start := 0
		if s.CPDur[0].Equal(s.Whole) {
			start = 1
			if both(s.Intervals[0], s.Intervals[1]) {
				r.Add(1, c)
			}
		}
		for i := start; i < n-2; i += 2 {
			if both(s.Intervals[i], s.Intervals[i+2]) {
				r.Add(i+1, c)
			}
		}
		return nil
	}
}

// voiceOverlap flags a voice moving past where the other voice just was.
// The position reported is the arrival.
func voiceOverlap(s *State, r *Results) error {
	for i := 0; i < s.Len()-1; i++ {
		lo, up := s.Lower[i], s.Upper[i]
		if lo == nil || up == nil {
			continue
		}
		nextLo, nextUp := s.Lower[i+1], s.Upper[i+1]
		if (nextLo != nil && nextLo.Compare(*up) > 0) || (nextUp != nil && nextUp.Compare(*lo) < 0) {
			r.Add(i+2, VoiceOverlapFound)
		}
	}
	return nil
}

func voiceCrossing(s *State, r *Results) error {
	for i := range s.Len() {
		lo, up := s.Lower[i], s.Upper[i]
		if lo != nil && up != nil && lo.Compare(*up) > 0 {
			r.Add(i+1, VoiceCrossingFound)
		}
	}
	return nil
}

// weakBeatDissonance only applies to second species offbeats. A dissonance
// there must be a passing tone approached and left by step in one direction.
func weakBeatDissonance(s *State, r *Results) error {
	if s.Species == 1 {
		return nil
	}
	n := s.Len()
	start := 1
	if s.CPDur[0].Equal(s.Whole) {
		start = 2
	}
	for i := start; i < n; i += 2 {
		iv := s.Intervals[i]
		if iv == nil {
			continue
		}
		if !s.Settings.consonantSpan(iv.Span()) {
			passing := false
			if i+1 < n {
				in, err := melodic(s.CP[i-1], s.CP[i])
				if err != nil {
					return err
				}
				out, err := melodic(s.CP[i], s.CP[i+1])
				if err != nil {
					return err
				}
				passing = in != nil && out != nil &&
					in.IsSecond() && out.IsSecond() && in.Sign() == out.Sign()
			}
			if !passing {
				r.Add(i+1, WeakBeatDissonanceFound)
			}
		} else if isAltered(*iv) {
			r.Add(i+1, WeakBeatDissonanceFound)
		}
	}
	return nil
}

func strongBeatDissonance(s *State, r *Results) error {
	bad := func(iv *theory.Interval) bool {
		return iv != nil && (!s.Settings.consonantSpan(iv.Span()) || isAltered(*iv))
	}
	start := 0
	if s.Species == 2 && s.CPDur[0].Equal(s.Whole) {
		start = 1
		if bad(s.Intervals[0]) {
			r.Add(1, StrongBeatDissonanceFound)
		}
	}
	for i := start; i < s.Len(); i += s.Species {
		if bad(s.Intervals[i]) {
			r.Add(i+1, StrongBeatDissonanceFound)
		}
	}
	return nil
}

// consecParallels counts runs of harmonic intervals of one span, ignoring
// rests, and flags thirds and sixths past the limit.
func consecParallels(s *State, r *Results) error {
	run, span := 0, -1
	for i, iv := range s.Intervals {
		if iv == nil {
			continue
		}
		if iv.Span() == span {
			run++
		} else {
			run, span = 1, iv.Span()
		}
		if s.Settings.MaxParallel.Exceeded(run) && (span == theory.Third || span == theory.Sixth) {
			r.Add(i+1, ConsecutiveParallelsFound)
		}
	}
	return nil
}

// cadencePattern names the scale degree motion into the final: an ascending
// minor second is 7-1 and a descending major second is 2-1.
func cadencePattern(iv theory.Interval) ([2]int, bool) {
	switch {
	case iv.IsAscending() && iv.Compare(minorSecond) == 0:
		return [2]int{7, 1}, true
	case iv.IsDescending() && iv.Compare(majorSecond) == 0:
		return [2]int{2, 1}, true
	}
	return [2]int{}, false
}

// melodicCadence reports at the penultimate note.
func melodicCadence(s *State, r *Results) error {
	n := len(s.CP)
	pen, last := s.CP[n-2], s.CP[n-1]
	if pen == nil || last == nil || last.Pnum() != s.Tonic {
		r.Add(n-1, MissingCadenceFound)
		return nil
	}
	iv, err := theory.IntervalBetween(*pen, *last)
	if err != nil {
		return err
	}
	if p, ok := cadencePattern(iv); !ok || !slices.Contains(s.Settings.CadencePatterns, p) {
		r.Add(n-1, MissingCadenceFound)
	}
	return nil
}

// leadsTo reports whether transposing pn up by iv spells target.
func leadsTo(pn theory.Pnum, iv theory.Interval, target theory.Pnum) bool {
	t, err := iv.TransposePnum(pn)
	return err == nil && t == target
}

// nonDiatonicPitch allows a raised leading tone on the penultimate note and
// a raised sixth degree before it.
func nonDiatonicPitch(s *State, r *Results) error {
	n := len(s.CP)
	for i, p := range s.CP {
		if p == nil || s.Key.Contains(p.Pnum()) {
			continue
		}
		switch {
		case i == n-2 && leadsTo(p.Pnum(), minorSecond, s.Tonic):
		case i == n-3 && leadsTo(p.Pnum(), minorThird, s.Tonic):
		default:
			r.Add(i+1, NonDiatonicPitchFound)
		}
	}
	return nil
}

func dissonantMelodicInterval(s *State, r *Results) error {
	for i := 0; i < s.Len()-1; i++ {
		if s.CP[i] == nil {
			continue
		}
		cf, err := melodic(s.CF[i], s.CF[i+1])
		if err != nil {
			return err
		}
		cp, err := melodic(s.CP[i], s.CP[i+1])
		if err != nil {
			return err
		}
		if (cf != nil && isMelodicDissonance(*cf)) || (cp != nil && isMelodicDissonance(*cp)) {
			r.Add(i+1, DissonantMelodicIntervalFound)
		}
	}
	return nil
}

// leapCount counts matching melodic intervals of the counterpoint and flags
// each one past the limit. With deferToLarge a position already flagged as a
// large leap is not flagged again.
func leapCount(limit func(Settings) Limit, match func(theory.Interval) bool, c Category, deferToLarge bool) func(*State, *Results) error {
	return func(s *State, r *Results) error {
		lim := limit(s.Settings)
		count := 0
		for i := 0; i < len(s.CP)-1; i++ {
			iv, err := melodic(s.CP[i], s.CP[i+1])
			if err != nil {
				return err
			}
			if iv == nil || !match(*iv) {
				continue
			}
			count++
			if !lim.Exceeded(count) {
				continue
			}
			if deferToLarge && r.Has(i+1, LargeLeapsFound) {
				continue
			}
			r.Add(i+1, c)
		}
		return nil
	}
}

// maxConsecLeap counts leaps in each voice separately. Rests neither count
// nor reset the run.
func maxConsecLeap(s *State, r *Results) error {
	for _, v := range [][]*theory.Pitch{s.CF, s.CP} {
		run := 0
		for i := 0; i < len(v)-1; i++ {
			iv, err := melodic(v[i], v[i+1])
			if err != nil {
				return err
			}
			if iv == nil {
				continue
			}
			if !isLeap(*iv) {
				run = 0
				continue
			}
			run++
			if s.Settings.MaxConsecLeap.Exceeded(run) {
				r.Add(i+1, ConsecutiveLeapsFound)
			}
		}
	}
	return nil
}

// sameDirection walks the notes of v at the given stride and flags each
// position where the run of same signed motions passes the limit. The
// reported position is offset past the middle note.
func sameDirection(s *State, r *Results, v []*theory.Pitch, from, stride, report int, skipAfterRest bool) error {
	run := 1
	for i := from; i+stride < len(v); i += stride {
		if skipAfterRest && v[i-stride] == nil {
			continue
		}
		in, err := melodic(v[i-stride], v[i])
		if err != nil {
			return err
		}
		out, err := melodic(v[i], v[i+stride])
		if err != nil {
			return err
		}
		if in == nil || out == nil {
			continue
		}
		if in.Sign() != out.Sign() {
			run = 1
			continue
		}
		run++
		if s.Settings.MaxSameDir.Exceeded(run) {
			r.Add(i+report, SameDirectionFound)
		}
	}
	return nil
}

// maxSameDir checks both voices. In second species the cantus firmus is
// sampled at its own notes, every other timepoint.
func maxSameDir(s *State, r *Results) error {
	if s.Species == 1 {
		if err := sameDirection(s, r, s.CP, 1, 1, 1, false); err != nil {
			return err
		}
		return sameDirection(s, r, s.CF, 1, 1, 1, false)
	}
	if err := sameDirection(s, r, s.CP, 1, 1, 1, true); err != nil {
		return err
	}
	return sameDirection(s, r, s.CF, 2, 2, 2, false)
}

// stepRecovery requires a leap of StepThreshold or more to be followed by a
// step the other way. A leap into the last note cannot be recovered.
func stepRecovery(s *State, r *Results) error {
	threshold := s.Settings.StepThreshold - 1
	n := len(s.CP)
	for i := 0; i < n-1; i++ {
		iv, err := melodic(s.CP[i], s.CP[i+1])
		if err != nil {
			return err
		}
		if iv == nil || iv.Span() < threshold {
			continue
		}
		if i == n-2 {
			r.Add(i+1, StepRecoveryFound)
			continue
		}
		next, err := melodic(s.CP[i+1], s.CP[i+2])
		if err != nil {
			return err
		}
		if next == nil || !next.IsSecond() || next.Sign() == iv.Sign() {
			r.Add(i+1, StepRecoveryFound)
		}
	}
	return nil
}

// compoundInterval forbids melodic motion beyond an octave. In second species
// a counterpoint whole note may leap further and the cantus firmus is checked
// from note to note.
func compoundInterval(s *State, r *Results) error {
	n := s.Len()
	compound := func(a, b *theory.Pitch) (bool, error) {
		iv, err := melodic(a, b)
		return iv != nil && iv.IsCompound(), err
	}
	if s.Species == 1 {
		for i := 0; i < n-1; i++ {
			cf, err := compound(s.CF[i], s.CF[i+1])
			if err != nil {
				return err
			}
			cp, err := compound(s.CP[i], s.CP[i+1])
			if err != nil {
				return err
			}
			if cf || cp {
				r.Add(i+1, CompoundIntervalFound)
			}
		}
		return nil
	}
	for i := 0; i < n-2; i++ {
		cp, err := compound(s.CP[i], s.CP[i+1])
		if err != nil {
			return err
		}
		if cp && !s.CPDur[i].Equal(s.Whole) {
			r.Add(i+2, CompoundIntervalFound)
		}
		if i%2 == 0 {
			cf, err := compound(s.CF[i], s.CF[i+2])
			if err != nil {
				return err
			}
			if cf {
				r.Add(i+3, CompoundIntervalFound)
			}
		}
	}
	return nil
}
