package score

import (
	"fmt"
	"slices"

	"github.com/mager/species/theory"
)

// Timepoint is one simultaneity of the two parts: the note or rest sounding
// in each voice at Onset. The notes are the full notes, not the remainder
// still sounding.
type Timepoint struct {
	Onset theory.Ratio
	Upper Note
	Lower Note
}

type span struct {
	start theory.Ratio
	note  Note
}

func spans(p Part) ([]span, theory.Ratio, error) {
	out := make([]span, 0, len(p.Notes))
	at := theory.RatioFromInt(0)
	for i, n := range p.Notes {
		if n.Dur.Sign() <= 0 {
			return nil, at, fmt.Errorf("%w: part %s note %d has duration %s", ErrMalformedScore, p.ID, i+1, n.Dur)
		}
		out = append(out, span{start: at, note: n})
		at = at.Add(n.Dur)
	}
	return out, at, nil
}

// Timepoints aligns the two parts into one entry per distinct onset.
func Timepoints(s *Score) ([]Timepoint, error) {
	if len(s.Parts) != 2 {
		return nil, fmt.Errorf("%w: need 2 parts, got %d", ErrMalformedScore, len(s.Parts))
	}
	upper, upperLen, err := spans(s.Parts[0])
	if err != nil {
		return nil, err
	}
	lower, lowerLen, err := spans(s.Parts[1])
	if err != nil {
		return nil, err
	}
	if !upperLen.Equal(lowerLen) {
		return nil, fmt.Errorf("%w: part %s lasts %s but part %s lasts %s",
			ErrMalformedScore, s.Parts[0].ID, upperLen, s.Parts[1].ID, lowerLen)
	}

	onsets := make([]theory.Ratio, 0, len(upper)+len(lower))
	for _, sp := range upper {
		onsets = append(onsets, sp.start)
	}
	for _, sp := range lower {
		onsets = append(onsets, sp.start)
	}
	slices.SortFunc(onsets, theory.Ratio.Compare)
	onsets = slices.CompactFunc(onsets, theory.Ratio.Equal)

	tps := make([]Timepoint, 0, len(onsets))
	ui, li := 0, 0
	for _, at := range onsets {
		for ui+1 < len(upper) && !at.Less(upper[ui+1].start) {
			ui++
		}
		for li+1 < len(lower) && !at.Less(lower[li+1].start) {
			li++
		}
		tps = append(tps, Timepoint{Onset: at, Upper: upper[ui].note, Lower: lower[li].note})
	}
	return tps, nil
}
