package score

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/mager/species/theory"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/midi/midimessage/channel"
	"gitlab.com/gomidi/midi/reader"
	"gitlab.com/gomidi/midi/smf"
	"gitlab.com/gomidi/midi/smf/smfwriter"
	"gitlab.com/gomidi/midi/writer"
)

// TicksPerQuarter is the resolution of exported MIDI files.
const TicksPerQuarter = 960

const defaultVelocity = 80

// WriteMIDI exports the score as a format 1 SMF with one track per part.
func WriteMIDI(path string, s *Score, bpm float64) error {
	if bpm <= 0 {
		bpm = 60
	}
	err := writer.WriteSMF(path, uint16(len(s.Parts)), func(wr *writer.SMF) error {
		return writeTracks(wr, s, bpm)
	}, smfwriter.TimeFormat(smf.MetricTicks(TicksPerQuarter)))
	if errors.Is(err, smf.ErrFinished) {
		return nil
	}
	return err
}

func writeTracks(wr *writer.SMF, s *Score, bpm float64) error {
	for i, p := range s.Parts {
		wr.SetChannel(uint8(i))
		if i == 0 {
			if err := writer.TempoBPM(wr, bpm); err != nil {
				return err
			}
			m := s.EffectiveMeter()
			if err := writer.Meter(wr, uint8(m.Num), uint8(m.Den)); err != nil {
				return err
			}
		}
		if name := p.Name; name != "" {
			if err := writer.TrackSequenceName(wr, name); err != nil {
				return err
			}
		}
		var pending uint32
		for _, n := range p.Notes {
			ticks, err := durToTicks(n.Dur)
			if err != nil {
				return fmt.Errorf("part %s: %w", p.ID, err)
			}
			if n.IsRest() {
				pending += ticks
				continue
			}
			key := uint8(n.Pitch.Keynum())
			wr.SetDelta(pending)
			if err := writer.NoteOn(wr, key, defaultVelocity); err != nil {
				return err
			}
			wr.SetDelta(ticks)
			if err := writer.NoteOff(wr, key); err != nil {
				return err
			}
			pending = 0
		}
		wr.SetDelta(pending)
		// the last track reports smf.ErrFinished
		if err := writer.EndOfTrack(wr); err != nil && !errors.Is(err, smf.ErrFinished) {
			return err
		}
	}
	return nil
}

// durToTicks converts a fraction of a whole note to ticks.
func durToTicks(dur theory.Ratio) (uint32, error) {
	t := dur.MulInt(4 * TicksPerQuarter)
	if t.Den() != 1 || t.Num() <= 0 {
		return 0, fmt.Errorf("%w: duration %s is not a whole number of ticks", ErrMalformedScore, dur)
	}
	return uint32(t.Num()), nil
}

type midiNote struct {
	key        uint8
	start, end uint64
}

// ReadMIDI imports a two voice SMF. Notes are grouped by track, or by
// channel when the file has a single track. The higher sounding group
// becomes the upper part. Gaps become rests and pitches are spelled in
// opts.Key when one is given.
func ReadMIDI(r io.Reader, opts DecodeOptions) (*Score, error) {
	type voiceID struct {
		track int16
		ch    uint8
	}
	open := map[voiceID]map[uint8]uint64{}
	notes := map[voiceID][]midiNote{}
	var tracks = map[int16]bool{}

	noteOff := func(v voiceID, key uint8, at uint64) {
		if start, ok := open[v][key]; ok {
			notes[v] = append(notes[v], midiNote{key: key, start: start, end: at})
			delete(open[v], key)
		}
	}

	rd := reader.New(reader.NoLogger(), reader.Each(func(pos *reader.Position, msg midi.Message) {
		if pos == nil {
			return
		}
		tracks[pos.Track] = true
		switch m := msg.(type) {
		case channel.NoteOn:
			v := voiceID{track: pos.Track, ch: m.Channel()}
			if m.Velocity() == 0 {
				noteOff(v, m.Key(), pos.AbsoluteTicks)
				return
			}
			if open[v] == nil {
				open[v] = map[uint8]uint64{}
			}
			open[v][m.Key()] = pos.AbsoluteTicks
		case channel.NoteOff:
			noteOff(voiceID{track: pos.Track, ch: m.Channel()}, m.Key(), pos.AbsoluteTicks)
		case channel.NoteOffVelocity:
			noteOff(voiceID{track: pos.Track, ch: m.Channel()}, m.Key(), pos.AbsoluteTicks)
		}
	}))
	if err := reader.ReadSMF(rd, r); err != nil && !errors.Is(err, smf.ErrFinished) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScore, err)
	}

	tpq := uint64(TicksPerQuarter)
	if mt, ok := rd.Header().TimeFormat.(smf.MetricTicks); ok && mt > 0 {
		tpq = uint64(mt)
	}

	// merge channels within a track unless everything is on one track
	groups := map[voiceID][]midiNote{}
	for v, ns := range notes {
		if len(tracks) > 1 {
			v.ch = 0
		} else {
			v.track = 0
		}
		groups[v] = append(groups[v], ns...)
	}
	if len(groups) != 2 {
		return nil, fmt.Errorf("%w: expected 2 voices in MIDI file, found %d", ErrMalformedScore, len(groups))
	}

	voices := make([][]midiNote, 0, 2)
	for _, ns := range groups {
		slices.SortFunc(ns, func(a, b midiNote) int { return int(a.start) - int(b.start) })
		voices = append(voices, ns)
	}
	if meanKey(voices[0]) < meanKey(voices[1]) {
		voices[0], voices[1] = voices[1], voices[0]
	}

	var end uint64
	for _, v := range voices {
		end = max(end, v[len(v)-1].end)
	}

	s := &Score{Key: opts.Key}
	for i, v := range voices {
		p, err := midiPart(v, end, tpq, opts.Key)
		if err != nil {
			return nil, err
		}
		p.ID = fmt.Sprintf("P%d", i+1)
		s.Parts = append(s.Parts, p)
	}
	if opts.CantusFirmusAbove {
		s.Parts[0].Name, s.Parts[1].Name = "CF", "CP"
	} else {
		s.Parts[0].Name, s.Parts[1].Name = "CP", "CF"
	}
	return s, nil
}

func meanKey(ns []midiNote) float64 {
	var sum float64
	for _, n := range ns {
		sum += float64(n.key)
	}
	return sum / float64(len(ns))
}

func midiPart(ns []midiNote, end, tpq uint64, key *theory.Key) (Part, error) {
	whole := int64(4 * tpq)
	var p Part
	var at uint64
	for _, n := range ns {
		if n.start < at {
			return Part{}, fmt.Errorf("%w: overlapping notes at tick %d", ErrMalformedScore, n.start)
		}
		if n.start > at {
			p.Notes = append(p.Notes, NewRest(theory.MustRatio(int64(n.start-at), whole)))
		}
		pitch, err := spell(int(n.key), key)
		if err != nil {
			return Part{}, err
		}
		p.Notes = append(p.Notes, NewNote(pitch, theory.MustRatio(int64(n.end-n.start), whole)))
		at = n.end
	}
	if end > at {
		p.Notes = append(p.Notes, NewRest(theory.MustRatio(int64(end-at), whole)))
	}
	return p, nil
}

// spell prefers the key's diatonic spelling of keynum.
func spell(keynum int, key *theory.Key) (theory.Pitch, error) {
	if key != nil {
		for _, pn := range key.Scale() {
			if pn.PitchClass() != keynum%12 {
				continue
			}
			if p, err := theory.PitchFromKeynumSpelled(keynum, pn.Accidental); err == nil && p.Letter() == pn.Letter {
				return p, nil
			}
		}
	}
	return theory.PitchFromKeynum(keynum)
}
