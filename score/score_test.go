package score

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mager/species/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(pitch, dur string) Note {
	d, err := theory.ParseRatio(dur)
	if err != nil {
		panic(err)
	}
	if pitch == "R" {
		return NewRest(d)
	}
	return NewNote(theory.MustPitch(pitch), d)
}

func twoPart(upper, lower []Note) *Score {
	k, _ := theory.NewKey(0, theory.Ionian)
	return &Score{
		Key: &k,
		Parts: []Part{
			{ID: "P1", Name: "CP", Notes: upper},
			{ID: "P2", Name: "CF", Notes: lower},
		},
	}
}

func TestTimepointsFirstSpecies(t *testing.T) {
	s := twoPart(
		[]Note{n("G4", "1"), n("A4", "1"), n("B4", "1")},
		[]Note{n("C4", "1"), n("D4", "1"), n("G3", "1")},
	)
	tps, err := Timepoints(s)
	require.NoError(t, err)
	require.Len(t, tps, 3)
	assert.Equal(t, "A4", tps[1].Upper.Pitch.String())
	assert.Equal(t, "D4", tps[1].Lower.Pitch.String())
	assert.Equal(t, theory.RatioFromInt(2), tps[2].Onset)
}

func TestTimepointsSecondSpecies(t *testing.T) {
	s := twoPart(
		[]Note{n("R", "1/2"), n("G4", "1/2"), n("A4", "1/2"), n("B4", "1/2"), n("C5", "1")},
		[]Note{n("C4", "1"), n("D4", "1"), n("C4", "1")},
	)
	tps, err := Timepoints(s)
	require.NoError(t, err)
	require.Len(t, tps, 5)

	assert.True(t, tps[0].Upper.IsRest())
	assert.Equal(t, "C4", tps[0].Lower.Pitch.String())
	// the held cantus note is reported in full at the offbeat
	assert.Equal(t, "C4", tps[1].Lower.Pitch.String())
	assert.Equal(t, theory.RatioFromInt(1), tps[1].Lower.Dur)
	assert.Equal(t, theory.MustRatio(1, 2), tps[1].Upper.Dur)
	assert.Equal(t, "D4", tps[3].Lower.Pitch.String())
	assert.Equal(t, theory.RatioFromInt(1), tps[4].Upper.Dur)
}

func TestTimepointsMalformed(t *testing.T) {
	s := twoPart([]Note{n("C5", "1")}, []Note{n("C4", "1"), n("D4", "1")})
	_, err := Timepoints(s)
	assert.ErrorIs(t, err, ErrMalformedScore)

	s = twoPart([]Note{n("C5", "1"), {Dur: theory.RatioFromInt(0)}}, []Note{n("C4", "1")})
	_, err = Timepoints(s)
	assert.ErrorIs(t, err, ErrMalformedScore)

	s.Parts = s.Parts[:1]
	_, err = Timepoints(s)
	assert.ErrorIs(t, err, ErrMalformedScore)
}

func TestCantusFirmusAbove(t *testing.T) {
	s := twoPart(nil, nil)
	assert.False(t, s.CantusFirmusAbove())
	s.Parts[0].Name = "cantus firmus"
	assert.True(t, s.CantusFirmusAbove())
	s.Parts[0].Name = "CF"
	assert.True(t, s.CantusFirmusAbove())
}

const yamlDoc = `
title: Exercise 1
key: {signum: 1, mode: major}
parts:
  - id: P1
    name: Counterpoint
    notes:
      - {pitch: D5, dur: 1}
      - {pitch: C5, dur: 1/1}
  - id: P2
    name: CF
    notes:
      - {pitch: G3, dur: "1"}
      - {dur: 1/2}
      - {pitch: Fs3, dur: 1/2}
`

func TestDecodeYAML(t *testing.T) {
	s, err := Decode(strings.NewReader(yamlDoc), FormatYAML, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Exercise 1", s.Title)
	require.NotNil(t, s.Key)
	assert.Equal(t, "G-Ionian", s.Key.String())
	assert.Equal(t, theory.CommonTime, s.EffectiveMeter())
	require.Len(t, s.Parts, 2)
	assert.True(t, s.Parts[1].Notes[1].IsRest())
	assert.Equal(t, "F#3", s.Parts[1].Notes[2].Pitch.String())
}

func TestDecodeJSONRejectsBadDocuments(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"parts":[{"id":"","notes":[]}]}`), FormatJSON, DecodeOptions{})
	assert.ErrorIs(t, err, ErrMalformedScore)

	_, err = Decode(strings.NewReader(`{"parts":[{"id":"P1","notes":[{"pitch":"C4","dur":"-1/2"}]}]}`), FormatJSON, DecodeOptions{})
	assert.ErrorIs(t, err, ErrMalformedScore)

	_, err = Decode(strings.NewReader(`{"parts":[{"id":"P1","notes":[{"pitch":"H4","dur":"1"}]}]}`), FormatJSON, DecodeOptions{})
	assert.ErrorIs(t, err, theory.ErrInvalidPitch)

	_, err = Decode(strings.NewReader(`{}`), Format("abc"), DecodeOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncodeJSONThenDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(yamlDoc), FormatYAML, DecodeOptions{})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, Encode(&buf, s, FormatJSON))
	assert.Contains(t, buf.String(), `"dur": "1/2"`)

	back, err := Decode(strings.NewReader(buf.String()), FormatJSON, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, s.Parts, back.Parts)
}

func TestFormats(t *testing.T) {
	f, err := FormatForPath("ex/1-018-C.musicxml")
	require.NoError(t, err)
	assert.Equal(t, FormatMusicXML, f)

	f, err = FormatForContentType("application/yaml; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = FormatForContentType("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

const musicXMLDoc = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Species One</work-title></work>
  <part-list>
    <score-part id="P1"><part-name>CP</part-name></score-part>
    <score-part id="P2"><part-name>CF</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <key><fifths>-1</fifths><mode>minor</mode></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
      </attributes>
      <note><rest/><duration>4</duration></note>
      <note><pitch><step>A</step><octave>4</octave></pitch><duration>4</duration><tie type="start"/></note>
    </measure>
    <measure number="2">
      <note><pitch><step>A</step><octave>4</octave></pitch><duration>4</duration><tie type="stop"/></note>
      <note><pitch><step>B</step><alter>-1</alter><octave>4</octave></pitch><duration>4</duration></note>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><pitch><step>D</step><octave>4</octave></pitch><duration>4</duration></note>
    </measure>
    <measure number="2">
      <note><pitch><step>C</step><alter>1</alter><octave>4</octave></pitch><duration>4</duration></note>
      <note><chord/><pitch><step>E</step><octave>4</octave></pitch><duration>4</duration></note>
    </measure>
  </part>
</score-partwise>`

func TestReadMusicXML(t *testing.T) {
	s, err := Decode(strings.NewReader(musicXMLDoc), FormatMusicXML, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Species One", s.Title)
	require.NotNil(t, s.Key)
	assert.Equal(t, "D-Aeolian", s.Key.String())
	assert.Equal(t, "4/4", s.Meter.String())

	require.Len(t, s.Parts, 2)
	assert.Equal(t, "CF", s.Parts[1].Name)
	up := s.Parts[0].Notes
	require.Len(t, up, 3)
	assert.True(t, up[0].IsRest())
	assert.Equal(t, theory.MustRatio(1, 2), up[0].Dur)
	assert.Equal(t, theory.RatioFromInt(1), up[1].Dur)
	assert.Equal(t, "Bb4", up[2].Pitch.String())

	low := s.Parts[1].Notes
	require.Len(t, low, 2)
	assert.Equal(t, "C#4", low[1].Pitch.String())

	tps, err := Timepoints(s)
	require.NoError(t, err)
	assert.Len(t, tps, 4)
}

func TestMIDIRoundTrip(t *testing.T) {
	k, err := theory.NewKey(-1, theory.Ionian)
	require.NoError(t, err)
	s := &Score{
		Key: &k,
		Parts: []Part{
			{ID: "P1", Name: "CF", Notes: []Note{n("F4", "1"), n("Bb4", "1"), n("A4", "1")}},
			{ID: "P2", Name: "CP", Notes: []Note{n("R", "1/2"), n("D3", "1/2"), n("G3", "1"), n("F3", "1")}},
		},
	}
	path := filepath.Join(t.TempDir(), "exercise.mid")
	require.NoError(t, WriteMIDI(path, s, 90))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	back, err := ReadMIDI(f, DecodeOptions{Key: &k, CantusFirmusAbove: true})
	require.NoError(t, err)
	require.Len(t, back.Parts, 2)
	assert.Equal(t, "CF", back.Parts[0].Name)
	assert.Equal(t, s.Parts[0].Notes, back.Parts[0].Notes)
	assert.Equal(t, s.Parts[1].Notes, back.Parts[1].Notes)
	assert.Equal(t, "Bb4", back.Parts[0].Notes[1].Pitch.String())
}

func TestMIDIExportCMajor(t *testing.T) {
	k, err := theory.NewKey(0, theory.Ionian)
	require.NoError(t, err)
	s := &Score{
		Key: &k,
		Parts: []Part{
			{ID: "P1", Name: "CF", Notes: []Note{n("C4", "1"), n("D4", "1"), n("E4", "1"), n("D4", "1"), n("C4", "1")}},
			{ID: "P2", Name: "CP", Notes: []Note{n("G4", "1"), n("F4", "1"), n("C5", "1"), n("B4", "1"), n("C5", "1")}},
		},
	}
	path := filepath.Join(t.TempDir(), "c-major.mid")
	require.NoError(t, WriteMIDI(path, s, 120))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(b[:4]))

	back, err := ReadMIDI(strings.NewReader(string(b)), DecodeOptions{Key: &k, CantusFirmusAbove: false})
	require.NoError(t, err)
	require.Len(t, back.Parts, 2)
	// the higher voice comes back first
	assert.Equal(t, "CP", back.Parts[0].Name)
	assert.Equal(t, "CF", back.Parts[1].Name)
	assert.Equal(t, s.Parts[1].Notes, back.Parts[0].Notes)
	assert.Equal(t, s.Parts[0].Notes, back.Parts[1].Notes)

	_, err = ReadMIDI(strings.NewReader("not a midi file"), DecodeOptions{Key: &k})
	assert.ErrorIs(t, err, ErrMalformedScore)
}

func TestDurToTicks(t *testing.T) {
	ticks, err := durToTicks(theory.MustRatio(1, 4))
	require.NoError(t, err)
	assert.Equal(t, uint32(TicksPerQuarter), ticks)

	_, err = durToTicks(theory.MustRatio(1, 7))
	assert.ErrorIs(t, err, ErrMalformedScore)
}
