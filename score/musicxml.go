package score

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/mager/species/theory"
)

type xmlScore struct {
	XMLName  xml.Name       `xml:"score-partwise"`
	Title    string         `xml:"work>work-title"`
	Movement string         `xml:"movement-title"`
	PartList []xmlScorePart `xml:"part-list>score-part"`
	Parts    []xmlPart      `xml:"part"`
}

type xmlScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Attributes []xmlAttributes `xml:"attributes"`
	Notes      []xmlNote       `xml:"note"`
}

type xmlAttributes struct {
	Divisions int `xml:"divisions"`
	Key       *struct {
		Fifths int    `xml:"fifths"`
		Mode   string `xml:"mode"`
	} `xml:"key"`
	Time *struct {
		Beats    int `xml:"beats"`
		BeatType int `xml:"beat-type"`
	} `xml:"time"`
}

type xmlNote struct {
	Chord    *struct{} `xml:"chord"`
	Grace    *struct{} `xml:"grace"`
	Rest     *struct{} `xml:"rest"`
	Pitch    *xmlPitch `xml:"pitch"`
	Duration int       `xml:"duration"`
	Ties     []struct {
		Type string `xml:"type,attr"`
	} `xml:"tie"`
}

type xmlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

func (n xmlNote) tiedFromPrevious() bool {
	for _, t := range n.Ties {
		if t.Type == "stop" {
			return true
		}
	}
	return false
}

// ReadMusicXML imports a partwise MusicXML document. Key and meter come from
// the first measure's attributes, tied notes are merged and chords keep only
// their first note.
func ReadMusicXML(r io.Reader) (*Score, error) {
	var doc xmlScore
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScore, err)
	}
	names := map[string]string{}
	for _, sp := range doc.PartList {
		names[sp.ID] = sp.Name
	}
	s := &Score{Title: doc.Title}
	if s.Title == "" {
		s.Title = doc.Movement
	}
	for _, xp := range doc.Parts {
		p, err := readXMLPart(xp, s)
		if err != nil {
			return nil, err
		}
		p.Name = strings.TrimSpace(names[xp.ID])
		s.Parts = append(s.Parts, p)
	}
	return s, nil
}

func readXMLPart(xp xmlPart, s *Score) (Part, error) {
	p := Part{ID: xp.ID}
	divisions := 1
	for mi, m := range xp.Measures {
		for _, a := range m.Attributes {
			if a.Divisions > 0 {
				divisions = a.Divisions
			}
			if a.Key != nil && s.Key == nil {
				mode := a.Key.Mode
				if mode == "" {
					mode = "major"
				}
				k, err := theory.NewKeyNamed(a.Key.Fifths, mode)
				if err != nil {
					return Part{}, fmt.Errorf("%w: part %s measure %d: %v", ErrMalformedScore, xp.ID, mi+1, err)
				}
				s.Key = &k
			}
			if a.Time != nil && s.Meter == (theory.Meter{}) {
				mt, err := theory.NewMeter(a.Time.Beats, a.Time.BeatType)
				if err != nil {
					return Part{}, fmt.Errorf("%w: part %s measure %d: %v", ErrMalformedScore, xp.ID, mi+1, err)
				}
				s.Meter = mt
			}
		}
		for _, xn := range m.Notes {
			if xn.Chord != nil || xn.Grace != nil {
				continue
			}
			if xn.Duration <= 0 {
				return Part{}, fmt.Errorf("%w: part %s measure %d has a note without duration", ErrMalformedScore, xp.ID, mi+1)
			}
			dur := theory.MustRatio(int64(xn.Duration), int64(4*divisions))
			if xn.tiedFromPrevious() && len(p.Notes) > 0 {
				last := &p.Notes[len(p.Notes)-1]
				last.Dur = last.Dur.Add(dur)
				continue
			}
			if xn.Rest != nil || xn.Pitch == nil {
				p.Notes = append(p.Notes, NewRest(dur))
				continue
			}
			pitch, err := xn.Pitch.toPitch()
			if err != nil {
				return Part{}, fmt.Errorf("%w: part %s measure %d: %v", ErrMalformedScore, xp.ID, mi+1, err)
			}
			p.Notes = append(p.Notes, NewNote(pitch, dur))
		}
	}
	return p, nil
}

func (xp *xmlPitch) toPitch() (theory.Pitch, error) {
	letter := strings.Index("CDEFGAB", strings.ToUpper(xp.Step))
	if len(xp.Step) != 1 || letter < 0 {
		return theory.Pitch{}, fmt.Errorf("%w: step %q", theory.ErrInvalidPitch, xp.Step)
	}
	alter := int(xp.Alter)
	if float64(alter) != xp.Alter || alter < -2 || alter > 2 {
		return theory.Pitch{}, fmt.Errorf("%w: alter %v", theory.ErrInvalidPitch, xp.Alter)
	}
	return theory.NewPitch(theory.Letter(letter), theory.Accidental(alter+int(theory.Natural)), xp.Octave+1)
}
