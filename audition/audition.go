// Package audition plays a score through a MIDI output port.
package audition

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mager/species/score"
	"github.com/mager/species/theory"
	"gitlab.com/gomidi/midi/writer"
	driver "gitlab.com/gomidi/rtmididrv"
)

const velocity = 80

// Event switches one note on or off at a point in the score.
type Event struct {
	At      theory.Ratio
	Channel uint8
	Key     uint8
	On      bool
}

// Schedule lists the note events of every part in time order. At equal
// times note offs come first so repeated pitches retrigger.
func Schedule(sc *score.Score) []Event {
	var events []Event
	for i, p := range sc.Parts {
		t := theory.RatioFromInt(0)
		for _, n := range p.Notes {
			end := t.Add(n.Dur)
			if !n.IsRest() {
				key := uint8(n.Pitch.Keynum())
				events = append(events,
					Event{At: t, Channel: uint8(i), Key: key, On: true},
					Event{At: end, Channel: uint8(i), Key: key},
				)
			}
			t = end
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].At.Compare(events[j].At); c != 0 {
			return c < 0
		}
		return !events[i].On && events[j].On
	})
	return events
}

// Player sends scheduled events to a MIDI writer in real time.
type Player struct {
	wr    *writer.Writer
	bpm   int
	sleep func(context.Context, time.Duration) error
}

func NewPlayer(out io.Writer, bpm int) *Player {
	if bpm <= 0 {
		bpm = 60
	}
	return &Player{wr: writer.New(out), bpm: bpm, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play blocks until the score has sounded or ctx is done. Sounding notes
// are released on cancellation.
func (p *Player) Play(ctx context.Context, sc *score.Score) error {
	tempo := theory.RatioFromInt(int64(p.bpm))
	quarter := theory.MustRatio(1, 4)
	sounding := map[[2]uint8]bool{}
	defer func() {
		for k := range sounding {
			p.wr.SetChannel(k[0])
			writer.NoteOff(p.wr, k[1])
		}
	}()

	now := theory.RatioFromInt(0)
	for _, ev := range Schedule(sc) {
		if ev.At.Compare(now) > 0 {
			secs, err := ev.At.Sub(now).Seconds(tempo, quarter)
			if err != nil {
				return err
			}
			if err := p.sleep(ctx, time.Duration(secs*float64(time.Second))); err != nil {
				return err
			}
			now = ev.At
		}
		p.wr.SetChannel(ev.Channel)
		k := [2]uint8{ev.Channel, ev.Key}
		var err error
		if ev.On {
			err = writer.NoteOn(p.wr, ev.Key, velocity)
			sounding[k] = true
		} else {
			err = writer.NoteOff(p.wr, ev.Key)
			delete(sounding, k)
		}
		if err != nil {
			return fmt.Errorf("sending note %d: %w", ev.Key, err)
		}
	}
	return nil
}

// Port is an open MIDI output.
type Port struct {
	drv   *driver.Driver
	close func() error
	Name  string
	io.Writer
}

func (p *Port) Close() error {
	err := p.close()
	p.drv.Close()
	return err
}

// OpenPort opens output port n of the system MIDI driver.
func OpenPort(n int) (*Port, error) {
	drv, err := driver.New()
	if err != nil {
		return nil, err
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, err
	}
	if n < 0 || n >= len(outs) {
		drv.Close()
		return nil, fmt.Errorf("MIDI output port index %d out of range [0, %d)", n, len(outs))
	}
	out := outs[n]
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, err
	}
	return &Port{drv: drv, close: out.Close, Name: out.String(), Writer: out}, nil
}

// Ports lists the output port names.
func Ports() ([]string, error) {
	drv, err := driver.New()
	if err != nil {
		return nil, err
	}
	defer drv.Close()
	outs, err := drv.Outs()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	return names, nil
}
