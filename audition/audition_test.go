package audition

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/mager/species/score"
	"github.com/mager/species/theory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(t *testing.T, name string, dur theory.Ratio) score.Note {
	t.Helper()
	p, err := theory.ParsePitch(name)
	require.NoError(t, err)
	return score.NewNote(p, dur)
}

func twoParts(t *testing.T) *score.Score {
	half, whole := theory.MustRatio(1, 2), theory.RatioFromInt(1)
	return &score.Score{Parts: []score.Part{
		{ID: "P1", Notes: []score.Note{note(t, "C5", half), note(t, "C5", half)}},
		{ID: "P2", Notes: []score.Note{note(t, "C4", whole), score.NewRest(half)}},
	}}
}

func TestSchedule(t *testing.T) {
	events := Schedule(twoParts(t))
	require.Len(t, events, 6)

	half, whole := theory.MustRatio(1, 2), theory.RatioFromInt(1)
	want := []Event{
		{At: theory.RatioFromInt(0), Channel: 0, Key: 72, On: true},
		{At: theory.RatioFromInt(0), Channel: 1, Key: 60, On: true},
		{At: half, Channel: 0, Key: 72},
		{At: half, Channel: 0, Key: 72, On: true},
		{At: whole, Channel: 0, Key: 72},
		{At: whole, Channel: 1, Key: 60},
	}
	for i, ev := range events {
		assert.True(t, want[i].At.Equal(ev.At), "event %d at %s", i, ev.At)
		assert.Equal(t, want[i].Channel, ev.Channel, "event %d", i)
		assert.Equal(t, want[i].Key, ev.Key, "event %d", i)
		assert.Equal(t, want[i].On, ev.On, "event %d", i)
	}
}

func TestPlayTiming(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf, 60)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, p.Play(context.Background(), twoParts(t)))
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
	assert.True(t, bytes.Contains(buf.Bytes(), []byte{0x90, 72, velocity}))
}

func TestPlayCancelled(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlayer(&buf, 120)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	err := p.Play(context.Background(), twoParts(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotZero(t, buf.Len())
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))
}
