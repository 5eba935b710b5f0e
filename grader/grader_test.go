package grader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mager/species/logger"
	"github.com/mager/species/metrics"
	"github.com/mager/species/report"
	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const badStart = `{
  "title": "exercise 1",
  "key": {"signum": 0, "mode": "major"},
  "parts": [
    {"id": "P1", "name": "Counterpoint", "notes": [
      {"pitch": "E4", "dur": "1"}, {"pitch": "F4", "dur": "1"}, {"pitch": "A4", "dur": "1"},
      {"pitch": "C5", "dur": "1"}, {"pitch": "B4", "dur": "1"}, {"pitch": "C5", "dur": "1"}]},
    {"id": "P2", "name": "Cantus Firmus", "notes": [
      {"pitch": "C4", "dur": "1"}, {"pitch": "D4", "dur": "1"}, {"pitch": "F4", "dur": "1"},
      {"pitch": "E4", "dur": "1"}, {"pitch": "D4", "dur": "1"}, {"pitch": "C4", "dur": "1"}]}
  ]
}`

type memStore struct {
	saved map[uuid.UUID]*report.Report
	err   error
}

func (m *memStore) Save(_ context.Context, rep *report.Report) error {
	if m.err != nil {
		return m.err
	}
	m.saved[rep.ID] = rep
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*report.Report, error) {
	rep, ok := m.saved[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rep, nil
}

type failingArchive struct{ calls int }

func (f *failingArchive) Put(context.Context, *report.Report) error {
	f.calls++
	return errors.New("unavailable")
}

func decode(t *testing.T, doc string) *score.Score {
	t.Helper()
	sc, err := score.Decode(strings.NewReader(doc), score.FormatJSON, score.DecodeOptions{})
	require.NoError(t, err)
	return sc
}

func TestGradeStoresReport(t *testing.T) {
	log, logs := logger.NewTestLogger()
	store := &memStore{saved: map[uuid.UUID]*report.Report{}}
	archive := &failingArchive{}
	m := metrics.New(prometheus.NewRegistry())
	g := New(log, nil, m, store, archive)

	var seen []string
	rep, err := g.Grade(context.Background(), "ada", decode(t, badStart), 1, func(r species.Rule, f []species.Finding) {
		seen = append(seen, r.Name)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"At #1: forbidden starting pitch"}, rep.Findings)
	assert.Equal(t, "ada", rep.Student)
	assert.Equal(t, "exercise 1", rep.Title)
	assert.Len(t, seen, len(species.Catalog()))

	got, err := g.Get(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Same(t, rep, got)

	assert.Equal(t, 1, archive.calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to archive report").Len())
	assert.Equal(t, 1, logs.FilterMessage("Graded score").Len())
}

func TestGradeWithoutStore(t *testing.T) {
	log, _ := logger.NewTestLogger()
	g := ProvideGrader(log, species.DefaultSettingsTable(), nil, nil, nil)

	rep, err := g.Grade(context.Background(), "", decode(t, badStart), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Species)

	_, err = g.Get(context.Background(), rep.ID)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestGradeErrors(t *testing.T) {
	log, _ := logger.NewTestLogger()
	store := &memStore{saved: map[uuid.UUID]*report.Report{}, err: errors.New("disk full")}
	g := New(log, nil, nil, store, nil)

	_, err := g.Grade(context.Background(), "", decode(t, badStart), 3)
	assert.ErrorIs(t, err, species.ErrInvalidSpecies)

	_, err = g.Grade(context.Background(), "", decode(t, badStart), 1)
	assert.ErrorContains(t, err, "disk full")

	sc := decode(t, badStart)
	sc.Key = nil
	_, err = g.Grade(context.Background(), "", sc, 1)
	assert.ErrorIs(t, err, species.ErrMissingKey)
}

func TestGradeUsesSettingsTable(t *testing.T) {
	log, _ := logger.NewTestLogger()
	table, err := species.LoadSettingsTable(strings.NewReader("START_ABOVE: [1, 3, 5]\n"))
	require.NoError(t, err)
	g := New(log, table, nil, nil, nil)

	rep, err := g.Grade(context.Background(), "", decode(t, badStart), 1)
	require.NoError(t, err)
	assert.True(t, rep.Clean())
}
