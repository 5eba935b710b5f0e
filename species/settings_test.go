package species

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.False(t, AtMost(2).Exceeded(2))
	assert.True(t, AtMost(2).Exceeded(3))
	assert.True(t, AtMost(0).Exceeded(1))
	assert.False(t, Unbounded.Exceeded(1<<30))

	n, ok := AtMost(3).Max()
	assert.Equal(t, 3, n)
	assert.True(t, ok)
	_, ok = Unbounded.Max()
	assert.False(t, ok)

	var l Limit
	require.NoError(t, l.UnmarshalText([]byte("inf")))
	assert.True(t, l.IsUnbounded())
	require.NoError(t, l.UnmarshalText([]byte(" 4 ")))
	assert.Equal(t, AtMost(4), l)
	assert.ErrorIs(t, l.UnmarshalText([]byte("-1")), ErrInvalidSettings)
	assert.ErrorIs(t, l.UnmarshalText([]byte("many")), ErrInvalidSettings)
}

func TestSpeciesDefaults(t *testing.T) {
	s1 := Species1Settings()
	s2 := Species2Settings()

	assert.Equal(t, AtMost(1), s1.MaxUni)
	assert.Equal(t, AtMost(0), s2.MaxUni)
	assert.True(t, s2.Max4th.IsUnbounded())
	assert.True(t, s2.Max5th.IsUnbounded())
	assert.Equal(t, []int{1, 5}, s1.StartAbove)
	assert.Equal(t, []int{1, 3, 5}, s2.StartAbove)
	assert.Equal(t, s1.CadencePatterns, s2.CadencePatterns)
	require.NoError(t, s1.Validate())
	require.NoError(t, s2.Validate())

	_, err := DefaultSettings(4)
	assert.ErrorIs(t, err, ErrInvalidSpecies)
}

func TestLoadSettings(t *testing.T) {
	doc := `
MAX_4TH: inf
MAX_UNI: 3
START_ABOVE: [1, 3]
CADENCE_PATTERNS:
  - [7, 1]
`
	base := Species1Settings()
	s, err := LoadSettings(strings.NewReader(doc), base)
	require.NoError(t, err)
	assert.True(t, s.Max4th.IsUnbounded())
	assert.Equal(t, AtMost(3), s.MaxUni)
	assert.Equal(t, []int{1, 3}, s.StartAbove)
	assert.Equal(t, [][2]int{{7, 1}}, s.CadencePatterns)
	assert.Equal(t, base.Max5th, s.Max5th)
	assert.Equal(t, []int{1, 5}, base.StartAbove)

	s, err = LoadSettings(strings.NewReader(""), base)
	require.NoError(t, err)
	assert.Equal(t, base, s)

	_, err = LoadSettings(strings.NewReader("MAX_UNI: lots"), base)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = LoadSettings(strings.NewReader("START_ABOVE: [9]"), base)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestSettingsJSON(t *testing.T) {
	b, err := json.Marshal(Species2Settings())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"MAX_4TH":"inf"`)
	assert.Contains(t, string(b), `"MAX_UNI":0`)

	var s Settings
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, Species2Settings(), s)
}

func TestSettingsTable(t *testing.T) {
	table, err := LoadSettingsTable(strings.NewReader("MAX_LRG: 1\n"))
	require.NoError(t, err)

	s1, err := table.For(1)
	require.NoError(t, err)
	s2, err := table.For(2)
	require.NoError(t, err)
	assert.Equal(t, AtMost(1), s1.MaxLrg)
	assert.Equal(t, AtMost(1), s2.MaxLrg)
	assert.True(t, s2.Max4th.IsUnbounded())

	_, err = table.For(3)
	assert.ErrorIs(t, err, ErrInvalidSpecies)

	_, err = LoadSettingsTable(strings.NewReader("STEP_THRESHOLD: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidSettings)

	s, err := SettingsTable{}.For(2)
	require.NoError(t, err)
	assert.Equal(t, Species2Settings(), s)
}
