package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mager/species/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	findings := []species.Finding{
		{Index: 1, Category: species.StartingPitchFound},
		{Index: 3, Category: species.ConsecutiveFifthsFound},
		{Index: 5, Category: species.ConsecutiveFifthsFound},
	}
	r := New("ada", "exercise 4", 1, findings)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.False(t, r.Clean())
	assert.Equal(t, []string{
		"At #1: forbidden starting pitch",
		"At #3: consecutive fifths",
		"At #5: consecutive fifths",
	}, r.Findings)
	assert.Equal(t, []int{3, 5}, r.Violations["consecutive fifths"])
	assert.False(t, r.Created.IsZero())
}

func TestFromFindings(t *testing.T) {
	r := &Report{Findings: []string{"At #2: voice crossing", "At #7: voice crossing"}}
	require.NoError(t, FromFindings(r))
	assert.Equal(t, map[string][]int{"voice crossing": {2, 7}}, r.Violations)

	r.Findings = []string{"bogus"}
	assert.Error(t, FromFindings(r))
}

func TestCleanReport(t *testing.T) {
	r := New("", "", 2, nil)
	assert.True(t, r.Clean())
	assert.NotNil(t, r.Findings)
}
