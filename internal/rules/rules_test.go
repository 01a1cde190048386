package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	rs, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, rs.Channels)
	assert.NotEmpty(t, rs.Search.Queries)
	assert.Equal(t, 25, rs.Search.MaxResultsPerQuery)
	assert.Empty(t, rs.Megathreads)
}

func TestLoadOverridesSearchAndMegathreads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
search:
  queries:
    - hedgehog diet
  max_results_per_query: 10
megathreads:
  - channel: Rabbits
    post_id: abc123
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"hedgehog diet"}, rs.Search.Queries)
	assert.Equal(t, 10, rs.Search.MaxResultsPerQuery)
	require.Len(t, rs.Megathreads, 1)
	assert.Equal(t, "Rabbits", rs.Megathreads[0].Channel)
	assert.Equal(t, "abc123", rs.Megathreads[0].PostID)

	// untouched sections keep their defaults
	assert.Equal(t, 0.6, rs.Scoring.MinThreshold)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
