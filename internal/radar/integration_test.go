package radar

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/export"
	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/seenset"
	"github.com/paws-and-plates/lead-radar/internal/sources"
	"github.com/paws-and-plates/lead-radar/internal/storage"
)

// capturingNotifier records digests instead of sending them
type capturingNotifier struct {
	digests []*models.Snapshot
}

func (c *capturingNotifier) SendDigest(snapshot *models.Snapshot) error {
	c.digests = append(c.digests, snapshot)
	return nil
}

// TestFullPipeline wires the real store, seen set, exporter, and a
// capturing notifier behind fake sources and runs a complete cycle.
func TestFullPipeline(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	seen, err := seenset.Load(filepath.Join(dir, "seen.json"), 100)
	require.NoError(t, err)

	rs := testRules()
	queuePath := filepath.Join(dir, "lead_queue.json")
	exporter := export.NewExporter(store, rs, queuePath, 50)
	notifier := &capturingNotifier{}

	src := &fakeSource{
		posts: map[string][]models.Item{
			"reptiles": {
				{
					ID:        "p1",
					Channel:   "reptiles",
					Author:    "worried_owner",
					Title:     "What should I feed my bearded dragon",
					CreatedAt: time.Now().UTC(),
					URL:       "https://reddit.com/r/reptiles/p1",
				},
				{
					ID:        "p2",
					Channel:   "reptiles",
					Author:    "casual",
					Title:     "Look at my cool terrarium build",
					CreatedAt: time.Now().UTC(),
				},
			},
		},
	}

	cfg := &config.Config{PollInterval: time.Minute, RequestsPerMin: 6000}
	service := NewService(cfg, rs, store, seen, map[string]sources.Source{"reddit": src}, exporter, notifier)

	require.NoError(t, service.RunCycle(ctx))

	// snapshot landed on disk
	data, err := os.ReadFile(queuePath)
	require.NoError(t, err)

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Len(t, snapshot.Leads, 1)
	assert.Equal(t, "lead_p1", snapshot.Leads[0].ID)
	assert.Equal(t, 2, snapshot.Stats.TotalScanned)
	assert.Equal(t, 1, snapshot.Stats.LeadsFound)

	// digest was sent once, for the snapshot with leads
	require.Len(t, notifier.digests, 1)
	assert.Len(t, notifier.digests[0].Leads, 1)

	// seen set survived to disk
	restored, err := seenset.Load(filepath.Join(dir, "seen.json"), 100)
	require.NoError(t, err)
	assert.True(t, restored.Contains("p1"))
	assert.True(t, restored.Contains("p2"))

	// a second cycle rescans nothing
	require.NoError(t, service.RunCycle(ctx))
	assert.Equal(t, 0, service.Stats().TotalScanned)
}
