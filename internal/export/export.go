package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/storage"
)

// Exporter projects the stored lead queue into a ranked JSON snapshot
// for the review UI. It never mutates the store.
type Exporter struct {
	store storage.Store
	rules *rules.Ruleset
	path  string
	limit int
	now   func() time.Time
}

// NewExporter creates an exporter writing at most limit leads to path.
func NewExporter(store storage.Store, rs *rules.Ruleset, path string, limit int) *Exporter {
	return &Exporter{
		store: store,
		rules: rs,
		path:  path,
		limit: limit,
		now:   time.Now,
	}
}

// Export writes the current unreviewed leads, best first, as a snapshot.
// TotalScanned and LeadsFound in stats come from the caller's last
// ingestion cycle; HighIntent is recomputed from the exported leads.
func (e *Exporter) Export(ctx context.Context, stats models.SnapshotStats) (*models.Snapshot, error) {
	leads, err := e.store.UnreviewedLeads(ctx, e.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead queue: %w", err)
	}

	stats.HighIntent = 0
	for _, lead := range leads {
		if lead.Score > e.rules.Scoring.HighIntent {
			stats.HighIntent++
		}
	}

	snapshot := &models.Snapshot{
		Leads:       leads,
		GeneratedAt: e.now().UTC(),
		Stats:       stats,
	}

	if err := e.write(snapshot); err != nil {
		return nil, err
	}

	logrus.Infof("Exported %d leads to %s (%d high intent)", len(leads), e.path, stats.HighIntent)
	return snapshot, nil
}

// write lands the snapshot atomically so readers never see a torn file.
func (e *Exporter) write(snapshot *models.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(e.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), e.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
