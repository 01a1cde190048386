package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePost(id string) *models.ScoredItem {
	return &models.ScoredItem{
		Item: models.Item{
			ID:        id,
			Source:    "reddit",
			Channel:   "BeardedDragons",
			Author:    "lizardfan",
			Title:     "What should I feed my beardie?",
			Body:      "3 year old bearded dragon, picky eater",
			CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			URL:       "https://reddit.com/r/BeardedDragons/comments/" + id,
		},
		MatchedKeywords: []string{"what should i feed"},
		DetectedSpecies: []string{"bearded dragon"},
		Category:        models.CategoryReptile,
		IntentScore:     0.7,
		SemanticScore:   0.5,
		FreshnessScore:  1.0,
		FinalScore:      0.68,
		Status:          models.StatusPending,
	}
}

func TestUpsertItem_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := samplePost("abc123")
	require.NoError(t, s.UpsertItem(ctx, first))

	// second write for the same ID carries different derived fields
	second := samplePost("abc123")
	second.FinalScore = 0.91
	second.MatchedKeywords = []string{"what should i feed", "picky eater"}
	require.NoError(t, s.UpsertItem(ctx, second))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, "abc123").Scan(&count))
	assert.Equal(t, 1, count, "upsert must never duplicate rows")

	var score float64
	require.NoError(t, s.db.QueryRow(`SELECT final_score FROM posts WHERE id = ?`, "abc123").Scan(&score))
	assert.Equal(t, 0.91, score, "second write's derived fields must win")
}

func TestUpsertItem_CommentGoesToCommentsTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	comment := samplePost("cmt1")
	comment.ParentID = "abc123"
	require.NoError(t, s.UpsertItem(ctx, comment))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE id = ?`, "cmt1").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, "cmt1").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestUpsertLead_IdempotentOnCompositeID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := &models.Lead{
		ID:             "lead_abc123",
		PostID:         "abc123",
		Channel:        "BeardedDragons",
		Title:          "What should I feed my beardie?",
		Score:          0.68,
		Species:        []string{"bearded dragon"},
		Category:       models.CategoryReptile,
		EngagementMode: models.EngagementNoPromo,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.UpsertLead(ctx, lead))

	lead.Score = 0.91
	require.NoError(t, s.UpsertLead(ctx, lead))

	n, err := s.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUnreviewedLeads_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		id    string
		score float64
		at    time.Time
	}{
		{"lead_low", 0.61, base},
		{"lead_high", 0.95, base},
		{"lead_mid_old", 0.80, base.Add(-time.Hour)},
		{"lead_mid_new", 0.80, base.Add(time.Hour)},
	}
	for _, l := range seed {
		require.NoError(t, s.UpsertLead(ctx, &models.Lead{
			ID:        l.id,
			PostID:    l.id,
			Score:     l.score,
			CreatedAt: l.at,
		}))
	}

	leads, err := s.UnreviewedLeads(ctx, 3)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, "lead_high", leads[0].ID)
	assert.Equal(t, "lead_mid_new", leads[1].ID, "equal scores order by recency")
	assert.Equal(t, "lead_mid_old", leads[2].ID)
}

func TestMarkLeadReviewed_RemovesFromQueue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertLead(ctx, &models.Lead{
		ID: "lead_x", PostID: "x", Score: 0.7, CreatedAt: time.Now(),
	}))
	require.NoError(t, s.MarkLeadReviewed(ctx, "lead_x"))

	leads, err := s.UnreviewedLeads(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestUnreviewedLeads_RoundTripsFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := &models.Lead{
		ID:             "lead_rt",
		PostID:         "rt",
		Channel:        "parrots",
		Author:         "birdnerd",
		Title:          "chop recipe?",
		Content:        "my conure refuses vegetables",
		URL:            "https://reddit.com/r/parrots/comments/rt",
		Score:          1.2, // unclamped scores must survive persistence
		Species:        []string{"conure"},
		Category:       models.CategoryBird,
		MatchedPhrases: []string{"what to feed"},
		DraftReply:     "some draft",
		Entities:       models.Entities{Age: "2 years", Conditions: []string{"picky eater"}},
		EngagementMode: models.EngagementLinkOK,
		CreatedAt:      time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertLead(ctx, in))

	leads, err := s.UnreviewedLeads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, *in, leads[0])
}
