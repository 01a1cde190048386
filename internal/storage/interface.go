package storage

import (
	"context"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

// Store is the durable home of scored items and leads. All writes are
// idempotent upserts keyed by external ID, so replaying an item after
// a crash overwrites derived fields instead of duplicating rows.
type Store interface {
	// UpsertItem persists a scored post or comment atomically.
	UpsertItem(ctx context.Context, item *models.ScoredItem) error

	// UpsertLead persists a lead keyed by its composite lead ID.
	UpsertLead(ctx context.Context, lead *models.Lead) error

	// UnreviewedLeads returns up to limit unreviewed leads ordered by
	// score descending, then recency descending.
	UnreviewedLeads(ctx context.Context, limit int) ([]models.Lead, error)

	// MarkLeadReviewed flips the reviewed flag; used by review tooling,
	// never by the pipeline.
	MarkLeadReviewed(ctx context.Context, id string) error

	// CountLeads returns the total number of stored leads.
	CountLeads(ctx context.Context) (int, error)

	Close() error
}
