package sources

import (
	"context"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

// Source fetches new items from one external platform.
type Source interface {
	Name() string
	IsEnabled() bool

	// FetchNew returns the newest posts in a channel (a subreddit, a
	// Stack Exchange site, ...). Items the caller has already seen are
	// filtered downstream; sources return everything the API gave them.
	FetchNew(ctx context.Context, channel string) ([]models.Item, error)
}

// CommentSource is implemented by sources that can also fetch the
// top-level comments of a post.
type CommentSource interface {
	FetchComments(ctx context.Context, channel, postID string) ([]models.Item, error)
}

// SearchSource is implemented by sources that support a platform-wide
// keyword search beyond the configured channels.
type SearchSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.Item, error)
}
