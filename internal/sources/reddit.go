package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

const userAgent = "LeadRadar/1.0"

// RedditSource fetches new posts and comments through the Reddit OAuth
// JSON API using client-credentials auth.
type RedditSource struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	retry        RetryPolicy

	// pages of /new fetched per channel poll
	limit int

	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

var (
	_ Source        = (*RedditSource)(nil)
	_ CommentSource = (*RedditSource)(nil)
	_ SearchSource  = (*RedditSource)(nil)
)

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string      `json:"kind"`
			Data redditThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Selftext  string  `json:"selftext"`
	Body      string  `json:"body"` // comments only
	Author    string  `json:"author"`
	Subreddit string  `json:"subreddit"`
	Permalink string  `json:"permalink"`
	LinkID    string  `json:"link_id"` // comments only, "t3_<postID>"
	Created   float64 `json:"created_utc"`
}

// NewRedditSource creates a Reddit source. Without credentials the
// source reports itself disabled and fetches nothing.
func NewRedditSource(clientID, clientSecret string, retry RetryPolicy) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       resty.New().SetTimeout(15 * time.Second),
		retry:        retry,
		limit:        25,
		now:          time.Now,
	}
}

func (r *RedditSource) Name() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// FetchNew returns the newest posts in a subreddit.
func (r *RedditSource) FetchNew(ctx context.Context, channel string) ([]models.Item, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	url := fmt.Sprintf("https://oauth.reddit.com/r/%s/new", channel)
	resp, err := r.retry.Do(ctx, "reddit /new "+channel, func() (*resty.Response, error) {
		return r.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+r.accessToken).
			SetHeader("User-Agent", userAgent).
			SetQueryParam("limit", fmt.Sprintf("%d", r.limit)).
			Get(url)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse reddit listing: %w", err)
	}

	var items []models.Item
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		items = append(items, r.toItem(child.Data, channel, ""))
	}
	return items, nil
}

// FetchComments returns the top-level comments of a post, skipping
// deleted and removed bodies.
func (r *RedditSource) FetchComments(ctx context.Context, channel, postID string) ([]models.Item, error) {
	if !r.IsEnabled() {
		return nil, nil
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	url := fmt.Sprintf("https://oauth.reddit.com/r/%s/comments/%s", channel, postID)
	resp, err := r.retry.Do(ctx, "reddit comments "+postID, func() (*resty.Response, error) {
		return r.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+r.accessToken).
			SetHeader("User-Agent", userAgent).
			SetQueryParams(map[string]string{"limit": "50", "depth": "1", "sort": "new"}).
			Get(url)
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	// the comments endpoint returns [postListing, commentListing]
	var listings []redditListing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, fmt.Errorf("failed to parse reddit comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var items []models.Item
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		if child.Data.Body == "[deleted]" || child.Data.Body == "[removed]" {
			continue
		}
		items = append(items, r.toItem(child.Data, channel, postID))
	}
	return items, nil
}

// Search runs a sitewide post search scoped to the last week, sorted
// newest first. Each result's channel comes from the subreddit the
// post actually lives in, which may not be a monitored one.
func (r *RedditSource) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if !r.IsEnabled() {
		return nil, nil
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	resp, err := r.retry.Do(ctx, "reddit search "+query, func() (*resty.Response, error) {
		return r.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+r.accessToken).
			SetHeader("User-Agent", userAgent).
			SetQueryParams(map[string]string{
				"q":     query,
				"sort":  "new",
				"t":     "week",
				"limit": fmt.Sprintf("%d", limit),
				"type":  "link",
			}).
			Get("https://oauth.reddit.com/search")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse reddit search results: %w", err)
	}

	var items []models.Item
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		items = append(items, r.toItem(child.Data, child.Data.Subreddit, ""))
	}
	return items, nil
}

func (r *RedditSource) toItem(thing redditThing, channel, parentID string) models.Item {
	created := time.Unix(int64(thing.Created), 0).UTC()
	if thing.Created == 0 {
		created = r.now().UTC()
	}
	return models.Item{
		ID:        thing.ID,
		ParentID:  parentID,
		Source:    "reddit",
		Channel:   channel,
		Author:    thing.Author,
		Title:     thing.Title,
		Body:      firstNonEmpty(thing.Selftext, thing.Body),
		CreatedAt: created,
		URL:       "https://reddit.com" + thing.Permalink,
	}
}

// authenticate fetches (or reuses) a client-credentials token. A
// cached token is reused until five minutes before expiry.
func (r *RedditSource) authenticate(ctx context.Context) error {
	if r.accessToken != "" && r.now().Before(r.tokenExpiry.Add(-5*time.Minute)) {
		return nil
	}

	resp, err := r.retry.Do(ctx, "reddit auth", func() (*resty.Response, error) {
		return r.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", userAgent).
			SetBasicAuth(r.clientID, r.clientSecret).
			SetFormData(map[string]string{"grant_type": "client_credentials"}).
			Post("https://www.reddit.com/api/v1/access_token")
	})
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var token redditTokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token endpoint returned empty access token")
	}

	r.accessToken = token.AccessToken
	r.tokenExpiry = r.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
