package radar

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/paws-and-plates/lead-radar/internal/classify"
	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/drafts"
	"github.com/paws-and-plates/lead-radar/internal/export"
	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/notifications"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/scoring"
	"github.com/paws-and-plates/lead-radar/internal/seenset"
	"github.com/paws-and-plates/lead-radar/internal/sources"
	"github.com/paws-and-plates/lead-radar/internal/storage"
	"github.com/paws-and-plates/lead-radar/internal/textmatch"
)

const recoveryDelay = 30 * time.Second

// Service runs the ingestion pipeline: fetch new posts and comments per
// channel, score them, persist items and qualifying leads, and track
// seen IDs so restarts never rescore the same content.
type Service struct {
	config   *config.Config
	rules    *rules.Ruleset
	store    storage.Store
	seen     *seenset.Set
	sources  map[string]sources.Source
	scorer   *scoring.Scorer
	drafter  *drafts.Drafter
	exporter *export.Exporter
	notifier notifications.Notifier
	limiter  *rate.Limiter
	metrics  *Metrics
	mu       sync.RWMutex
}

// Metrics holds pipeline counters from the most recent cycle
type Metrics struct {
	TotalScanned    int            `json:"total_scanned"`
	LeadsFound      int            `json:"leads_found"`
	HighIntent      int            `json:"high_intent"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	ChannelMetrics  map[string]int `json:"channel_metrics"`
	ErrorCount      int            `json:"error_count"`
}

// NewService creates the pipeline service. exporter and notifier may be
// nil; the cycle then only ingests.
func NewService(cfg *config.Config, rs *rules.Ruleset, store storage.Store, seen *seenset.Set,
	srcs map[string]sources.Source, exporter *export.Exporter, notifier notifications.Notifier) *Service {
	return &Service{
		config:   cfg,
		rules:    rs,
		store:    store,
		seen:     seen,
		sources:  srcs,
		scorer:   scoring.NewScorer(rs),
		drafter:  drafts.NewDrafter(rs),
		exporter: exporter,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerMin/60.0), 1),
		metrics: &Metrics{
			ChannelMetrics: make(map[string]int),
		},
	}
}

// RunForever runs ingestion cycles until the context is cancelled.
// Cycle failures are logged and retried after a short recovery sleep.
func (s *Service) RunForever(ctx context.Context) error {
	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Errorf("Cycle failed: %v, retrying in %v", err, recoveryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(recoveryDelay):
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.PollInterval):
		}
	}
}

// RunCycle performs one full ingestion pass over all configured channels.
func (s *Service) RunCycle(ctx context.Context) error {
	start := time.Now()
	logrus.Info("Starting ingestion cycle")

	stats := models.SnapshotStats{}
	channelCounts := make(map[string]int)
	errorCount := 0

	for _, channel := range s.rules.Channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if channel.HasTag(rules.TagReadOnly) {
			logrus.Debugf("Skipping read-only channel %s", channel.Name)
			continue
		}

		source, ok := s.sources[sourceName(channel)]
		if !ok || !source.IsEnabled() {
			logrus.Debugf("No enabled source %q for channel %s", sourceName(channel), channel.Name)
			continue
		}

		channelStats, err := s.scanChannel(ctx, source, channel)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Errorf("Error scanning channel %s: %v", channel.Name, err)
			errorCount++
			continue
		}

		channelCounts[channel.Name] = channelStats.TotalScanned
		stats.TotalScanned += channelStats.TotalScanned
		stats.LeadsFound += channelStats.LeadsFound
		stats.HighIntent += channelStats.HighIntent
	}

	searchStats, err := s.runSitewideSearches(ctx)
	if err != nil {
		return err
	}
	stats.TotalScanned += searchStats.TotalScanned
	stats.LeadsFound += searchStats.LeadsFound
	stats.HighIntent += searchStats.HighIntent

	megaStats, err := s.monitorMegathreads(ctx)
	if err != nil {
		return err
	}
	stats.TotalScanned += megaStats.TotalScanned
	stats.LeadsFound += megaStats.LeadsFound
	stats.HighIntent += megaStats.HighIntent

	if err := s.seen.Save(); err != nil {
		logrus.Errorf("Failed to save seen set: %v", err)
		errorCount++
	}

	s.updateMetrics(stats, channelCounts, time.Since(start), errorCount)

	if s.exporter != nil {
		snapshot, err := s.exporter.Export(ctx, stats)
		if err != nil {
			logrus.Errorf("Failed to export lead queue: %v", err)
		} else if s.notifier != nil && len(snapshot.Leads) > 0 {
			if err := s.notifier.SendDigest(snapshot); err != nil {
				logrus.Errorf("Failed to send lead digest: %v", err)
			}
		}
	}

	logrus.Infof("Cycle completed in %v: scanned %d items, found %d leads",
		time.Since(start), stats.TotalScanned, stats.LeadsFound)
	return nil
}

// scanChannel fetches and processes new posts for one channel, plus
// top-level comments of posts that look feeding-related.
func (s *Service) scanChannel(ctx context.Context, source sources.Source, channel rules.Channel) (models.SnapshotStats, error) {
	var stats models.SnapshotStats

	if err := s.limiter.Wait(ctx); err != nil {
		return stats, err
	}

	posts, err := source.FetchNew(ctx, channel.Name)
	if err != nil {
		return stats, err
	}
	logrus.Debugf("Fetched %d new posts from %s", len(posts), channel.Name)

	var commentWorthy []string

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		item, err := s.processItem(ctx, channel, post)
		if err != nil {
			logrus.Errorf("Failed to persist item %s: %v", post.ID, err)
			continue
		}
		if item == nil {
			continue
		}

		s.countItem(&stats, item)
		if textmatch.ContainsAny(textmatch.Normalize(post.Text()), s.rules.FeedingKeywords) {
			commentWorthy = append(commentWorthy, post.ID)
		}
	}

	commentSource, ok := source.(sources.CommentSource)
	if !ok {
		return stats, nil
	}

	for _, postID := range commentWorthy {
		if err := s.scanComments(ctx, commentSource, channel, postID, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// Sitewide search results above this score get their comment streams
// scanned too, even when the subreddit is not a monitored channel.
const searchCommentThreshold = 0.3

// runSitewideSearches sweeps every configured search query across each
// source that supports platform-wide search. Results are attributed to
// the channel they were posted in; unmonitored channels fall back to
// the default engagement rules (no promotion, no default category).
func (s *Service) runSitewideSearches(ctx context.Context) (models.SnapshotStats, error) {
	var stats models.SnapshotStats

	for _, query := range s.rules.Search.Queries {
		for _, source := range s.sources {
			searcher, ok := source.(sources.SearchSource)
			if !ok || !source.IsEnabled() {
				continue
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return stats, err
			}

			items, err := searcher.Search(ctx, query, s.rules.Search.MaxResultsPerQuery)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				logrus.Errorf("Sitewide search %q failed on %s: %v", query, source.Name(), err)
				continue
			}
			logrus.Debugf("Sitewide search %q returned %d posts", query, len(items))

			for _, post := range items {
				if err := ctx.Err(); err != nil {
					return stats, err
				}

				channel := s.rules.ChannelByName(post.Channel)
				scored, err := s.processItem(ctx, channel, post)
				if err != nil {
					logrus.Errorf("Failed to persist search result %s: %v", post.ID, err)
					continue
				}
				if scored == nil {
					continue
				}

				s.countItem(&stats, scored)

				commentSource, ok := source.(sources.CommentSource)
				if !ok || scored.FinalScore < searchCommentThreshold {
					continue
				}
				if err := s.scanComments(ctx, commentSource, channel, post.ID, &stats); err != nil {
					return stats, err
				}
			}
		}
	}
	return stats, nil
}

// monitorMegathreads scans the comment streams of configured pinned
// posts, which collect feeding questions that never become standalone
// posts.
func (s *Service) monitorMegathreads(ctx context.Context) (models.SnapshotStats, error) {
	var stats models.SnapshotStats

	for _, mt := range s.rules.Megathreads {
		channel := s.rules.ChannelByName(mt.Channel)
		source, ok := s.sources[sourceName(channel)]
		if !ok || !source.IsEnabled() {
			continue
		}
		commentSource, ok := source.(sources.CommentSource)
		if !ok {
			continue
		}

		logrus.Debugf("Monitoring megathread %s in %s", mt.PostID, channel.Name)
		if err := s.scanComments(ctx, commentSource, channel, mt.PostID, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// scanComments fetches and processes the top-level comments of one
// post, folding the results into stats. Fetch failures are logged and
// swallowed; only cancellation propagates.
func (s *Service) scanComments(ctx context.Context, source sources.CommentSource, channel rules.Channel, postID string, stats *models.SnapshotStats) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	comments, err := source.FetchComments(ctx, channel.Name, postID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.Errorf("Error fetching comments for %s: %v", postID, err)
		return nil
	}

	for _, comment := range comments {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := s.processItem(ctx, channel, comment)
		if err != nil {
			logrus.Errorf("Failed to persist comment %s: %v", comment.ID, err)
			continue
		}
		if item == nil {
			continue
		}

		s.countItem(stats, item)
	}
	return nil
}

func (s *Service) countItem(stats *models.SnapshotStats, item *models.ScoredItem) {
	stats.TotalScanned++
	if item.DraftReply == "" {
		return
	}
	stats.LeadsFound++
	if item.FinalScore > s.rules.Scoring.HighIntent {
		stats.HighIntent++
	}
}

// processItem scores and persists one post or comment. A nil result
// with nil error means the item was skipped (no ID, already seen, or
// blacklisted). The ID is marked seen only after persistence succeeds,
// so a storage failure redelivers the item into idempotent upserts.
func (s *Service) processItem(ctx context.Context, channel rules.Channel, item models.Item) (*models.ScoredItem, error) {
	if item.ID == "" {
		return nil, nil
	}
	if s.seen.Contains(item.ID) {
		return nil, nil
	}

	text := textmatch.Normalize(item.Text())
	if s.rules.IsBlacklisted(text, item.Author) {
		logrus.Debugf("Skipping blacklisted item %s", item.ID)
		return nil, nil
	}

	species, category := classify.DetectSpecies(text, s.rules)
	if category == models.CategoryUnknown {
		category = channel.DefaultCategory
	}

	intent, matched := s.scorer.IntentScore(text)
	matched = mergeMatches(matched, textmatch.MatchPhrases(text, s.rules.FeedingKeywords))
	semantic := s.scorer.SemanticScore(text, category)
	freshness := s.scorer.FreshnessScore(item.CreatedAt)
	final := s.scorer.FinalScore(intent, semantic, freshness, channel.Tags)
	emergency := classify.IsEmergency(text, s.rules)

	scored := &models.ScoredItem{
		Item:            item,
		MatchedKeywords: matched,
		DetectedSpecies: species,
		Category:        category,
		Entities:        classify.ExtractEntities(text, s.rules),
		IntentScore:     intent,
		SemanticScore:   semantic,
		FreshnessScore:  freshness,
		FinalScore:      final,
		IsEmergency:     emergency,
		Status:          models.StatusPending,
	}

	mode := models.EngagementNoPromo
	if channel.HasTag(rules.TagLinkAllowed) {
		mode = models.EngagementLinkOK
	}

	isLead := s.scorer.IsLead(final, emergency)
	if isLead {
		scored.DraftReply = s.drafter.Draft(*scored, mode)
	}

	if err := s.store.UpsertItem(ctx, scored); err != nil {
		return nil, err
	}

	if isLead {
		if err := s.store.UpsertLead(ctx, buildLead(scored, mode)); err != nil {
			return nil, err
		}
		logrus.Infof("New lead %s in %s (score %.3f)", models.LeadID(item), channel.Name, final)
	}

	s.seen.Add(item.ID)
	return scored, nil
}

// mergeMatches appends feeding-keyword hits to the intent matches,
// preserving order and dropping phrases the intent pass already found.
func mergeMatches(intent, feeding []string) []string {
	seen := make(map[string]bool, len(intent))
	for _, m := range intent {
		seen[m] = true
	}
	for _, m := range feeding {
		if !seen[m] {
			intent = append(intent, m)
			seen[m] = true
		}
	}
	return intent
}

func buildLead(scored *models.ScoredItem, mode models.EngagementMode) *models.Lead {
	lead := &models.Lead{
		ID:             models.LeadID(scored.Item),
		PostID:         scored.ID,
		Channel:        scored.Channel,
		Author:         scored.Author,
		Title:          scored.Title,
		Content:        scored.Body,
		URL:            scored.URL,
		Score:          scored.FinalScore,
		Species:        scored.DetectedSpecies,
		Category:       scored.Category,
		MatchedPhrases: scored.MatchedKeywords,
		DraftReply:     scored.DraftReply,
		Entities:       scored.Entities,
		EngagementMode: mode,
		CreatedAt:      scored.CreatedAt,
	}
	if scored.IsComment() {
		lead.PostID = scored.ParentID
		lead.CommentID = scored.ID
	}
	return lead
}

func sourceName(channel rules.Channel) string {
	if channel.Source == "" {
		return "reddit"
	}
	return channel.Source
}

// Stats returns the counters from the most recent cycle.
func (s *Service) Stats() models.SnapshotStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.SnapshotStats{
		TotalScanned: s.metrics.TotalScanned,
		LeadsFound:   s.metrics.LeadsFound,
		HighIntent:   s.metrics.HighIntent,
	}
}

func (s *Service) updateMetrics(stats models.SnapshotStats, channelCounts map[string]int, duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalScanned = stats.TotalScanned
	s.metrics.LeadsFound = stats.LeadsFound
	s.metrics.HighIntent = stats.HighIntent
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.ChannelMetrics = channelCounts
	s.metrics.ErrorCount = errorCount
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
