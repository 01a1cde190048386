package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		source TEXT NOT NULL,
		author TEXT,
		title TEXT NOT NULL,
		body TEXT,
		url TEXT,
		created_at INTEGER,
		processed_at INTEGER,
		matched_keywords TEXT,
		species TEXT,
		category TEXT,
		entities TEXT,
		intent_score REAL DEFAULT 0,
		semantic_score REAL DEFAULT 0,
		freshness_score REAL DEFAULT 0,
		final_score REAL DEFAULT 0,
		is_emergency INTEGER DEFAULT 0,
		draft_reply TEXT,
		status TEXT DEFAULT 'pending'
	);
	CREATE INDEX IF NOT EXISTS idx_posts_score ON posts(final_score);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT,
		channel TEXT NOT NULL,
		source TEXT NOT NULL,
		author TEXT,
		body TEXT,
		url TEXT,
		created_at INTEGER,
		processed_at INTEGER,
		matched_keywords TEXT,
		species TEXT,
		category TEXT,
		entities TEXT,
		intent_score REAL DEFAULT 0,
		semantic_score REAL DEFAULT 0,
		freshness_score REAL DEFAULT 0,
		final_score REAL DEFAULT 0,
		is_emergency INTEGER DEFAULT 0,
		draft_reply TEXT,
		status TEXT DEFAULT 'pending',
		FOREIGN KEY (post_id) REFERENCES posts (id)
	);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		post_id TEXT,
		comment_id TEXT,
		channel TEXT,
		author TEXT,
		title TEXT,
		content TEXT,
		url TEXT,
		score REAL,
		species TEXT,
		category TEXT,
		matched_phrases TEXT,
		draft_reply TEXT,
		entities TEXT,
		engagement_mode TEXT,
		created_at INTEGER,
		reviewed INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_leads_queue ON leads(reviewed, score, created_at);
	`)
	return err
}

// UpsertItem writes a scored post or comment. A second write for the
// same ID overwrites the derived fields in place.
func (s *SQLiteStore) UpsertItem(ctx context.Context, item *models.ScoredItem) error {
	keywords, _ := json.Marshal(item.MatchedKeywords)
	species, _ := json.Marshal(item.DetectedSpecies)
	entities, _ := json.Marshal(item.Entities)

	if item.IsComment() {
		_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, channel, source, author, body, url,
			created_at, processed_at, matched_keywords, species, category, entities,
			intent_score, semantic_score, freshness_score, final_score,
			is_emergency, draft_reply, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			post_id = excluded.post_id,
			channel = excluded.channel,
			source = excluded.source,
			author = excluded.author,
			body = excluded.body,
			url = excluded.url,
			created_at = excluded.created_at,
			processed_at = excluded.processed_at,
			matched_keywords = excluded.matched_keywords,
			species = excluded.species,
			category = excluded.category,
			entities = excluded.entities,
			intent_score = excluded.intent_score,
			semantic_score = excluded.semantic_score,
			freshness_score = excluded.freshness_score,
			final_score = excluded.final_score,
			is_emergency = excluded.is_emergency,
			draft_reply = excluded.draft_reply`,
			item.ID, item.ParentID, item.Channel, item.Source, item.Author,
			item.Body, item.URL, item.CreatedAt.Unix(), time.Now().Unix(),
			string(keywords), string(species), string(item.Category),
			string(entities), item.IntentScore, item.SemanticScore,
			item.FreshnessScore, item.FinalScore, boolToInt(item.IsEmergency),
			item.DraftReply, string(item.Status))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO posts (id, channel, source, author, title, body, url,
		created_at, processed_at, matched_keywords, species, category, entities,
		intent_score, semantic_score, freshness_score, final_score,
		is_emergency, draft_reply, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		channel = excluded.channel,
		source = excluded.source,
		author = excluded.author,
		title = excluded.title,
		body = excluded.body,
		url = excluded.url,
		created_at = excluded.created_at,
		processed_at = excluded.processed_at,
		matched_keywords = excluded.matched_keywords,
		species = excluded.species,
		category = excluded.category,
		entities = excluded.entities,
		intent_score = excluded.intent_score,
		semantic_score = excluded.semantic_score,
		freshness_score = excluded.freshness_score,
		final_score = excluded.final_score,
		is_emergency = excluded.is_emergency,
		draft_reply = excluded.draft_reply`,
		item.ID, item.Channel, item.Source, item.Author, item.Title,
		item.Body, item.URL, item.CreatedAt.Unix(), time.Now().Unix(),
		string(keywords), string(species), string(item.Category),
		string(entities), item.IntentScore, item.SemanticScore,
		item.FreshnessScore, item.FinalScore, boolToInt(item.IsEmergency),
		item.DraftReply, string(item.Status))
	return err
}

// UpsertLead writes a lead keyed by its composite ID.
func (s *SQLiteStore) UpsertLead(ctx context.Context, lead *models.Lead) error {
	species, _ := json.Marshal(lead.Species)
	phrases, _ := json.Marshal(lead.MatchedPhrases)
	entities, _ := json.Marshal(lead.Entities)

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO leads (id, post_id, comment_id, channel, author, title, content,
		url, score, species, category, matched_phrases, draft_reply, entities,
		engagement_mode, created_at, reviewed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		post_id = excluded.post_id,
		comment_id = excluded.comment_id,
		channel = excluded.channel,
		author = excluded.author,
		title = excluded.title,
		content = excluded.content,
		url = excluded.url,
		score = excluded.score,
		species = excluded.species,
		category = excluded.category,
		matched_phrases = excluded.matched_phrases,
		draft_reply = excluded.draft_reply,
		entities = excluded.entities,
		engagement_mode = excluded.engagement_mode,
		created_at = excluded.created_at`,
		lead.ID, lead.PostID, lead.CommentID, lead.Channel, lead.Author,
		lead.Title, lead.Content, lead.URL, lead.Score, string(species),
		string(lead.Category), string(phrases), lead.DraftReply,
		string(entities), string(lead.EngagementMode), lead.CreatedAt.Unix(),
		boolToInt(lead.Reviewed))
	return err
}

// UnreviewedLeads returns the current review queue, best first.
func (s *SQLiteStore) UnreviewedLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, post_id, comment_id, channel, author, title, content, url,
		score, species, category, matched_phrases, draft_reply, entities,
		engagement_mode, created_at, reviewed
	FROM leads
	WHERE reviewed = 0
	ORDER BY score DESC, created_at DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var (
			l         models.Lead
			species   string
			category  string
			phrases   string
			entities  string
			mode      string
			createdAt int64
			reviewed  int
		)
		if err := rows.Scan(&l.ID, &l.PostID, &l.CommentID, &l.Channel,
			&l.Author, &l.Title, &l.Content, &l.URL, &l.Score, &species,
			&category, &phrases, &l.DraftReply, &entities, &mode,
			&createdAt, &reviewed); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(species), &l.Species)
		_ = json.Unmarshal([]byte(phrases), &l.MatchedPhrases)
		_ = json.Unmarshal([]byte(entities), &l.Entities)
		l.Category = models.Category(category)
		l.EngagementMode = models.EngagementMode(mode)
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		l.Reviewed = reviewed != 0
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// MarkLeadReviewed flips the reviewed flag for one lead.
func (s *SQLiteStore) MarkLeadReviewed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE leads SET reviewed = 1 WHERE id = ?`, id)
	return err
}

// CountLeads returns the total number of stored leads.
func (s *SQLiteStore) CountLeads(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
