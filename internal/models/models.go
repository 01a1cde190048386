package models

import "time"

// Category is the coarse species category an item is classified into.
type Category string

const (
	CategoryReptile   Category = "reptile"
	CategoryBird      Category = "bird"
	CategoryPocketPet Category = "pocket_pet"
	CategoryDogCat    Category = "dog_cat"
	CategoryUnknown   Category = ""
)

// Categories lists the known categories in classification order.
// DetectSpecies iterates them in this exact order, so ties always
// resolve to the earliest category.
var Categories = []Category{CategoryReptile, CategoryBird, CategoryPocketPet, CategoryDogCat}

// Status is the human-review workflow tag on a scored item.
// The pipeline only ever writes StatusPending; the rest are set by
// external review tooling.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPosted   Status = "posted"
	StatusSkipped  Status = "skipped"
)

// Item is a post or comment fetched from a source platform.
type Item struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"` // containing post, for comments
	Source    string    `json:"source"`              // "reddit", "stackexchange", ...
	Channel   string    `json:"channel"`             // subreddit or site name
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // authorship time, not ingestion time
	URL       string    `json:"url"`
}

// IsComment reports whether the item is a comment on another item.
func (i Item) IsComment() bool {
	return i.ParentID != ""
}

// Text returns the combined title and body used for matching and scoring.
func (i Item) Text() string {
	if i.Title == "" {
		return i.Body
	}
	if i.Body == "" {
		return i.Title
	}
	return i.Title + " " + i.Body
}

// Entities holds structured attributes extracted from free text.
// Values are whatever the first matching pattern produced; nothing is
// validated for plausibility.
type Entities struct {
	Age        string   `json:"age,omitempty"`
	Weight     float64  `json:"weight,omitempty"`
	WeightUnit string   `json:"weight_unit,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	DietType   string   `json:"diet_type,omitempty"`
}

// ScoredItem is an Item plus everything the pipeline derived from it.
type ScoredItem struct {
	Item

	MatchedKeywords []string `json:"matched_keywords"`
	DetectedSpecies []string `json:"detected_species"`
	Category        Category `json:"category"`
	Entities        Entities `json:"entities"`

	IntentScore    float64 `json:"intent_score"`
	SemanticScore  float64 `json:"semantic_score"`
	FreshnessScore float64 `json:"freshness_score"`
	// FinalScore is stored exactly as computed. The link-allowed channel
	// boost can push it above 1.0 and it is not clamped back.
	FinalScore float64 `json:"final_score"`

	IsEmergency bool   `json:"is_emergency"`
	DraftReply  string `json:"draft_reply,omitempty"`
	Status      Status `json:"status"`
}

// EngagementMode tells the reviewer whether a channel allows links.
type EngagementMode string

const (
	EngagementLinkOK  EngagementMode = "link_ok"
	EngagementNoPromo EngagementMode = "no_promo"
)

// Lead is a scored item that cleared the promotion threshold and is
// queued for human review.
type Lead struct {
	ID             string         `json:"id"` // "lead_<postID>" or "lead_comment_<commentID>"
	PostID         string         `json:"post_id"`
	CommentID      string         `json:"comment_id,omitempty"`
	Channel        string         `json:"channel"`
	Author         string         `json:"author"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	URL            string         `json:"url"`
	Score          float64        `json:"score"`
	Species        []string       `json:"species"`
	Category       Category       `json:"category"`
	MatchedPhrases []string       `json:"matched_phrases"`
	DraftReply     string         `json:"draft_reply"`
	Entities       Entities       `json:"entities"`
	EngagementMode EngagementMode `json:"engagement_mode"`
	CreatedAt      time.Time      `json:"created_at"`
	Reviewed       bool           `json:"reviewed"`
}

// LeadID builds the composite lead key for a scored item.
func LeadID(item Item) string {
	if item.IsComment() {
		return "lead_comment_" + item.ID
	}
	return "lead_" + item.ID
}

// SnapshotStats are the aggregate counters written alongside an
// exported lead queue.
type SnapshotStats struct {
	TotalScanned int `json:"total_scanned"`
	LeadsFound   int `json:"leads_found"`
	HighIntent   int `json:"high_intent"`
}

// Snapshot is the lead_queue.json payload: the top unreviewed leads
// plus counters from the most recent ingestion cycle.
type Snapshot struct {
	Leads       []Lead        `json:"leads"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       SnapshotStats `json:"stats"`
}
