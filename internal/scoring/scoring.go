// Package scoring implements the deterministic lead scoring policy:
// intent phrase matching, seed-question similarity, freshness decay,
// and the weighted composite with channel-tag multipliers.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/textmatch"
)

// Match tiers for the intent score.
const (
	exactMatchScore    = 1.0
	partialMatchScore  = 0.7
	semanticMatchScore = 0.5
)

// Scorer evaluates items against the configured ruleset.
type Scorer struct {
	rules *rules.Ruleset
	now   func() time.Time
}

// NewScorer creates a scorer over the given ruleset.
func NewScorer(rs *rules.Ruleset) *Scorer {
	return &Scorer{rules: rs, now: time.Now}
}

// IntentScore returns the strongest intent tier found plus every
// phrase that contributed: 1.0 for an exact full-text match, 0.7 for a
// substring match, 0.5 when at least 60% of a phrase's words are
// present. The result is capped at 1.0.
func (s *Scorer) IntentScore(text string) (float64, []string) {
	norm := textmatch.Normalize(text)
	if norm == "" {
		return 0, nil
	}
	textWords := textmatch.WordSet(norm)

	maxScore := 0.0
	var matched []string

	for _, phrase := range s.rules.IntentPhrases {
		p := textmatch.Normalize(phrase)
		if p == "" {
			continue
		}

		if strings.Contains(norm, p) {
			if p == norm {
				maxScore = math.Max(maxScore, exactMatchScore)
			} else {
				maxScore = math.Max(maxScore, partialMatchScore)
			}
			matched = append(matched, phrase)
			continue
		}

		words := strings.Fields(p)
		overlap := 0
		for _, w := range words {
			if _, ok := textWords[w]; ok {
				overlap++
			}
		}
		need := int(math.Ceil(float64(len(words)) * 0.6))
		if need < 1 {
			need = 1
		}
		if overlap >= need {
			maxScore = math.Max(maxScore, semanticMatchScore)
			matched = append(matched, "fuzzy: "+phrase)
		}
	}

	return math.Min(maxScore, 1.0), matched
}

// SemanticScore is the maximum Jaccard word-set similarity between the
// text and the seed questions configured for the category. Unknown
// category or no seeds yields 0.
func (s *Scorer) SemanticScore(text string, category models.Category) float64 {
	if text == "" || category == models.CategoryUnknown {
		return 0
	}
	maxScore := 0.0
	for _, seed := range s.rules.SeedQuestions[category] {
		if sim := textmatch.Jaccard(text, seed); sim > maxScore {
			maxScore = sim
		}
	}
	return maxScore
}

// FreshnessScore favors recently authored items: 1.0 inside the first
// hour, 0.8^(hours/6) up to 24 hours, then a flat 0.1. The exact decay
// formula is part of the scoring contract.
func (s *Scorer) FreshnessScore(createdAt time.Time) float64 {
	hoursOld := s.now().Sub(createdAt).Hours()
	switch {
	case hoursOld <= 1:
		return 1.0
	case hoursOld <= 24:
		return math.Pow(0.8, hoursOld/6)
	default:
		return 0.1
	}
}

// FinalScore combines the sub-scores with the configured weights and
// applies the channel-tag multiplier: x1.2 when the channel allows
// links, else x0.8 when it forbids promotion. A channel tagged with
// both gets the link-allowed boost. The result is rounded to three
// decimals and deliberately not clamped back into [0,1].
func (s *Scorer) FinalScore(intent, semantic, freshness float64, channelTags []string) float64 {
	cfg := s.rules.Scoring
	score := intent*cfg.IntentWeight + semantic*cfg.SemanticWeight + freshness*cfg.FreshnessWeight

	switch {
	case hasTag(channelTags, rules.TagLinkAllowed):
		score *= 1.2
	case hasTag(channelTags, rules.TagNoPromo):
		score *= 0.8
	}

	return math.Round(score*1000) / 1000
}

// IsLead reports whether a final score qualifies as a lead. Emergency
// items are excluded regardless of score.
func (s *Scorer) IsLead(finalScore float64, isEmergency bool) bool {
	return finalScore >= s.rules.Scoring.MinThreshold && !isEmergency
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
