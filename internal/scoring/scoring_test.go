package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
)

func fixedScorer(t *testing.T, now time.Time) *Scorer {
	t.Helper()
	s := NewScorer(rules.Default())
	s.now = func() time.Time { return now }
	return s
}

func TestIntentScore(t *testing.T) {
	s := NewScorer(rules.Default())

	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{
			name:     "Exact full-text match",
			text:     "what should i feed",
			expected: 1.0,
		},
		{
			name:     "Substring match",
			text:     "hey all, what should i feed my new puppy?",
			expected: 0.7,
		},
		{
			name:     "Fuzzy word overlap",
			text:     "i feed him twice a day but what portion should it be",
			expected: 0.5,
		},
		{
			name:     "No match",
			text:     "look at this picture of my terrarium",
			expected: 0.0,
		},
		{
			name:     "Empty text",
			text:     "",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := s.IntentScore(tt.text)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestIntentScore_FuzzyTier(t *testing.T) {
	s := NewScorer(rules.Default())
	// 3 of 4 words from "what should i feed" present, but never contiguous
	score, matched := s.IntentScore("should i really be giving him feed pellets or what exactly")
	assert.InDelta(t, 0.5, score, 1e-9)
	assert.Contains(t, matched, "fuzzy: what should i feed")
}

func TestIntentScore_RecordsMatches(t *testing.T) {
	s := NewScorer(rules.Default())
	_, matched := s.IntentScore("need help feeding, confused about diet")
	assert.Contains(t, matched, "need help feeding")
	assert.Contains(t, matched, "confused about diet")
}

func TestSemanticScore(t *testing.T) {
	s := NewScorer(rules.Default())

	t.Run("Close to a seed question", func(t *testing.T) {
		score := s.SemanticScore("what should i feed my bearded dragon every day", models.CategoryReptile)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("Unknown category yields zero", func(t *testing.T) {
		assert.Zero(t, s.SemanticScore("what should i feed my pet", models.CategoryUnknown))
	})

	t.Run("Empty text yields zero", func(t *testing.T) {
		assert.Zero(t, s.SemanticScore("", models.CategoryBird))
	})
}

func TestFreshnessScore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := fixedScorer(t, now)

	tests := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{"Brand new", 10 * time.Minute, 1.0},
		{"Exactly one hour", time.Hour, 1.0},
		{"Six hours", 6 * time.Hour, 0.8},
		{"Twelve hours", 12 * time.Hour, 0.64},
		{"Two days", 48 * time.Hour, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FreshnessScore(now.Add(-tt.age))
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestFreshnessScore_MonotoneNonIncreasing(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := fixedScorer(t, now)

	ages := []time.Duration{0, 30 * time.Minute, time.Hour, 2 * time.Hour,
		6 * time.Hour, 12 * time.Hour, 23 * time.Hour, 24 * time.Hour,
		25 * time.Hour, 100 * time.Hour}

	prev := 2.0
	for _, age := range ages {
		score := s.FreshnessScore(now.Add(-age))
		assert.LessOrEqual(t, score, prev, "freshness must not increase with age %v", age)
		prev = score
	}
}

func TestFinalScore(t *testing.T) {
	s := NewScorer(rules.Default())

	t.Run("Neutral channel with perfect sub-scores", func(t *testing.T) {
		assert.Equal(t, 1.0, s.FinalScore(1.0, 1.0, 1.0, nil))
	})

	t.Run("Link-allowed boost exceeds one and is not clamped", func(t *testing.T) {
		got := s.FinalScore(1.0, 1.0, 1.0, []string{rules.TagLinkAllowed})
		assert.Equal(t, 1.2, got)
	})

	t.Run("No-promo penalty", func(t *testing.T) {
		got := s.FinalScore(1.0, 1.0, 1.0, []string{rules.TagNoPromo})
		assert.Equal(t, 0.8, got)
	})

	t.Run("Link-allowed wins when both tags present", func(t *testing.T) {
		got := s.FinalScore(1.0, 1.0, 1.0, []string{rules.TagNoPromo, rules.TagLinkAllowed})
		assert.Equal(t, 1.2, got)
	})

	t.Run("Rounded to three decimals", func(t *testing.T) {
		got := s.FinalScore(0.7, 0.333, 0.64, nil)
		// 0.7*0.4 + 0.333*0.4 + 0.64*0.2 = 0.5412 -> 0.541
		assert.Equal(t, 0.541, got)
	})
}

func TestIsLead(t *testing.T) {
	s := NewScorer(rules.Default())

	assert.True(t, s.IsLead(0.6, false))
	assert.True(t, s.IsLead(1.2, false))
	assert.False(t, s.IsLead(0.59, false))
	// emergencies never become leads regardless of score
	assert.False(t, s.IsLead(0.99, true))
}
