package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Mixed case and runs of whitespace",
			input:    "  What   Should\tI\n\nFeed  ",
			expected: "what should i feed",
		},
		{
			name:     "Already normalized",
			input:    "what should i feed",
			expected: "what should i feed",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "Whitespace only",
			input:    " \t\n ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"  My   Bearded DRAGON  won't eat\n",
		"plain text",
		"",
		"UPPER    CASE",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestMatchPhrases(t *testing.T) {
	phrases := []string{"what should i feed", "meal plan", "calcium", "cat"}

	t.Run("Returns ordered subsequence of phrase list", func(t *testing.T) {
		text := "Calcium question: what should I feed my cat?"
		got := MatchPhrases(text, phrases)
		assert.Equal(t, []string{"what should i feed", "calcium", "cat"}, got)
	})

	t.Run("Substring match without word boundaries", func(t *testing.T) {
		// "cat" matching inside "category" is accepted behavior
		got := MatchPhrases("picking a food category", phrases)
		assert.Equal(t, []string{"cat"}, got)
	})

	t.Run("No matches", func(t *testing.T) {
		assert.Empty(t, MatchPhrases("completely unrelated", phrases))
	})

	t.Run("Empty text", func(t *testing.T) {
		assert.Empty(t, MatchPhrases("", phrases))
	})
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("my gecko had a SEIZURE last night", []string{"seizure", "bleeding"}))
	assert.False(t, ContainsAny("healthy and happy", []string{"seizure", "bleeding"}))
	assert.False(t, ContainsAny("anything", nil))
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{
			name:     "Identical texts",
			a:        "what should i feed my dog",
			b:        "what should i feed my dog",
			expected: 1.0,
		},
		{
			name:     "Disjoint texts",
			a:        "alpha beta",
			b:        "gamma delta",
			expected: 0.0,
		},
		{
			name:     "Half overlap",
			a:        "a b",
			b:        "b c",
			expected: 1.0 / 3.0,
		},
		{
			name:     "Both empty",
			a:        "",
			b:        "",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Jaccard(tt.a, tt.b), 1e-9)
		})
	}
}
