package drafts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
)

func TestDetectTone(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Tone
	}{
		{
			name:     "Help cue is empathetic",
			text:     "really need some help, totally confused here",
			expected: ToneEmpathetic,
		},
		{
			name:     "Meal prep cue is time-saving",
			text:     "trying to set up a weekly meal prep routine",
			expected: ToneTimeSaving,
		},
		{
			name:     "Question cue is direct",
			text:     "what should i be giving him daily",
			expected: ToneDirect,
		},
		{
			name:     "No cues falls back to general",
			text:     "sharing my setup for feedback",
			expected: ToneGeneral,
		},
		{
			name:     "Empathy wins over direct",
			text:     "help, what should i do",
			expected: ToneEmpathetic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectTone(tt.text))
		})
	}
}

func TestDraft_LinkAllowed(t *testing.T) {
	rs := rules.Default()
	d := NewDrafter(rs)

	item := models.ScoredItem{
		Item:            models.Item{Title: "What should I feed my bearded dragon?"},
		DetectedSpecies: []string{"bearded dragon"},
		Category:        models.CategoryReptile,
	}

	reply := d.Draft(item, models.EngagementLinkOK)
	assert.Contains(t, reply, "bearded dragons")
	assert.Contains(t, reply, rs.Reply.SiteURL)
}

func TestDraft_NoPromoHasNoLink(t *testing.T) {
	rs := rules.Default()
	d := NewDrafter(rs)

	item := models.ScoredItem{
		Item:            models.Item{Title: "Feeding schedule for my dog?"},
		DetectedSpecies: []string{"dog"},
		Category:        models.CategoryDogCat,
	}

	reply := d.Draft(item, models.EngagementNoPromo)
	assert.Contains(t, reply, "dogs")
	assert.NotContains(t, reply, "http")
	// the educational tail for the detected category is appended
	assert.Contains(t, reply, "protein quality")
}

func TestDraft_CategoryFallbackPhrase(t *testing.T) {
	rs := rules.Default()
	d := NewDrafter(rs)

	t.Run("Known category without species", func(t *testing.T) {
		item := models.ScoredItem{Category: models.CategoryBird}
		reply := d.Draft(item, models.EngagementLinkOK)
		assert.Contains(t, reply, "birds")
	})

	t.Run("Unknown category", func(t *testing.T) {
		item := models.ScoredItem{Category: models.CategoryUnknown}
		reply := d.Draft(item, models.EngagementLinkOK)
		assert.Contains(t, reply, "dogs, cats, birds, reptiles, and pocket pets")
	})
}

func TestDraft_MultipleSpeciesJoined(t *testing.T) {
	d := NewDrafter(rules.Default())
	item := models.ScoredItem{
		DetectedSpecies: []string{"budgie", "cockatiel"},
		Category:        models.CategoryBird,
	}
	reply := d.Draft(item, models.EngagementLinkOK)
	assert.True(t, strings.Contains(reply, "budgie, cockatiel"))
}
