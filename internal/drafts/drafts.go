// Package drafts turns a scored item into a canned reply draft,
// picking the template tone from simple keyword checks and honoring
// the channel's promotion rules.
package drafts

import (
	"strings"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/textmatch"
)

// Tone is the coarse voice classification used to pick a template.
type Tone string

const (
	ToneEmpathetic Tone = "empathetic"
	ToneTimeSaving Tone = "time_saving"
	ToneDirect     Tone = "direct"
	ToneGeneral    Tone = "general"
)

var (
	empatheticCues = []string{"help", "confused", "struggling", "problem"}
	timeSavingCues = []string{"meal prep", "batch", "schedule"}
	directCues     = []string{"what should", "how much", "what", "how", "question"}
)

// Drafter builds reply drafts from the configured template copy.
type Drafter struct {
	rules *rules.Ruleset
}

// NewDrafter creates a drafter over the given ruleset.
func NewDrafter(rs *rules.Ruleset) *Drafter {
	return &Drafter{rules: rs}
}

// DetectTone classifies the text by cue presence. Earlier cue groups
// win: empathy beats time-saving beats direct.
func DetectTone(text string) Tone {
	switch {
	case textmatch.ContainsAny(text, empatheticCues):
		return ToneEmpathetic
	case textmatch.ContainsAny(text, timeSavingCues):
		return ToneTimeSaving
	case textmatch.ContainsAny(text, directCues):
		return ToneDirect
	default:
		return ToneGeneral
	}
}

// Draft renders a reply for the item. Link-allowed channels get a
// short promotional template with the site URL; no-promo channels get
// a purely educational reply with no link.
func (d *Drafter) Draft(item models.ScoredItem, mode models.EngagementMode) string {
	species := d.speciesPhrase(item)

	if mode == models.EngagementNoPromo {
		reply := strings.ReplaceAll(d.rules.Reply.NoPromoIntro, "{species}", species)
		if extra, ok := d.rules.Reply.NoPromoByCategory[item.Category]; ok {
			reply += extra
		}
		return reply
	}

	tone := DetectTone(item.Text())
	tmpl, ok := d.rules.Reply.LinkTemplates[string(tone)]
	if !ok {
		tmpl = d.rules.Reply.LinkTemplates[string(ToneGeneral)]
	}
	reply := strings.ReplaceAll(tmpl, "{species}", species)
	return strings.ReplaceAll(reply, "{url}", d.rules.Reply.SiteURL)
}

// speciesPhrase builds the human-readable species text: a single
// detected species pluralized, a comma list for several, or the
// category-level fallback phrase.
func (d *Drafter) speciesPhrase(item models.ScoredItem) string {
	switch len(item.DetectedSpecies) {
	case 0:
		if phrase, ok := d.rules.Reply.CategoryFallback[item.Category]; ok {
			return phrase
		}
		return d.rules.Reply.CategoryFallback[models.CategoryUnknown]
	case 1:
		return pluralize(item.DetectedSpecies[0])
	default:
		return strings.Join(item.DetectedSpecies, ", ")
	}
}

func pluralize(s string) string {
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}
