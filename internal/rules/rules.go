package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

// Channel tags recognized by the scorer and drafter.
const (
	TagLinkAllowed = "allowed_link"
	TagNoPromo     = "no_promo"
	TagReadOnly    = "read_only"
)

// Channel configures one monitored sub-community.
type Channel struct {
	Name            string          `yaml:"name"`
	Source          string          `yaml:"source"` // defaults to "reddit"
	Tags            []string        `yaml:"tags"`
	DefaultCategory models.Category `yaml:"default_category"`
}

// HasTag reports whether the channel carries the given tag.
func (c Channel) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Search configures the sitewide Reddit search sweep that catches
// feeding questions posted outside the monitored channels.
type Search struct {
	Queries            []string `yaml:"queries"`
	MaxResultsPerQuery int      `yaml:"max_results_per_query"`
}

// Megathread names a long-lived pinned post whose comment stream is
// monitored every cycle.
type Megathread struct {
	Channel string `yaml:"channel"`
	PostID  string `yaml:"post_id"`
}

// Scoring holds the composite score weights and thresholds.
type Scoring struct {
	IntentWeight    float64 `yaml:"intent_weight"`
	SemanticWeight  float64 `yaml:"semantic_weight"`
	FreshnessWeight float64 `yaml:"freshness_weight"`
	MinThreshold    float64 `yaml:"min_score_threshold"`
	HighIntent      float64 `yaml:"high_intent_threshold"`
}

// Blacklist filters out content and authors before scoring.
type Blacklist struct {
	Words   []string `yaml:"words"`
	Authors []string `yaml:"authors"`
}

// Reply holds the drafter's template copy. Templates use {species}
// and {url} placeholders.
type Reply struct {
	SiteURL           string                     `yaml:"site_url"`
	LinkTemplates     map[string]string          `yaml:"link_templates"` // keyed by tone
	NoPromoIntro      string                     `yaml:"no_promo_intro"` // {species} placeholder
	NoPromoByCategory map[models.Category]string `yaml:"no_promo_by_category"`
	CategoryFallback  map[models.Category]string `yaml:"category_fallback"` // species phrase when none detected
}

// Ruleset is the immutable matching configuration loaded once at
// startup. All fields carry compiled-in defaults; a YAML file can
// override any of them.
type Ruleset struct {
	IntentPhrases     []string                     `yaml:"intent_phrases"`
	FeedingKeywords   []string                     `yaml:"feeding_keywords"`
	EmergencyKeywords []string                     `yaml:"emergency_keywords"`
	SpeciesTerms      map[models.Category][]string `yaml:"species_terms"`
	SeedQuestions     map[models.Category][]string `yaml:"seed_questions"`
	HealthKeywords    []string                     `yaml:"health_keywords"`
	DietKeywords      []string                     `yaml:"diet_keywords"`
	Channels          []Channel                    `yaml:"channels"`
	Search            Search                       `yaml:"search"`
	Megathreads       []Megathread                 `yaml:"megathreads"`
	Scoring           Scoring                      `yaml:"scoring"`
	Blacklist         Blacklist                    `yaml:"blacklist"`
	Reply             Reply                        `yaml:"reply"`
}

// ChannelByName returns the config for a channel, or a zero Channel
// when the name is unknown.
func (r *Ruleset) ChannelByName(name string) Channel {
	for _, c := range r.Channels {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return Channel{Name: name}
}

// IsBlacklisted reports whether the text or author hits the blacklist.
// Both checks are case-insensitive substring matches.
func (r *Ruleset) IsBlacklisted(text, author string) bool {
	lt := strings.ToLower(text)
	for _, w := range r.Blacklist.Words {
		if w != "" && strings.Contains(lt, strings.ToLower(w)) {
			return true
		}
	}
	la := strings.ToLower(author)
	for _, a := range r.Blacklist.Authors {
		if a != "" && strings.Contains(la, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// Load reads a YAML ruleset file over the defaults. An empty path
// returns the defaults unchanged; a missing file is an error because
// an explicitly configured ruleset should never be silently ignored.
func Load(path string) (*Ruleset, error) {
	rs := Default()
	if path == "" {
		return rs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset %s: %w", path, err)
	}
	return rs, nil
}

// Default returns the built-in ruleset.
func Default() *Ruleset {
	return &Ruleset{
		IntentPhrases: []string{
			"how do i feed",
			"what should i feed",
			"meal plan for",
			"help with feeding",
			"confused about diet",
			"feeding schedule",
			"portion sizes",
			"meal prep for my",
			"diet help",
			"what to feed",
			"feeding tips",
			"struggling to feed",
			"need help feeding",
			"how to meal prep",
			"feeding advice",
			"nutrition help",
			"what can i feed",
			"safe to feed",
			"how much to feed",
			"how often feed",
		},
		FeedingKeywords: []string{
			"what should i feed", "best diet for", "feeding schedule", "how much to feed",
			"portion sizes", "meal plan", "meal prep", "what do you feed", "feeding guide",
			"nutrition", "healthy diet", "homemade food", "fresh food", "safe foods",
			"toxic foods", "feeding tips", "diet help", "picky eater", "won't eat",
			"feeding problems", "calcium", "protein", "vitamins", "supplements",
			"gut loading", "staple foods", "balanced diet", "feeding frequency",
			"raw diet", "kibble", "switching food", "grain free", "sensitive stomach",
		},
		EmergencyKeywords: []string{
			"emergency", "vet now", "blood in", "bleeding", "seizure", "poisoned",
			"toxic ingestion", "not breathing", "collapsed", "unresponsive",
			"hasn't eaten in days", "dying", "impaction", "prolapse",
		},
		SpeciesTerms: map[models.Category][]string{
			models.CategoryReptile: {
				"bearded dragon", "beardie", "leopard gecko", "crested gecko",
				"ball python", "corn snake", "blue tongue skink", "chameleon",
				"uromastyx", "tegu", "iguana", "anole", "gecko", "snake", "lizard",
				"turtle", "tortoise", "reptile",
			},
			models.CategoryBird: {
				"budgie", "parakeet", "cockatiel", "african grey", "conure", "macaw",
				"cockatoo", "lovebird", "canary", "finch", "quaker parrot", "lorikeet",
				"pigeon", "dove", "chicken", "duck", "quail", "goose", "parrot", "bird",
			},
			models.CategoryPocketPet: {
				"rabbit", "bunny", "guinea pig", "hamster", "gerbil", "chinchilla",
				"ferret", "hedgehog", "sugar glider", "degu", "rat", "mouse",
				"pocket pet",
			},
			models.CategoryDogCat: {
				"dog", "puppy", "canine", "cat", "kitten", "feline",
			},
		},
		SeedQuestions: map[models.Category][]string{
			models.CategoryReptile: {
				"what should i feed my bearded dragon every day",
				"how often should i feed my leopard gecko insects",
				"what vegetables are safe for my tortoise to eat",
				"how do i get my ball python to eat frozen thawed",
				"what calcium supplement does my reptile need",
			},
			models.CategoryBird: {
				"what should i feed my budgie besides seed",
				"how do i convert my parrot to pellets",
				"what fresh vegetables can cockatiels eat",
				"how much chop should i make for my conure",
			},
			models.CategoryPocketPet: {
				"what should i feed my rabbit every day",
				"how much hay does a guinea pig need",
				"what is a good diet for a hamster",
				"what fresh food can rats eat safely",
			},
			models.CategoryDogCat: {
				"what should i feed my puppy and how often",
				"how much wet food does my cat need per day",
				"is homemade food safe for my dog",
				"how do i switch my cat to a new food",
			},
		},
		HealthKeywords: []string{
			"diarrhea", "constipation", "vomiting", "arthritis", "joint pain",
			"skin issues", "itching", "allergies", "ear infection", "uti",
			"kidney disease", "diabetes", "thyroid", "cancer", "obesity",
			"underweight", "picky eater", "food refusal", "weight loss", "weight gain",
			"calcium deficiency", "metabolic bone disease",
		},
		DietKeywords: []string{
			"raw", "kibble", "wet food", "dry food", "homemade", "cooked",
			"grain free", "limited ingredient", "prescription diet", "hypoallergenic",
		},
		Channels: []Channel{
			{Name: "reptiles", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryReptile},
			{Name: "BeardedDragons", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryReptile},
			{Name: "leopardgeckos", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryReptile},
			{Name: "ballpython", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryReptile},
			{Name: "parrots", Source: "reddit", Tags: []string{TagLinkAllowed}, DefaultCategory: models.CategoryBird},
			{Name: "budgies", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryBird},
			{Name: "Cockatiels", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryBird},
			{Name: "Rabbits", Source: "reddit", Tags: []string{TagLinkAllowed}, DefaultCategory: models.CategoryPocketPet},
			{Name: "guineapigs", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryPocketPet},
			{Name: "hamsters", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryPocketPet},
			{Name: "ferrets", Source: "reddit", Tags: []string{TagLinkAllowed}, DefaultCategory: models.CategoryPocketPet},
			{Name: "dogs", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryDogCat},
			{Name: "cats", Source: "reddit", Tags: []string{TagNoPromo}, DefaultCategory: models.CategoryDogCat},
			{Name: "CatAdvice", Source: "reddit", Tags: []string{TagLinkAllowed}, DefaultCategory: models.CategoryDogCat},
			{Name: "pets", Source: "reddit", Tags: []string{TagLinkAllowed}},
			{Name: "PetAdvice", Source: "reddit", Tags: []string{TagLinkAllowed}},
			{Name: "pets.stackexchange", Source: "stackexchange", Tags: []string{TagNoPromo}},
		},
		Search: Search{
			Queries: []string{
				"feeding help",
				"feeding advice",
				"meal plan",
				"feeding schedule",
				"portion sizes",
				"diet help",
				"nutrition questions",
			},
			MaxResultsPerQuery: 25,
		},
		Scoring: Scoring{
			IntentWeight:    0.4,
			SemanticWeight:  0.4,
			FreshnessWeight: 0.2,
			MinThreshold:    0.6,
			HighIntent:      0.8,
		},
		Blacklist: Blacklist{
			Words:   []string{"giveaway", "promo code", "affiliate link", "onlyfans"},
			Authors: []string{"automoderator"},
		},
		Reply: Reply{
			SiteURL: "https://paws-and-plates.vercel.app",
			LinkTemplates: map[string]string{
				"empathetic":  "i built something for exactly this... free meal plans + shoppable ingredient lists for {species}. trying to make feeding less stressful.\n\n{url}\n\nlmk if it helps",
				"time_saving": "been working on this problem too... built a free meal planner with ingredient shopping lists for {species}. might save you some time.\n\n{url}",
				"direct":      "this is what i made paws & plates for... free personalized meal plans for {species} with shoppable lists. no guesswork.\n\n{url}\n\nworth checking out",
				"general":     "your setup sounds like what we built for... paws & plates generates free meal plans + ingredient lists for {species}. makes the feeding side way easier.\n\n{url}",
			},
			NoPromoIntro: "I see you're looking for feeding help with your {species}. I've worked with many pet parents on similar nutrition questions. The key is understanding your pet's specific needs - age, size, activity level, and any health conditions all play a role in creating the right feeding plan.",
			NoPromoByCategory: map[models.Category]string{
				models.CategoryDogCat:    " For dogs and cats, protein quality and digestibility are crucial, along with getting the right balance of nutrients for their life stage.",
				models.CategoryReptile:   " For reptiles, proper calcium-to-phosphorus ratios and species-appropriate nutrition are particularly important.",
				models.CategoryBird:      " For birds, variety matters - a seed-only diet is a common pitfall, and fresh vegetables plus pellets make a big difference.",
				models.CategoryPocketPet: " For pocket pets, unlimited hay and the right fresh vegetables are the foundation of a healthy diet.",
			},
			CategoryFallback: map[models.Category]string{
				models.CategoryReptile:   "reptiles",
				models.CategoryBird:      "birds",
				models.CategoryPocketPet: "pocket pets",
				models.CategoryDogCat:    "dogs and cats",
				models.CategoryUnknown:   "dogs, cats, birds, reptiles, and pocket pets",
			},
		},
	}
}
