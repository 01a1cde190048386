// Package classify extracts species, categories, and structured
// entities from free text using the configured rule tables.
package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paws-and-plates/lead-radar/internal/models"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/textmatch"
)

// DetectSpecies scans the category term lists in fixed order and
// returns every matched term (deduplicated, first-seen order) plus the
// category with the highest hit count. The first category to reach the
// maximum wins ties; zero hits everywhere yields CategoryUnknown.
func DetectSpecies(text string, rs *rules.Ruleset) ([]string, models.Category) {
	norm := textmatch.Normalize(text)

	var detected []string
	seen := make(map[string]bool)
	counts := make(map[models.Category]int)

	for _, cat := range models.Categories {
		for _, term := range rs.SpeciesTerms[cat] {
			if term == "" || !strings.Contains(norm, term) {
				continue
			}
			counts[cat]++
			if !seen[term] {
				seen[term] = true
				detected = append(detected, term)
			}
		}
	}

	best := models.CategoryUnknown
	bestCount := 0
	for _, cat := range models.Categories {
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}

	return detected, best
}

// Ordered pattern lists per field; the first hit wins and later
// mentions are never reconciled.
var (
	agePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(year|yr|month|mo|week|wk)s?\s*old`),
		regexp.MustCompile(`age\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*years?`),
		regexp.MustCompile(`(\d+)\s*months?`),
	}

	weightPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(lbs|lb|pounds|pound|kgs|kg|kilograms|kilogram|ounces|oz|grams|g)\b`)
)

// ExtractEntities pulls age, weight, health conditions, and diet type
// out of the text. Values are accepted as matched with no plausibility
// checks.
func ExtractEntities(text string, rs *rules.Ruleset) models.Entities {
	norm := textmatch.Normalize(text)
	var e models.Entities

	for _, p := range agePatterns {
		m := p.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		unit := "year"
		if len(m) > 2 && m[2] != "" {
			unit = m[2]
		}
		e.Age = m[1] + " " + pluralizeUnit(unit, n)
		break
	}

	if m := weightPattern.FindStringSubmatch(norm); m != nil {
		if w, err := strconv.ParseFloat(m[1], 64); err == nil {
			e.Weight = w
			e.WeightUnit = m[2]
		}
	}

	for _, kw := range rs.HealthKeywords {
		if kw != "" && strings.Contains(norm, kw) {
			e.Conditions = append(e.Conditions, kw)
		}
	}

	for _, kw := range rs.DietKeywords {
		if kw != "" && strings.Contains(norm, kw) {
			e.DietType = kw
			break
		}
	}

	return e
}

func pluralizeUnit(unit string, n int) string {
	// normalize abbreviated units to full words
	switch unit {
	case "yr":
		unit = "year"
	case "mo":
		unit = "month"
	case "wk":
		unit = "week"
	}
	if n != 1 {
		return unit + "s"
	}
	return unit
}

// IsEmergency reports whether the text contains any configured
// emergency keyword. Emergency items never become leads.
func IsEmergency(text string, rs *rules.Ruleset) bool {
	return textmatch.ContainsAny(text, rs.EmergencyKeywords)
}
