// Package rules implements the deterministic correction passes applied before
// the decision policy finalizes a categorization.
package rules

import (
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"
)

// VendorRatioCutoff is the minimum fuzzy similarity for substituting a known
// vendor spelling.
const VendorRatioCutoff = 0.75

// Corrector fixes obvious category mislabels and vendor misspellings. Both
// passes are deterministic lookups; neither consults the model or the LLM.
type Corrector struct {
	categoryTerms map[string]string // canonical term -> category
	knownVendors  []string
	vendorLookup  map[string]string // lowercased name -> canonical spelling
}

// Curated term sets. Descriptions arrive as short English nouns from the
// extraction pipeline, so exact case-insensitive matching is enough. A match
// overrides whatever the generative suggestion said: the learner must never
// train on an obviously wrong label.
var defaultCategoryTerms = map[string][]string{
	"Groceries": {
		"bread", "milk", "butter", "cheese", "eggs", "yogurt", "cream",
		"apple", "apples", "banana", "bananas", "orange", "oranges",
		"tomato", "tomatoes", "cucumber", "cucumbers", "potato", "potatoes",
		"onion", "onions", "carrot", "carrots", "lettuce", "garlic",
		"chicken", "beef", "pork", "fish", "ham", "sausage", "bacon",
		"rice", "pasta", "flour", "sugar", "salt", "cereal", "oats",
		"coffee", "tea", "juice", "water", "groceries", "food",
	},
	"Household Chemicals": {
		"detergent", "bleach", "soap", "dishwashing liquid", "washing powder",
		"fabric softener", "cleaner", "disinfectant", "toilet cleaner",
		"window cleaner", "sponge", "sponges", "cleaning products",
	},
	"Alcohol": {
		"beer", "wine", "vodka", "whisky", "whiskey", "gin", "rum",
		"cider", "champagne", "prosecco", "liqueur", "ale", "lager",
	},
}

// NewCorrector builds a corrector from the default term sets and a dynamic
// known-vendor list. The vendor list comes from persistence and should be
// refreshed per training run or request batch, not cached globally.
func NewCorrector(knownVendors []string) *Corrector {
	terms := make(map[string]string)
	for category, words := range defaultCategoryTerms {
		for _, w := range words {
			terms[w] = category
		}
	}

	lookup := make(map[string]string, len(knownVendors))
	for _, v := range knownVendors {
		lookup[strings.ToLower(strings.TrimSpace(v))] = v
	}

	return &Corrector{
		categoryTerms: terms,
		knownVendors:  knownVendors,
		vendorLookup:  lookup,
	}
}

// CorrectCategory returns the rule-determined category for a description and
// whether a rule matched. The whole canonicalized description is tried first,
// then its individual words.
func (c *Corrector) CorrectCategory(description string) (string, bool) {
	canonical := canonicalize(description)
	if canonical == "" {
		return "", false
	}

	if category, ok := c.categoryTerms[canonical]; ok {
		return category, true
	}
	for _, word := range strings.Fields(canonical) {
		if category, ok := c.categoryTerms[word]; ok {
			return category, true
		}
	}
	return "", false
}

// ApplyCategory overwrites the suggested category when a term rule matches.
func (c *Corrector) ApplyCategory(description, suggested string) string {
	corrected, ok := c.CorrectCategory(description)
	if !ok || corrected == suggested {
		return suggested
	}
	slog.Info("rule corrected category",
		"description", description,
		"from", suggested,
		"to", corrected)
	return corrected
}

// CorrectVendor maps a possibly misspelled vendor to its known spelling.
// Exact case-insensitive matches win; otherwise the closest known vendor by
// fuzzy ratio is substituted when the ratio clears the cutoff. Unknown
// vendors pass through unchanged.
func (c *Corrector) CorrectVendor(vendor string) string {
	trimmed := strings.TrimSpace(vendor)
	if trimmed == "" {
		return trimmed
	}

	if canonical, ok := c.vendorLookup[strings.ToLower(trimmed)]; ok {
		return canonical
	}

	best := ""
	bestRatio := 0.0
	for _, known := range c.knownVendors {
		ratio := similarityRatio(strings.ToLower(trimmed), strings.ToLower(known))
		if ratio > bestRatio {
			best, bestRatio = known, ratio
		}
	}

	if bestRatio >= VendorRatioCutoff {
		slog.Info("fuzzy corrected vendor",
			"from", trimmed, "to", best, "ratio", bestRatio)
		return best
	}
	return trimmed
}

// similarityRatio converts edit distance into a [0,1] similarity.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

func canonicalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
