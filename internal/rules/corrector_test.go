package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectCategory(t *testing.T) {
	c := NewCorrector(nil)

	tests := []struct {
		name        string
		description string
		want        string
		wantMatch   bool
	}{
		{name: "grocery item", description: "cucumber", want: "Groceries", wantMatch: true},
		{name: "case insensitive", description: "  Cucumber ", want: "Groceries", wantMatch: true},
		{name: "cleaning product", description: "dishwashing liquid", want: "Household Chemicals", wantMatch: true},
		{name: "alcohol", description: "beer", want: "Alcohol", wantMatch: true},
		{name: "word inside phrase", description: "fresh bread loaf", want: "Groceries", wantMatch: true},
		{name: "no rule", description: "parking ticket", wantMatch: false},
		{name: "empty", description: "", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.CorrectCategory(tt.description)
			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestApplyCategory(t *testing.T) {
	c := NewCorrector(nil)

	// A term rule overrides the suggestion.
	assert.Equal(t, "Groceries", c.ApplyCategory("cucumber", "Electronics"))
	// No rule leaves the suggestion alone.
	assert.Equal(t, "Transport", c.ApplyCategory("bus fare", "Transport"))
}

func TestCorrectVendor(t *testing.T) {
	known := []string{"Whole Foods", "Target", "Costco"}
	c := NewCorrector(known)

	tests := []struct {
		name   string
		vendor string
		want   string
	}{
		{name: "exact", vendor: "Target", want: "Target"},
		{name: "exact case insensitive", vendor: "tArGeT", want: "Target"},
		{name: "fuzzy close", vendor: "Whole Fods", want: "Whole Foods"},
		{name: "fuzzy transposition", vendor: "Cotsco", want: "Costco"},
		{name: "too distant passes through", vendor: "Ikea", want: "Ikea"},
		{name: "empty", vendor: "", want: ""},
		{name: "whitespace trimmed", vendor: "  Costco  ", want: "Costco"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CorrectVendor(tt.vendor))
		})
	}
}

func TestCorrectVendorEmptyKnownList(t *testing.T) {
	c := NewCorrector(nil)
	assert.Equal(t, "Anything", c.CorrectVendor("Anything"))
}

func TestSimilarityRatio(t *testing.T) {
	assert.InDelta(t, 1.0, similarityRatio("costco", "costco"), 1e-9)
	assert.InDelta(t, 0.0, similarityRatio("ab", "xy"), 1e-9)
	// One edit over an 11-rune name.
	assert.InDelta(t, 1.0-1.0/11.0, similarityRatio("whole foods", "whole fods"), 1e-9)
}
