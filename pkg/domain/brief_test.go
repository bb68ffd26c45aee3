package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrief_RoundTrip(t *testing.T) {
	b := Brief{Goal: "show growth", Content: "quarterly revenue bar chart", Style: "blue tones"}
	parsed, ok := ParseBrief(b.String())
	require.True(t, ok)
	assert.Equal(t, b, parsed)
}

func TestParseBrief_Rejects(t *testing.T) {
	for _, s := range []string{"", "just a sentence", "**Goal:** only a goal"} {
		_, ok := ParseBrief(s)
		assert.False(t, ok, "input %q", s)
	}
}

func TestSynthesizeBrief(t *testing.T) {
	b := SynthesizeBrief(CategoryAnalytics, "add a chart of monthly signups")
	assert.Equal(t, "add a chart of monthly signups", b.Content)
	assert.NotEmpty(t, b.Goal)
	assert.NotEmpty(t, b.Style)

	// Unknown category still yields a complete brief.
	b = SynthesizeBrief(CategoryNarrative, "tighten it up")
	assert.NotEmpty(t, b.Goal)
}
