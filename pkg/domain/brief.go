package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Brief is a three-part instruction for a downstream asset specialist.
// It describes what to produce, never the produced content itself.
type Brief struct {
	Goal    string
	Content string
	Style   string
}

// BriefCategory names the slide field a refinement addresses.
type BriefCategory string

const (
	CategoryAnalytics BriefCategory = "analytics"
	CategoryVisuals   BriefCategory = "visuals"
	CategoryDiagrams  BriefCategory = "diagrams"
	CategoryTables    BriefCategory = "tables"
	CategoryNarrative BriefCategory = "narrative"
	CategoryTitle     BriefCategory = "title"
	CategoryKeyPoints BriefCategory = "key_points"
)

var briefPattern = regexp.MustCompile(`(?s)\*\*Goal:\*\*\s*(.*?)\s*\*\*Content:\*\*\s*(.*?)\s*\*\*Style:\*\*\s*(.*)`)

// ParseBrief extracts the three sections from the wire format
// "**Goal:** ... **Content:** ... **Style:** ...".
func ParseBrief(s string) (Brief, bool) {
	m := briefPattern.FindStringSubmatch(s)
	if m == nil {
		return Brief{}, false
	}
	return Brief{
		Goal:    strings.TrimSpace(m[1]),
		Content: strings.TrimSpace(m[2]),
		Style:   strings.TrimSpace(m[3]),
	}, true
}

// String renders the brief in its wire format.
func (b Brief) String() string {
	return fmt.Sprintf("**Goal:** %s **Content:** %s **Style:** %s", b.Goal, b.Content, b.Style)
}

// SynthesizeBrief builds a brand-new brief for a category from raw refinement
// feedback. Used when a refinement addresses a brief that does not yet exist
// on the slide: the brief is created from scratch, never merged with an
// absent value.
func SynthesizeBrief(category BriefCategory, feedback string) Brief {
	feedback = strings.TrimSpace(feedback)
	goal := map[BriefCategory]string{
		CategoryAnalytics: "Provide data or a chart supporting the slide's message",
		CategoryVisuals:   "Provide imagery reinforcing the slide's message",
		CategoryDiagrams:  "Visualize the process or relationship on this slide",
		CategoryTables:    "Present structured information for easy comparison",
	}[category]
	if goal == "" {
		goal = "Support the slide narrative"
	}
	return Brief{
		Goal:    goal,
		Content: feedback,
		Style:   "Consistent with the overall presentation design",
	}
}
