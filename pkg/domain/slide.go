package domain

import (
	"strings"

	"github.com/google/uuid"
)

// SlideType classifies the role a slide plays in the deck.
type SlideType string

const (
	SlideTitle      SlideType = "title_slide"
	SlideSection    SlideType = "section_divider"
	SlideContent    SlideType = "content_heavy"
	SlideVisual     SlideType = "visual_heavy"
	SlideData       SlideType = "data_driven"
	SlideDiagram    SlideType = "diagram_focused"
	SlideMixed      SlideType = "mixed_content"
	SlideConclusion SlideType = "conclusion_slide"
)

// SlideTypes lists every valid slide type.
var SlideTypes = []SlideType{
	SlideTitle, SlideSection, SlideContent, SlideVisual,
	SlideData, SlideDiagram, SlideMixed, SlideConclusion,
}

// Valid reports whether t is one of the closed set of slide types.
func (t SlideType) Valid() bool {
	for _, v := range SlideTypes {
		if t == v {
			return true
		}
	}
	return false
}

// MaxKeyPoints caps the number of key points a slide may carry. Key points are
// research briefs for downstream specialists, never final slide content.
const MaxKeyPoints = 5

// Slide is one ordered unit of an outline. SlideID is assigned at creation and
// never changes; SlideNumber is positional and rewritten on every reorder.
type Slide struct {
	SlideNumber int       `json:"slide_number"`
	SlideID     string    `json:"slide_id"`
	SlideType   SlideType `json:"slide_type"`
	Title       string    `json:"title"`
	Narrative   string    `json:"narrative"`
	KeyPoints   []string  `json:"key_points"`

	// Asset briefs: empty string means absent. Non-empty values hold a
	// Goal/Content/Style brief (see Brief).
	AnalyticsNeeded string `json:"analytics_needed,omitempty"`
	VisualsNeeded   string `json:"visuals_needed,omitempty"`
	DiagramsNeeded  string `json:"diagrams_needed,omitempty"`
	TablesNeeded    string `json:"tables_needed,omitempty"`

	StructurePreference string `json:"structure_preference,omitempty"`
	SpeakerNotes        string `json:"speaker_notes,omitempty"`
}

// MintSlideID returns a fresh slide identifier ("slide_" + 8 hex chars).
func MintSlideID() string {
	return "slide_" + uuid.NewString()[:8]
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	out := s
	out.KeyPoints = append([]string(nil), s.KeyPoints...)
	return out
}

// Normalize enforces the model-boundary invariants on a slide: key points are
// trimmed, de-blanked and capped at MaxKeyPoints, asset briefs are rewritten
// through the Goal/Content/Style format, and the slide type falls back to
// mixed_content when a generator returned something outside the closed set.
func (s *Slide) Normalize() {
	// nil stays nil so an untouched slide compares equal after normalization.
	var points []string
	for _, p := range s.KeyPoints {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		points = append(points, p)
		if len(points) == MaxKeyPoints {
			break
		}
	}
	s.KeyPoints = points

	for _, brief := range []*string{&s.AnalyticsNeeded, &s.VisualsNeeded, &s.DiagramsNeeded, &s.TablesNeeded} {
		if *brief == "" {
			continue
		}
		if b, ok := ParseBrief(*brief); ok {
			*brief = b.String()
		} else {
			// Free-text brief from a generator: wrap it rather than trust it.
			*brief = Brief{Goal: "Support the slide narrative", Content: strings.TrimSpace(*brief), Style: "Match the overall presentation theme"}.String()
		}
	}

	if !s.SlideType.Valid() {
		s.SlideType = SlideMixed
	}
	s.Title = strings.TrimSpace(s.Title)
}
