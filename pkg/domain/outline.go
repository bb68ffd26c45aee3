package domain

import "fmt"

// Outline is the complete strawman: presentation-level metadata plus the
// ordered slides it exclusively owns. An outline with zero slides is valid.
type Outline struct {
	MainTitle            string  `json:"main_title"`
	OverallTheme         string  `json:"overall_theme"`
	DesignSuggestions    string  `json:"design_suggestions,omitempty"`
	TargetAudience       string  `json:"target_audience,omitempty"`
	PresentationDuration int     `json:"presentation_duration,omitempty"`
	Slides               []Slide `json:"slides"`

	// RetiredSlideIDs records ids of deleted slides so they are never minted
	// again for this outline.
	RetiredSlideIDs []string `json:"retired_slide_ids,omitempty"`
}

// Renumber rewrites slide_number to the contiguous sequence 1..len(slides).
func (o *Outline) Renumber() {
	for i := range o.Slides {
		o.Slides[i].SlideNumber = i + 1
	}
}

// Validate checks the outline invariants: numbering is exactly 1..n and every
// slide id is unique and non-empty.
func (o *Outline) Validate() error {
	seen := make(map[string]struct{}, len(o.Slides))
	for i, s := range o.Slides {
		if s.SlideNumber != i+1 {
			return fmt.Errorf("slide at index %d has number %d, want %d", i, s.SlideNumber, i+1)
		}
		if s.SlideID == "" {
			return fmt.Errorf("slide %d has empty slide_id", s.SlideNumber)
		}
		if _, dup := seen[s.SlideID]; dup {
			return fmt.Errorf("duplicate slide_id %q", s.SlideID)
		}
		seen[s.SlideID] = struct{}{}
	}
	return nil
}

// Normalize runs slide-level normalization over every slide and restores
// numbering. Applied to every outline that crosses the model boundary,
// whether generated or refined.
func (o *Outline) Normalize() {
	for i := range o.Slides {
		o.Slides[i].Normalize()
		if o.Slides[i].SlideID == "" {
			o.Slides[i].SlideID = o.MintID()
		}
	}
	o.Renumber()
}

// Clone returns a deep copy of the outline.
func (o *Outline) Clone() *Outline {
	out := *o
	out.Slides = make([]Slide, len(o.Slides))
	for i, s := range o.Slides {
		out.Slides[i] = s.Clone()
	}
	out.RetiredSlideIDs = append([]string(nil), o.RetiredSlideIDs...)
	return &out
}

// MintID returns a slide id guaranteed not to collide with any id ever used
// by this outline, including ids of deleted slides.
func (o *Outline) MintID() string {
	used := make(map[string]struct{}, len(o.Slides)+len(o.RetiredSlideIDs))
	for _, s := range o.Slides {
		used[s.SlideID] = struct{}{}
	}
	for _, id := range o.RetiredSlideIDs {
		used[id] = struct{}{}
	}
	for {
		id := MintSlideID()
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// SlideByID returns the index of the slide with the given id, or -1.
func (o *Outline) SlideByID(id string) int {
	for i, s := range o.Slides {
		if s.SlideID == id {
			return i
		}
	}
	return -1
}

// Lint reports soft policy violations. Currently: the same structure
// preference repeated on more than two consecutive slides. Advisory only,
// never blocks a mutation.
func (o *Outline) Lint() []string {
	var warnings []string
	run := 1
	for i := 1; i < len(o.Slides); i++ {
		prev, cur := o.Slides[i-1].StructurePreference, o.Slides[i].StructurePreference
		if cur != "" && cur == prev {
			run++
		} else {
			run = 1
		}
		if run == 3 {
			warnings = append(warnings, fmt.Sprintf("layout %q repeated on 3 consecutive slides ending at slide %d", cur, i+1))
		}
	}
	return warnings
}
