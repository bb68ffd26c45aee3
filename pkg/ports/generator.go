package ports

import (
	"context"

	"github.com/deckwright/deckwright/pkg/domain"
)

// SlideHint scopes single-slide generation to a placement and the request
// that asked for it.
type SlideHint struct {
	// Position is the slide_number the new slide will take after insertion.
	Position int
	// Request is the raw user text that asked for the slide.
	Request string
}

// Generator produces the per-state artifacts of the workflow. Implementations
// wrap a language model; the core only depends on this contract. A wrapped
// domain.ErrGeneration signals failure; the turn then does not advance state.
type Generator interface {
	// GenerateQuestions produces 3-5 clarifying questions for the topic.
	GenerateQuestions(ctx context.Context, s *domain.Session) (*domain.ClarifyingQuestions, error)

	// GeneratePlan summarizes the request and proposes a slide count.
	GeneratePlan(ctx context.Context, s *domain.Session) (*domain.ConfirmationPlan, error)

	// GenerateOutline produces a brand-new outline from the session context,
	// replacing any prior one.
	GenerateOutline(ctx context.Context, s *domain.Session) (*domain.Outline, error)
}

// SlideSynthesizer generates a single slide for insertion into an existing
// outline. Split from Generator so the refinement engine can depend on the
// narrow capability alone.
type SlideSynthesizer interface {
	GenerateSlide(ctx context.Context, outline *domain.Outline, hint SlideHint) (*domain.Slide, error)
}
