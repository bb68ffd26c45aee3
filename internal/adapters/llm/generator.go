package llm

import (
	"context"
	"fmt"

	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

const (
	minQuestions = 3
	maxQuestions = 5
	minSlides    = 2
	maxSlides    = 30
)

// GenerateQuestions produces the clarifying questions for a fresh topic.
func (c *Client) GenerateQuestions(ctx context.Context, s *domain.Session) (*domain.ClarifyingQuestions, error) {
	var out domain.ClarifyingQuestions
	err := c.completeJSON(ctx, c.model, "generate_questions", map[string]string{
		"topic":   s.UserInitialRequest,
		"context": historyContext(s, 6),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if len(out.Questions) < minQuestions {
		return nil, fmt.Errorf("%w: model returned %d questions, want at least %d",
			domain.ErrGeneration, len(out.Questions), minQuestions)
	}
	if len(out.Questions) > maxQuestions {
		out.Questions = out.Questions[:maxQuestions]
	}
	return &out, nil
}

// GeneratePlan summarizes the request and proposes a slide count.
func (c *Client) GeneratePlan(ctx context.Context, s *domain.Session) (*domain.ConfirmationPlan, error) {
	var out domain.ConfirmationPlan
	err := c.completeJSON(ctx, c.model, "generate_plan", map[string]string{
		"topic":   s.UserInitialRequest,
		"answers": s.ClarifyingAnswers,
		"context": historyContext(s, 10),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if out.SummaryOfUserRequest == "" {
		return nil, fmt.Errorf("%w: plan missing summary", domain.ErrGeneration)
	}
	// Clamp rather than reject; the user confirms the plan anyway.
	if out.ProposedSlideCount < minSlides {
		out.ProposedSlideCount = minSlides
	}
	if out.ProposedSlideCount > maxSlides {
		out.ProposedSlideCount = maxSlides
	}
	return &out, nil
}

// GenerateOutline produces a brand-new strawman from the confirmed plan. Ids
// and numbering are assigned here; the model's values are ignored.
func (c *Client) GenerateOutline(ctx context.Context, s *domain.Session) (*domain.Outline, error) {
	plan := ""
	if s.ConfirmationPlan != nil {
		plan = fmt.Sprintf("%s (%d slides)", s.ConfirmationPlan.SummaryOfUserRequest, s.ConfirmationPlan.ProposedSlideCount)
	}

	var out domain.Outline
	err := c.completeJSON(ctx, c.model, "generate_outline", map[string]string{
		"topic":   s.UserInitialRequest,
		"answers": s.ClarifyingAnswers,
		"plan":    plan,
		"context": historyContext(s, 10),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if len(out.Slides) == 0 {
		return nil, fmt.Errorf("%w: model returned an outline with no slides", domain.ErrGeneration)
	}
	if out.MainTitle == "" {
		out.MainTitle = s.UserInitialRequest
	}
	for i := range out.Slides {
		out.Slides[i].SlideID = ""
	}
	out.Normalize()
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: generated outline invalid: %v", domain.ErrGeneration, err)
	}
	return &out, nil
}

// GenerateSlide creates one slide for insertion during refinement.
func (c *Client) GenerateSlide(ctx context.Context, outline *domain.Outline, hint ports.SlideHint) (*domain.Slide, error) {
	var out domain.Slide
	err := c.completeJSON(ctx, c.model, "generate_slide", map[string]string{
		"title":    outline.MainTitle,
		"theme":    outline.OverallTheme,
		"position": fmt.Sprintf("%d", hint.Position),
		"text":     hint.Request,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if out.Title == "" {
		return nil, fmt.Errorf("%w: model returned a slide with no title", domain.ErrGeneration)
	}
	// The refinement engine owns id assignment.
	out.SlideID = ""
	return &out, nil
}
