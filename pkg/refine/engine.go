package refine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

// Request is one classified refinement to apply.
type Request struct {
	Op   domain.RefinementOp
	Text string
}

// Result carries the new outline and the ids the operation touched.
type Result struct {
	Outline  *domain.Outline
	Affected []string
	Op       domain.RefinementOp
}

// Engine applies refinement requests. CREATE delegates slide content to the
// synthesizer contract; UPDATE and DELETE are fully deterministic.
type Engine struct {
	synth  ports.SlideSynthesizer
	logger *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a refinement engine. synth is required for CREATE
// requests; UPDATE and DELETE work without it.
func NewEngine(synth ports.SlideSynthesizer, opts ...Option) *Engine {
	e := &Engine{synth: synth, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply produces a new outline from the request. The input outline is never
// mutated; on any error it is returned untouched to the caller's hands.
func (e *Engine) Apply(ctx context.Context, outline *domain.Outline, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.ErrEmptyRequest
	}
	if !req.Op.Valid() {
		return nil, fmt.Errorf("unknown refinement operation %q", req.Op)
	}
	if err := outline.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to refine malformed outline: %w", err)
	}

	work := outline.Clone()

	var (
		affected []string
		err      error
	)
	switch req.Op {
	case domain.OpUpdate:
		affected, err = e.applyUpdate(work, req.Text)
	case domain.OpCreate:
		affected, err = e.applyCreate(ctx, work, req.Text)
	case domain.OpDelete:
		affected, err = e.applyDelete(work, req.Text)
	}
	if err != nil {
		return nil, err
	}

	work.Normalize()
	if err := work.Validate(); err != nil {
		return nil, fmt.Errorf("refinement produced invalid outline: %w", err)
	}

	e.logger.Debug("refinement applied", "op", string(req.Op), "affected", affected)
	return &Result{Outline: work, Affected: affected, Op: req.Op}, nil
}

var quotedPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// applyUpdate edits the targeted slides in place on the working copy.
// Untouched slides come through value-equal.
func (e *Engine) applyUpdate(o *domain.Outline, text string) ([]string, error) {
	idxs, err := resolveTargets(o, text)
	if err != nil {
		return nil, err
	}

	category := detectCategory(text)
	var affected []string
	for _, i := range idxs {
		s := &o.Slides[i]
		switch category {
		case domain.CategoryAnalytics:
			s.AnalyticsNeeded = domain.SynthesizeBrief(category, text).String()
		case domain.CategoryVisuals:
			s.VisualsNeeded = domain.SynthesizeBrief(category, text).String()
		case domain.CategoryDiagrams:
			s.DiagramsNeeded = domain.SynthesizeBrief(category, text).String()
		case domain.CategoryTables:
			s.TablesNeeded = domain.SynthesizeBrief(category, text).String()
		case domain.CategoryTitle:
			// A quoted phrase is the replacement title; without one the
			// request becomes narrative guidance instead.
			if m := quotedPattern.FindStringSubmatch(text); m != nil {
				s.Title = firstNonEmpty(m[1], m[2])
			} else {
				appendNarrative(s, text)
			}
		case domain.CategoryKeyPoints:
			updateKeyPoints(s, text)
		default:
			appendNarrative(s, text)
		}
		affected = append(affected, s.SlideID)
	}
	return affected, nil
}

func (e *Engine) applyCreate(ctx context.Context, o *domain.Outline, text string) ([]string, error) {
	if e.synth == nil {
		return nil, fmt.Errorf("no slide synthesizer configured: %w", domain.ErrGeneration)
	}

	idx, err := resolveInsertIndex(o, text)
	if err != nil {
		return nil, err
	}

	slide, err := e.synth.GenerateSlide(ctx, o, ports.SlideHint{
		Position: idx + 1,
		Request:  text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	fresh := slide.Clone()
	fresh.Normalize()
	// The synthesizer does not own id minting; never trust its id to be
	// unique across the outline's history.
	if fresh.SlideID == "" || o.SlideByID(fresh.SlideID) >= 0 || isRetired(o, fresh.SlideID) {
		fresh.SlideID = o.MintID()
	}

	o.Slides = append(o.Slides[:idx], append([]domain.Slide{fresh}, o.Slides[idx:]...)...)
	o.Renumber()
	return []string{fresh.SlideID}, nil
}

func (e *Engine) applyDelete(o *domain.Outline, text string) ([]string, error) {
	idxs, err := resolveTargets(o, text)
	if err != nil {
		return nil, err
	}
	if len(idxs) != 1 {
		return nil, fmt.Errorf("delete must target exactly one slide, got %d: %w", len(idxs), domain.ErrAmbiguousTarget)
	}

	i := idxs[0]
	removed := o.Slides[i]
	o.RetiredSlideIDs = append(o.RetiredSlideIDs, removed.SlideID)
	o.Slides = append(o.Slides[:i], o.Slides[i+1:]...)
	// Deleting the last slide leaves a valid empty outline.
	o.Renumber()
	return []string{removed.SlideID}, nil
}

// detectCategory decides which slide field the feedback addresses.
func detectCategory(text string) domain.BriefCategory {
	lower := strings.ToLower(text)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("chart", "graph", "analytics", "metric", "statistic", "kpi", "numbers"):
		return domain.CategoryAnalytics
	case contains("table", "grid", "matrix", "comparison"):
		return domain.CategoryTables
	case contains("diagram", "flow", "flowchart", "architecture", "hierarchy", "process map"):
		return domain.CategoryDiagrams
	case contains("image", "photo", "picture", "visual", "icon", "illustration"):
		return domain.CategoryVisuals
	case contains("title", "rename", "heading", "call it"):
		return domain.CategoryTitle
	case contains("key point", "bullet", "key points"):
		return domain.CategoryKeyPoints
	default:
		return domain.CategoryNarrative
	}
}

func appendNarrative(s *domain.Slide, feedback string) {
	feedback = strings.TrimSpace(feedback)
	if s.Narrative == "" {
		s.Narrative = feedback
		return
	}
	s.Narrative = s.Narrative + " Revised emphasis: " + feedback
}

func updateKeyPoints(s *domain.Slide, text string) {
	matches := quotedPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		s.KeyPoints = append(s.KeyPoints, strings.TrimSpace(text))
		return
	}
	for _, m := range matches {
		s.KeyPoints = append(s.KeyPoints, firstNonEmpty(m[1], m[2]))
	}
}

func isRetired(o *domain.Outline, id string) bool {
	for _, r := range o.RetiredSlideIDs {
		if r == id {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
