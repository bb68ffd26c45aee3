package ports

import (
	"context"

	"github.com/deckwright/deckwright/pkg/domain"
)

// IntentClassifier maps a raw user message, in the context of the current
// workflow state, to a typed intent. Failures are recoverable: the state
// machine holds the current state and re-prompts.
type IntentClassifier interface {
	// ClassifyIntent returns the directional intent of a user turn.
	// A wrapped domain.ErrClassification signals classifier failure.
	ClassifyIntent(ctx context.Context, state domain.WorkflowState, text string) (*domain.Intent, error)

	// ClassifyRefinement maps a refinement request onto exactly one of
	// UPDATE, CREATE, DELETE.
	ClassifyRefinement(ctx context.Context, text string) (domain.RefinementOp, error)
}
