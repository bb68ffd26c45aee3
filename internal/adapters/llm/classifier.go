package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckwright/deckwright/pkg/domain"
)

// ClassifyIntent routes one user turn through the router model.
func (c *Client) ClassifyIntent(ctx context.Context, state domain.WorkflowState, text string) (*domain.Intent, error) {
	var intent domain.Intent
	err := c.completeJSON(ctx, c.router, "classify_intent", map[string]string{
		"state": string(state),
		"text":  text,
	}, &intent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassification, err)
	}

	if !intent.Type.Valid() {
		return nil, fmt.Errorf("%w: model returned unknown intent %q", domain.ErrClassification, intent.Type)
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", domain.ErrClassification, intent.Confidence)
	}

	c.logger.Debug("intent classified",
		"state", string(state), "intent", string(intent.Type), "confidence", intent.Confidence)
	return &intent, nil
}

// ClassifyRefinement maps a refinement request to UPDATE, CREATE or DELETE.
func (c *Client) ClassifyRefinement(ctx context.Context, text string) (domain.RefinementOp, error) {
	var resp struct {
		Operation string `json:"operation"`
	}
	err := c.completeJSON(ctx, c.router, "classify_refinement", map[string]string{
		"text": text,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrClassification, err)
	}

	op := domain.RefinementOp(strings.ToUpper(strings.TrimSpace(resp.Operation)))
	if !op.Valid() {
		return "", fmt.Errorf("%w: model returned unknown operation %q", domain.ErrClassification, resp.Operation)
	}
	return op, nil
}
