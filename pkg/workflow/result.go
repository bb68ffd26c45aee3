package workflow

import "github.com/deckwright/deckwright/pkg/domain"

// Outcome summarizes how a turn resolved.
type Outcome string

const (
	// OutcomeAdvanced means the state changed (or REFINE_OUTLINE mutated the
	// outline through its self-loop).
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeHeld means the turn was understood but the state did not change:
	// help requests, low-confidence intents, recoverable refinement errors.
	OutcomeHeld Outcome = "held"
	// OutcomeUnrecognized means the intent does not apply in the current state.
	OutcomeUnrecognized Outcome = "unrecognized"
	// OutcomeFailed means classification or generation failed; the state is
	// unchanged and the user may retry the same input.
	OutcomeFailed Outcome = "failed"
)

// Choice is one button-style option offered alongside an artifact.
type Choice struct {
	Label         string `json:"label"`
	Value         string `json:"value"`
	Primary       bool   `json:"primary,omitempty"`
	RequiresInput bool   `json:"requires_input,omitempty"`
}

// Artifact is the user-facing product of a turn. Text is always set; at most
// one of Questions, Plan or Outline is set, matching the state just entered.
type Artifact struct {
	Text      string   `json:"text"`
	SubTitle  string   `json:"sub_title,omitempty"`
	ListItems []string `json:"list_items,omitempty"`

	Questions *domain.ClarifyingQuestions `json:"questions,omitempty"`
	Plan      *domain.ConfirmationPlan    `json:"plan,omitempty"`

	Outline *domain.Outline `json:"outline,omitempty"`
	// AffectedSlideIDs marks a partial outline update; empty with a non-nil
	// Outline means a full replacement.
	AffectedSlideIDs []string `json:"affected_slide_ids,omitempty"`

	Choices []Choice `json:"choices,omitempty"`
}

// TurnError is a user-presentable failure. Internal causes stay in logs.
type TurnError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Recoverable bool     `json:"recoverable"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error codes carried by TurnError.
const (
	CodeClassification = "classification_failure"
	CodeGeneration     = "generation_failure"
	CodeAmbiguous      = "ambiguous_target"
	CodeInvalidInput   = "invalid_input"
)

// TurnResult is everything a transport needs to render one processed turn.
type TurnResult struct {
	SessionID string
	FromState domain.WorkflowState
	State     domain.WorkflowState
	Intent    *domain.Intent
	Outcome   Outcome
	Artifact  Artifact
	Err       *TurnError

	// Session is the post-turn snapshot, already persisted.
	Session *domain.Session
	Version int64
}

// Advanced reports whether the turn moved the workflow forward.
func (r *TurnResult) Advanced() bool { return r.Outcome == OutcomeAdvanced }
