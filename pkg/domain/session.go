package domain

import "time"

// WorkflowState names one of the five fixed conversation phases.
type WorkflowState string

const (
	StateGreeting        WorkflowState = "GREETING"
	StateClarify         WorkflowState = "CLARIFY"
	StatePlan            WorkflowState = "PLAN"
	StateGenerateOutline WorkflowState = "GENERATE_OUTLINE"
	StateRefineOutline   WorkflowState = "REFINE_OUTLINE"
)

// WorkflowStates lists the states in their fixed forward order.
var WorkflowStates = []WorkflowState{
	StateGreeting, StateClarify, StatePlan, StateGenerateOutline, StateRefineOutline,
}

// Valid reports whether s is a known workflow state.
func (s WorkflowState) Valid() bool {
	for _, v := range WorkflowStates {
		if s == v {
			return true
		}
	}
	return false
}

// Turn is one entry of the append-only conversation log.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ClarifyingQuestions is the artifact produced on entering CLARIFY.
type ClarifyingQuestions struct {
	Questions []string `json:"questions"`
}

// ConfirmationPlan is the artifact produced on entering PLAN.
type ConfirmationPlan struct {
	SummaryOfUserRequest string   `json:"summary_of_user_request"`
	KeyAssumptions       []string `json:"key_assumptions"`
	ProposedSlideCount   int      `json:"proposed_slide_count"`
}

// Session is the unit of conversation state. It is created on first contact,
// mutated only by the state machine, and never deleted by the core (retention
// is external policy). A session owns at most one Outline at a time.
type Session struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	CurrentState WorkflowState `json:"current_state"`

	ConversationHistory []Turn `json:"conversation_history"`

	// Last-produced artifact of each state.
	UserInitialRequest  string               `json:"user_initial_request,omitempty"`
	ClarifyingQuestions *ClarifyingQuestions `json:"clarifying_questions,omitempty"`
	ClarifyingAnswers   string               `json:"clarifying_answers,omitempty"`
	ConfirmationPlan    *ConfirmationPlan    `json:"confirmation_plan,omitempty"`
	Strawman            *Outline             `json:"presentation_strawman,omitempty"`
	RefinementFeedback  string               `json:"refinement_feedback,omitempty"`

	// EncryptedPayload carries the whole session as an opaque ciphertext
	// when a store-level encryption middleware is active. An envelope
	// session sets it and leaves every content field empty.
	EncryptedPayload string `json:"encrypted_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a fresh session in the GREETING state.
func NewSession(id, userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:                  id,
		UserID:              userID,
		CurrentState:        StateGreeting,
		ConversationHistory: []Turn{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// AppendTurn adds an entry to the conversation log and bumps UpdatedAt.
func (s *Session) AppendTurn(role, content string) {
	s.ConversationHistory = append(s.ConversationHistory, Turn{
		Role:    role,
		Content: content,
		At:      time.Now().UTC(),
	})
	s.UpdatedAt = time.Now().UTC()
}

// ClearContext resets everything gathered for the current topic. Used when
// the user abandons the topic and starts over.
func (s *Session) ClearContext() {
	s.UserInitialRequest = ""
	s.ClarifyingQuestions = nil
	s.ClarifyingAnswers = ""
	s.ConfirmationPlan = nil
	s.Strawman = nil
	s.RefinementFeedback = ""
	s.ConversationHistory = []Turn{}
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.ConversationHistory = append([]Turn(nil), s.ConversationHistory...)
	if s.ClarifyingQuestions != nil {
		q := *s.ClarifyingQuestions
		q.Questions = append([]string(nil), s.ClarifyingQuestions.Questions...)
		out.ClarifyingQuestions = &q
	}
	if s.ConfirmationPlan != nil {
		p := *s.ConfirmationPlan
		p.KeyAssumptions = append([]string(nil), s.ConfirmationPlan.KeyAssumptions...)
		out.ConfirmationPlan = &p
	}
	if s.Strawman != nil {
		out.Strawman = s.Strawman.Clone()
	}
	return &out
}
