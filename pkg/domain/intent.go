package domain

// IntentType is the closed set of directional intents a user turn can carry.
type IntentType string

const (
	IntentSubmitInitialTopic         IntentType = "submit_initial_topic"
	IntentSubmitClarificationAnswers IntentType = "submit_clarification_answers"
	IntentAcceptPlan                 IntentType = "accept_plan"
	IntentRejectPlan                 IntentType = "reject_plan"
	IntentAcceptOutline              IntentType = "accept_outline"
	IntentSubmitRefinement           IntentType = "submit_refinement"
	IntentChangeTopic                IntentType = "change_topic"
	IntentChangeParameter            IntentType = "change_parameter"
	IntentAskHelp                    IntentType = "ask_help"
)

// IntentTypes lists every valid intent.
var IntentTypes = []IntentType{
	IntentSubmitInitialTopic, IntentSubmitClarificationAnswers,
	IntentAcceptPlan, IntentRejectPlan, IntentAcceptOutline,
	IntentSubmitRefinement, IntentChangeTopic, IntentChangeParameter,
	IntentAskHelp,
}

// Valid reports whether t is a known intent type.
func (t IntentType) Valid() bool {
	for _, v := range IntentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Intent is the classified result of interpreting one user turn against the
// current workflow state. Produced per turn, never persisted.
type Intent struct {
	Type          IntentType `json:"intent_type"`
	Confidence    float64    `json:"confidence"` // [0,1]
	ExtractedInfo string     `json:"extracted_info,omitempty"`
}

// RefinementOp is the structural operation a refinement request maps to.
type RefinementOp string

const (
	OpUpdate RefinementOp = "UPDATE"
	OpCreate RefinementOp = "CREATE"
	OpDelete RefinementOp = "DELETE"
)

// Valid reports whether op is one of UPDATE, CREATE, DELETE.
func (op RefinementOp) Valid() bool {
	return op == OpUpdate || op == OpCreate || op == OpDelete
}
