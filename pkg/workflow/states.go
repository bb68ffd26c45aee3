package workflow

import "github.com/deckwright/deckwright/pkg/domain"

// transitions is the fixed (state, intent) → next state table. Pairs not
// listed here are a no-op with an unrecognized-input outcome. change_topic
// and ask_help are handled before the table: they apply in every state.
var transitions = map[domain.WorkflowState]map[domain.IntentType]domain.WorkflowState{
	domain.StateGreeting: {
		domain.IntentSubmitInitialTopic: domain.StateClarify,
	},
	domain.StateClarify: {
		domain.IntentSubmitClarificationAnswers: domain.StatePlan,
	},
	domain.StatePlan: {
		domain.IntentAcceptPlan:      domain.StateGenerateOutline,
		domain.IntentRejectPlan:      domain.StateClarify,
		domain.IntentChangeParameter: domain.StatePlan,
	},
	domain.StateGenerateOutline: {
		domain.IntentAcceptOutline:   domain.StateRefineOutline,
		domain.IntentChangeParameter: domain.StatePlan,
	},
	domain.StateRefineOutline: {
		domain.IntentSubmitRefinement: domain.StateRefineOutline,
		domain.IntentChangeParameter:  domain.StatePlan,
	},
}

// Next resolves the transition table. ok is false for unmapped pairs.
func Next(state domain.WorkflowState, intent domain.IntentType) (domain.WorkflowState, bool) {
	row, ok := transitions[state]
	if !ok {
		return state, false
	}
	next, ok := row[intent]
	if !ok {
		return state, false
	}
	return next, true
}

// reprompts are emitted when a turn holds the current state.
var reprompts = map[domain.WorkflowState]string{
	domain.StateGreeting:        "Hi! I'm Deckwright. What presentation would you like to build today?",
	domain.StateClarify:         "Could you answer the clarifying questions above so I can shape the deck?",
	domain.StatePlan:            "Does the proposed plan look right? You can accept it or tell me what to change.",
	domain.StateGenerateOutline: "Here's the outline. Accept it to start refining, or tell me what to adjust.",
	domain.StateRefineOutline:   "Tell me what to change: update a slide, add one, or remove one.",
}

const helpText = "I build presentation outlines step by step: you give me a topic, " +
	"I ask a few clarifying questions, propose a plan, and generate a slide-by-slide " +
	"outline you can refine (\"make slide 2 more data-driven\", \"add a team slide after slide 1\", " +
	"\"remove the conclusion\")."

// Reprompt returns the holding prompt for a state.
func Reprompt(state domain.WorkflowState) string {
	if p, ok := reprompts[state]; ok {
		return p
	}
	return reprompts[domain.StateGreeting]
}
