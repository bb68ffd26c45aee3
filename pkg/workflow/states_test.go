package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deckwright/deckwright/pkg/domain"
)

func TestNext_ForwardPath(t *testing.T) {
	steps := []struct {
		from   domain.WorkflowState
		intent domain.IntentType
		to     domain.WorkflowState
	}{
		{domain.StateGreeting, domain.IntentSubmitInitialTopic, domain.StateClarify},
		{domain.StateClarify, domain.IntentSubmitClarificationAnswers, domain.StatePlan},
		{domain.StatePlan, domain.IntentAcceptPlan, domain.StateGenerateOutline},
		{domain.StateGenerateOutline, domain.IntentAcceptOutline, domain.StateRefineOutline},
		{domain.StateRefineOutline, domain.IntentSubmitRefinement, domain.StateRefineOutline},
	}
	for _, s := range steps {
		to, ok := Next(s.from, s.intent)
		assert.True(t, ok, "%s + %s", s.from, s.intent)
		assert.Equal(t, s.to, to)
	}
}

func TestNext_RejectPlanGoesBack(t *testing.T) {
	to, ok := Next(domain.StatePlan, domain.IntentRejectPlan)
	assert.True(t, ok)
	assert.Equal(t, domain.StateClarify, to)
}

func TestNext_UnmappedPairsHold(t *testing.T) {
	cases := []struct {
		from   domain.WorkflowState
		intent domain.IntentType
	}{
		{domain.StateGreeting, domain.IntentAcceptOutline},
		{domain.StateGreeting, domain.IntentSubmitRefinement},
		{domain.StateClarify, domain.IntentAcceptPlan},
		{domain.StateRefineOutline, domain.IntentSubmitInitialTopic},
	}
	for _, c := range cases {
		to, ok := Next(c.from, c.intent)
		assert.False(t, ok, "%s + %s", c.from, c.intent)
		assert.Equal(t, c.from, to, "unmapped pair must not move the state")
	}
}
