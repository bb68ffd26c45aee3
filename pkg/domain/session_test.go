package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_AppendTurn(t *testing.T) {
	s := NewSession("s1", "u1")
	assert.Equal(t, StateGreeting, s.CurrentState)

	s.AppendTurn("user", "hello")
	s.AppendTurn("assistant", "hi there")
	assert.Len(t, s.ConversationHistory, 2)
	assert.Equal(t, "user", s.ConversationHistory[0].Role)
}

func TestSession_ClearContext(t *testing.T) {
	s := NewSession("s1", "u1")
	s.UserInitialRequest = "AI in healthcare"
	s.ClarifyingAnswers = "execs, 15 minutes"
	s.ConfirmationPlan = &ConfirmationPlan{ProposedSlideCount: 8}
	s.Strawman = &Outline{MainTitle: "AI"}
	s.AppendTurn("user", "forget it, new topic")

	s.ClearContext()

	assert.Empty(t, s.UserInitialRequest)
	assert.Nil(t, s.ConfirmationPlan)
	assert.Nil(t, s.Strawman)
	assert.Empty(t, s.ConversationHistory)
}

func TestSession_Clone_Isolated(t *testing.T) {
	s := NewSession("s1", "u1")
	s.Strawman = &Outline{MainTitle: "Original", Slides: []Slide{{SlideID: "slide_a", SlideNumber: 1}}}
	s.ConfirmationPlan = &ConfirmationPlan{KeyAssumptions: []string{"a"}}

	c := s.Clone()
	c.Strawman.MainTitle = "Changed"
	c.ConfirmationPlan.KeyAssumptions[0] = "b"
	c.AppendTurn("user", "x")

	assert.Equal(t, "Original", s.Strawman.MainTitle)
	assert.Equal(t, "a", s.ConfirmationPlan.KeyAssumptions[0])
	assert.Empty(t, s.ConversationHistory)
}
