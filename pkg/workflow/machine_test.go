package workflow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckwright/deckwright/internal/adapters/memory"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
	"github.com/deckwright/deckwright/pkg/refine"
	"github.com/deckwright/deckwright/pkg/session"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// scriptedClassifier returns a fixed intent (or error) for every turn.
type scriptedClassifier struct {
	intent  *domain.Intent
	err     error
	op      domain.RefinementOp
	opErr   error
	barrier func()
}

func (c *scriptedClassifier) ClassifyIntent(ctx context.Context, state domain.WorkflowState, text string) (*domain.Intent, error) {
	if c.barrier != nil {
		c.barrier()
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.intent, nil
}

func (c *scriptedClassifier) ClassifyRefinement(ctx context.Context, text string) (domain.RefinementOp, error) {
	if c.opErr != nil {
		return "", c.opErr
	}
	return c.op, nil
}

type scriptedGenerator struct {
	questionsErr error
	planErr      error
	outlineErr   error
	outline      *domain.Outline

	planCalls int
}

func (g *scriptedGenerator) GenerateQuestions(ctx context.Context, s *domain.Session) (*domain.ClarifyingQuestions, error) {
	if g.questionsErr != nil {
		return nil, g.questionsErr
	}
	return &domain.ClarifyingQuestions{Questions: []string{
		"Who is the audience?", "How long is the talk?", "What tone should it take?",
	}}, nil
}

func (g *scriptedGenerator) GeneratePlan(ctx context.Context, s *domain.Session) (*domain.ConfirmationPlan, error) {
	g.planCalls++
	if g.planErr != nil {
		return nil, g.planErr
	}
	return &domain.ConfirmationPlan{
		SummaryOfUserRequest: "A deck about " + s.UserInitialRequest,
		KeyAssumptions:       []string{"executive audience"},
		ProposedSlideCount:   3,
	}, nil
}

func (g *scriptedGenerator) GenerateOutline(ctx context.Context, s *domain.Session) (*domain.Outline, error) {
	if g.outlineErr != nil {
		return nil, g.outlineErr
	}
	if g.outline != nil {
		return g.outline.Clone(), nil
	}
	o := &domain.Outline{
		MainTitle:    "AI in Healthcare",
		OverallTheme: "Informative",
		Slides: []domain.Slide{
			{SlideID: "slide_gen00001", SlideType: domain.SlideTitle, Title: "AI in Healthcare"},
			{SlideID: "slide_gen00002", SlideType: domain.SlideContent, Title: "Current Challenges"},
			{SlideID: "slide_gen00003", SlideType: domain.SlideConclusion, Title: "Next Steps"},
		},
	}
	o.Renumber()
	return o, nil
}

type fixedSynthesizer struct{}

func (fixedSynthesizer) GenerateSlide(ctx context.Context, o *domain.Outline, hint ports.SlideHint) (*domain.Slide, error) {
	return &domain.Slide{SlideType: domain.SlideContent, Title: "New Slide", Narrative: hint.Request}, nil
}

func newMachine(t *testing.T, c *scriptedClassifier, g *scriptedGenerator) (*workflow.Machine, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	m := workflow.NewMachine(mgr, c, g, refine.NewEngine(fixedSynthesizer{}))
	return m, mgr
}

// greetRaceStore hands out an unsaved greeting-less session and rejects
// every save, simulating a connection that keeps losing the greeting race.
type greetRaceStore struct {
	saves atomic.Int32
}

func (s *greetRaceStore) Load(ctx context.Context, sessionID string) (*ports.VersionedSession, error) {
	return &ports.VersionedSession{Session: domain.NewSession(sessionID, "u1"), Version: 1}, nil
}

func (s *greetRaceStore) Save(ctx context.Context, sess *domain.Session, expectedVersion int64) (int64, error) {
	s.saves.Add(1)
	return 0, domain.ErrVersionConflict
}

func (s *greetRaceStore) Delete(ctx context.Context, sessionID string) error { return nil }

func (s *greetRaceStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func TestGreet_CreateRaceIsBounded(t *testing.T) {
	store := &greetRaceStore{}
	mgr := session.NewManager(store)
	m := workflow.NewMachine(mgr, &scriptedClassifier{}, &scriptedGenerator{},
		refine.NewEngine(fixedSynthesizer{}),
		workflow.WithConfig(workflow.Config{MaxSaveRetries: 2}))

	_, err := m.Greet(context.Background(), "s1", "u1")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	// Initial attempt plus MaxSaveRetries reloads, then it gives up.
	assert.Equal(t, int32(3), store.saves.Load())
}

func intent(typ domain.IntentType, confidence float64) *domain.Intent {
	return &domain.Intent{Type: typ, Confidence: confidence}
}

func TestGreet_CreatesSessionInGreeting(t *testing.T) {
	m, mgr := newMachine(t, &scriptedClassifier{}, &scriptedGenerator{})

	res, err := m.Greet(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateGreeting, res.State)
	assert.NotEmpty(t, res.Artifact.Text)

	vs, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateGreeting, vs.Session.CurrentState)
	require.Len(t, vs.Session.ConversationHistory, 1)
	assert.Equal(t, "assistant", vs.Session.ConversationHistory[0].Role)
}

func TestAdvance_TopicMovesToClarify(t *testing.T) {
	c := &scriptedClassifier{intent: intent(domain.IntentSubmitInitialTopic, 0.95)}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	res, err := m.Advance(context.Background(), "s1", "u1", "a pitch deck about AI in healthcare")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeAdvanced, res.Outcome)
	assert.Equal(t, domain.StateGreeting, res.FromState)
	assert.Equal(t, domain.StateClarify, res.State)
	require.NotNil(t, res.Artifact.Questions)
	assert.Len(t, res.Artifact.Questions.Questions, 3)
	assert.Equal(t, "a pitch deck about AI in healthcare", res.Session.UserInitialRequest)
}

func TestAdvance_LowConfidenceHolds(t *testing.T) {
	c := &scriptedClassifier{intent: intent(domain.IntentSubmitInitialTopic, 0.3)}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	res, err := m.Advance(context.Background(), "s1", "u1", "hmm maybe something")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeHeld, res.Outcome)
	assert.Equal(t, domain.StateGreeting, res.State)
	assert.Nil(t, res.Artifact.Questions)
}

func TestAdvance_ClassificationFailureHoldsState(t *testing.T) {
	c := &scriptedClassifier{err: domain.ErrClassification}
	m, mgr := newMachine(t, c, &scriptedGenerator{})

	res, err := m.Advance(context.Background(), "s1", "u1", "garbled")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeFailed, res.Outcome)
	require.NotNil(t, res.Err)
	assert.Equal(t, workflow.CodeClassification, res.Err.Code)
	assert.True(t, res.Err.Recoverable)

	// The failed turn is still recorded.
	vs, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateGreeting, vs.Session.CurrentState)
	assert.Len(t, vs.Session.ConversationHistory, 2)
}

func TestAdvance_GenerationFailureDoesNotAdvance(t *testing.T) {
	c := &scriptedClassifier{intent: intent(domain.IntentSubmitInitialTopic, 0.9)}
	g := &scriptedGenerator{questionsErr: domain.ErrGeneration}
	m, _ := newMachine(t, c, g)

	res, err := m.Advance(context.Background(), "s1", "u1", "a deck about rockets")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeFailed, res.Outcome)
	assert.Equal(t, domain.StateGreeting, res.State)
	require.NotNil(t, res.Err)
	assert.Equal(t, workflow.CodeGeneration, res.Err.Code)
	assert.Nil(t, res.Session.ClarifyingQuestions)
}

func TestAdvance_IntentNotApplicableInState(t *testing.T) {
	c := &scriptedClassifier{intent: intent(domain.IntentAcceptOutline, 0.9)}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	res, err := m.Advance(context.Background(), "s1", "u1", "the outline is perfect")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeUnrecognized, res.Outcome)
	assert.Equal(t, domain.StateGreeting, res.State)
}

func TestAdvance_AskHelpKeepsState(t *testing.T) {
	c := &scriptedClassifier{intent: intent(domain.IntentAskHelp, 0.9)}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	res, err := m.Advance(context.Background(), "s1", "u1", "what can you do?")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeHeld, res.Outcome)
	assert.Equal(t, domain.StateGreeting, res.State)
	assert.Contains(t, res.Artifact.Text, "outline")
}

// driveTo walks a session to the requested state with scripted turns.
func driveTo(t *testing.T, m *workflow.Machine, c *scriptedClassifier, target domain.WorkflowState) {
	t.Helper()
	script := []struct {
		state  domain.WorkflowState
		intent domain.IntentType
		text   string
	}{
		{domain.StateClarify, domain.IntentSubmitInitialTopic, "a deck about AI in healthcare"},
		{domain.StatePlan, domain.IntentSubmitClarificationAnswers, "executives, 20 minutes, formal"},
		{domain.StateGenerateOutline, domain.IntentAcceptPlan, "looks good"},
		{domain.StateRefineOutline, domain.IntentAcceptOutline, "accept the outline"},
	}
	for _, step := range script {
		c.intent = intent(step.intent, 0.95)
		res, err := m.Advance(context.Background(), "s1", "u1", step.text)
		require.NoError(t, err)
		require.Equal(t, step.state, res.State)
		if step.state == target {
			return
		}
	}
	t.Fatalf("never reached %s", target)
}

func TestAdvance_FullHappyPath(t *testing.T) {
	c := &scriptedClassifier{}
	m, mgr := newMachine(t, c, &scriptedGenerator{})

	driveTo(t, m, c, domain.StateRefineOutline)

	vs, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	sess := vs.Session
	assert.Equal(t, domain.StateRefineOutline, sess.CurrentState)
	assert.NotNil(t, sess.ClarifyingQuestions)
	assert.NotNil(t, sess.ConfirmationPlan)
	require.NotNil(t, sess.Strawman)
	assert.Len(t, sess.Strawman.Slides, 3)
	assert.NoError(t, sess.Strawman.Validate())
}

func TestAdvance_RejectPlanReturnsToClarify(t *testing.T) {
	c := &scriptedClassifier{}
	g := &scriptedGenerator{}
	m, _ := newMachine(t, c, g)
	driveTo(t, m, c, domain.StatePlan)

	c.intent = intent(domain.IntentRejectPlan, 0.9)
	res, err := m.Advance(context.Background(), "s1", "u1", "no, make it for engineers instead")
	require.NoError(t, err)

	assert.Equal(t, domain.StateClarify, res.State)
	assert.Contains(t, res.Session.ClarifyingAnswers, "engineers")
}

func TestAdvance_ChangeParameterRegeneratesPlan(t *testing.T) {
	c := &scriptedClassifier{}
	g := &scriptedGenerator{}
	m, _ := newMachine(t, c, g)
	driveTo(t, m, c, domain.StateRefineOutline)
	planCallsBefore := g.planCalls

	c.intent = intent(domain.IntentChangeParameter, 0.9)
	res, err := m.Advance(context.Background(), "s1", "u1", "actually make it 10 slides")
	require.NoError(t, err)

	assert.Equal(t, domain.StatePlan, res.State)
	assert.Equal(t, planCallsBefore+1, g.planCalls)
	require.NotNil(t, res.Artifact.Plan)
}

func TestAdvance_ChangeTopicClearsContext(t *testing.T) {
	c := &scriptedClassifier{}
	m, _ := newMachine(t, c, &scriptedGenerator{})
	driveTo(t, m, c, domain.StateRefineOutline)

	c.intent = &domain.Intent{Type: domain.IntentChangeTopic, Confidence: 0.9, ExtractedInfo: "a deck about space travel"}
	res, err := m.Advance(context.Background(), "s1", "u1", "forget all that, let's do space travel")
	require.NoError(t, err)

	assert.Equal(t, domain.StateClarify, res.State)
	sess := res.Session
	assert.Equal(t, "a deck about space travel", sess.UserInitialRequest)
	assert.Nil(t, sess.Strawman)
	assert.Nil(t, sess.ConfirmationPlan)
	assert.Empty(t, sess.ClarifyingAnswers)
}

func TestAdvance_RefinementUpdatesOutline(t *testing.T) {
	c := &scriptedClassifier{}
	m, _ := newMachine(t, c, &scriptedGenerator{})
	driveTo(t, m, c, domain.StateRefineOutline)

	c.intent = intent(domain.IntentSubmitRefinement, 0.9)
	c.op = domain.OpUpdate
	res, err := m.Advance(context.Background(), "s1", "u1", "add a chart to slide 2")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeAdvanced, res.Outcome)
	assert.Equal(t, domain.StateRefineOutline, res.State)
	require.NotNil(t, res.Artifact.Outline)
	assert.Equal(t, []string{"slide_gen00002"}, res.Artifact.AffectedSlideIDs)
	assert.NotEmpty(t, res.Session.Strawman.Slides[1].AnalyticsNeeded)
}

func TestAdvance_RefinementCreateGrowsOutline(t *testing.T) {
	c := &scriptedClassifier{}
	m, _ := newMachine(t, c, &scriptedGenerator{})
	driveTo(t, m, c, domain.StateRefineOutline)

	c.intent = intent(domain.IntentSubmitRefinement, 0.9)
	c.op = domain.OpCreate
	res, err := m.Advance(context.Background(), "s1", "u1", "add a team slide after slide 1")
	require.NoError(t, err)

	require.Len(t, res.Session.Strawman.Slides, 4)
	assert.Equal(t, "New Slide", res.Session.Strawman.Slides[1].Title)
	assert.NoError(t, res.Session.Strawman.Validate())
}

func TestAdvance_AmbiguousRefinementHoldsWithSuggestions(t *testing.T) {
	c := &scriptedClassifier{}
	m, mgr := newMachine(t, c, &scriptedGenerator{})
	driveTo(t, m, c, domain.StateRefineOutline)

	c.intent = intent(domain.IntentSubmitRefinement, 0.9)
	c.op = domain.OpUpdate
	res, err := m.Advance(context.Background(), "s1", "u1", "make it punchier")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeHeld, res.Outcome)
	require.NotNil(t, res.Err)
	assert.Equal(t, workflow.CodeAmbiguous, res.Err.Code)
	assert.Len(t, res.Err.Suggestions, 3)

	// Outline unchanged in durable state.
	vs, err := mgr.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, vs.Session.Strawman.Slides, 3)
	assert.Empty(t, vs.Session.Strawman.Slides[0].AnalyticsNeeded)
}

func TestAdvance_RefinementInvalidPosition(t *testing.T) {
	c := &scriptedClassifier{}
	m, _ := newMachine(t, c, &scriptedGenerator{})
	driveTo(t, m, c, domain.StateRefineOutline)

	c.intent = intent(domain.IntentSubmitRefinement, 0.9)
	c.op = domain.OpCreate
	res, err := m.Advance(context.Background(), "s1", "u1", "add a recap after slide 42")
	require.NoError(t, err)

	assert.Equal(t, workflow.OutcomeHeld, res.Outcome)
	require.NotNil(t, res.Err)
	assert.Equal(t, workflow.CodeInvalidInput, res.Err.Code)
}

func TestAdvance_EmptyInput(t *testing.T) {
	m, _ := newMachine(t, &scriptedClassifier{}, &scriptedGenerator{})
	res, err := m.Advance(context.Background(), "s1", "u1", "   ")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeHeld, res.Outcome)
	require.NotNil(t, res.Err)
	assert.Equal(t, workflow.CodeInvalidInput, res.Err.Code)
}

func TestAdvance_ConcurrentTurnsOneWins(t *testing.T) {
	// Both goroutines load the session, then rendezvous inside the
	// classifier before either saves. Exactly one CAS can succeed.
	var barrier sync.WaitGroup
	barrier.Add(2)
	c := &scriptedClassifier{
		intent: intent(domain.IntentSubmitInitialTopic, 0.9),
		barrier: func() {
			barrier.Done()
			barrier.Wait()
		},
	}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	_, err := m.Greet(context.Background(), "s1", "u1")
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := m.Advance(context.Background(), "s1", "u1", "a deck about AI")
			errs <- err
		}()
	}
	first, second := <-errs, <-errs

	if first == nil {
		require.ErrorIs(t, second, domain.ErrVersionConflict)
	} else {
		require.ErrorIs(t, first, domain.ErrVersionConflict)
		require.NoError(t, second)
	}
}

func TestAdvanceWithRetry_RecoversFromConflict(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)
	var calls atomic.Int32
	c := &scriptedClassifier{
		intent: intent(domain.IntentSubmitInitialTopic, 0.9),
		// Rendezvous only the first two classification calls; retries pass.
		barrier: func() {
			if calls.Add(1) <= 2 {
				barrier.Done()
				barrier.Wait()
			}
		},
	}
	m, _ := newMachine(t, c, &scriptedGenerator{})

	_, err := m.Greet(context.Background(), "s1", "u1")
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := m.AdvanceWithRetry(context.Background(), "s1", "u1", "a deck about AI")
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestAdvance_RegeneratedOutlineRetiresOldIDs(t *testing.T) {
	c := &scriptedClassifier{}
	g := &scriptedGenerator{}
	m, _ := newMachine(t, c, g)
	driveTo(t, m, c, domain.StateRefineOutline)

	// Back to PLAN, then accept again to regenerate.
	c.intent = intent(domain.IntentChangeParameter, 0.9)
	_, err := m.Advance(context.Background(), "s1", "u1", "make it shorter")
	require.NoError(t, err)

	second := &domain.Outline{
		MainTitle: "AI in Healthcare",
		Slides: []domain.Slide{
			{SlideID: "slide_new00001", SlideType: domain.SlideTitle, Title: "AI in Healthcare"},
			{SlideID: "slide_new00002", SlideType: domain.SlideConclusion, Title: "Wrap Up"},
		},
	}
	second.Renumber()
	g.outline = second

	c.intent = intent(domain.IntentAcceptPlan, 0.9)
	res, err := m.Advance(context.Background(), "s1", "u1", "go ahead")
	require.NoError(t, err)

	straw := res.Session.Strawman
	require.Len(t, straw.Slides, 2)
	assert.Contains(t, straw.RetiredSlideIDs, "slide_gen00001")
	assert.Contains(t, straw.RetiredSlideIDs, "slide_gen00002")
	assert.Contains(t, straw.RetiredSlideIDs, "slide_gen00003")
}
