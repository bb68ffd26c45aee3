package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
	"github.com/deckwright/deckwright/pkg/refine"
	"github.com/deckwright/deckwright/pkg/session"
)

// Config tunes per-turn behavior. Zero values fall back to the defaults.
type Config struct {
	// AcceptConfidence is the minimum classifier confidence to act on an
	// intent. Below it the machine holds and re-prompts.
	AcceptConfidence float64
	// ClassifyTimeout bounds a single intent classification call.
	ClassifyTimeout time.Duration
	// GenerateTimeout bounds a single artifact generation call.
	GenerateTimeout time.Duration
	// MaxSaveRetries bounds how often AdvanceWithRetry re-runs a turn that
	// lost the save race.
	MaxSaveRetries int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.AcceptConfidence <= 0 {
		out.AcceptConfidence = 0.6
	}
	if out.ClassifyTimeout <= 0 {
		out.ClassifyTimeout = 15 * time.Second
	}
	if out.GenerateTimeout <= 0 {
		out.GenerateTimeout = 60 * time.Second
	}
	if out.MaxSaveRetries <= 0 {
		out.MaxSaveRetries = 3
	}
	return out
}

// Hooks are optional observation points. Nil fields are skipped. They run
// synchronously on the turn path and must be fast.
type Hooks struct {
	OnTurn       func(state domain.WorkflowState, intent domain.IntentType, outcome Outcome)
	OnTransition func(from, to domain.WorkflowState, intent domain.IntentType)
	OnRefinement func(op domain.RefinementOp, affected int)
	OnGeneration func(kind string, elapsed time.Duration, err error)
	OnConflict   func(sessionID string)
}

// Machine drives the conversation workflow. One Machine serves all sessions;
// per-session state lives entirely in the store behind the session manager.
type Machine struct {
	sessions   *session.Manager
	classifier ports.IntentClassifier
	generator  ports.Generator
	refiner    *refine.Engine

	cfg    Config
	hooks  Hooks
	logger *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithConfig overrides the default tuning.
func WithConfig(cfg Config) Option {
	return func(m *Machine) {
		m.cfg = cfg.withDefaults()
	}
}

// WithHooks installs observation hooks.
func WithHooks(h Hooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// NewMachine wires the workflow over its four collaborators.
func NewMachine(sessions *session.Manager, classifier ports.IntentClassifier, generator ports.Generator, refiner *refine.Engine, opts ...Option) *Machine {
	m := &Machine{
		sessions:   sessions,
		classifier: classifier,
		generator:  generator,
		refiner:    refiner,
		cfg:        (&Config{}).withDefaults(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Greet opens (or resumes) a session without consuming a user turn. For a
// fresh session it records the greeting; for an existing one it replays the
// prompt matching its current state. A lost save race means another
// connection greeted first, so the session is reloaded, at most
// MaxSaveRetries times.
func (m *Machine) Greet(ctx context.Context, sessionID, userID string) (*TurnResult, error) {
	for attempt := 0; ; attempt++ {
		vs, err := m.sessions.LoadOrStart(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		sess := vs.Session

		res := &TurnResult{
			SessionID: sessionID,
			FromState: sess.CurrentState,
			State:     sess.CurrentState,
			Outcome:   OutcomeHeld,
			Artifact:  Artifact{Text: Reprompt(sess.CurrentState)},
			Version:   vs.Version,
		}

		if len(sess.ConversationHistory) == 0 {
			sess.AppendTurn("assistant", res.Artifact.Text)
			version, err := m.sessions.Save(ctx, sess, vs.Version)
			if err != nil {
				if errors.Is(err, domain.ErrVersionConflict) && attempt < m.cfg.MaxSaveRetries {
					continue
				}
				return nil, err
			}
			res.Version = version
		}
		res.Session = sess
		return res, nil
	}
}

// Advance processes one user turn: classify, transition, generate, persist.
// Exactly one concurrent Advance per session version can succeed; the losers
// return domain.ErrVersionConflict and must be retried against the fresh
// state (see AdvanceWithRetry).
func (m *Machine) Advance(ctx context.Context, sessionID, userID, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return &TurnResult{
			SessionID: sessionID,
			Outcome:   OutcomeHeld,
			Artifact:  Artifact{Text: "I didn't catch that. " + Reprompt(domain.StateGreeting)},
			Err: &TurnError{
				Code:        CodeInvalidInput,
				Message:     "empty message",
				Recoverable: true,
			},
		}, nil
	}

	vs, err := m.sessions.LoadOrStart(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	sess := vs.Session

	res := m.process(ctx, sess, text)

	version, err := m.sessions.Save(ctx, sess, vs.Version)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			if m.hooks.OnConflict != nil {
				m.hooks.OnConflict(sessionID)
			}
			m.logger.Debug("turn lost save race", "session_id", sessionID, "version", vs.Version)
		}
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	res.Session = sess
	res.Version = version

	if m.hooks.OnTurn != nil {
		var intentType domain.IntentType
		if res.Intent != nil {
			intentType = res.Intent.Type
		}
		m.hooks.OnTurn(res.FromState, intentType, res.Outcome)
	}
	return res, nil
}

// AdvanceWithRetry re-runs a turn that lost the compare-and-swap race against
// the reloaded session, up to MaxSaveRetries times. This is the entry point
// transports should use.
func (m *Machine) AdvanceWithRetry(ctx context.Context, sessionID, userID, text string) (*TurnResult, error) {
	var lastErr error
	for attempt := 0; attempt <= m.cfg.MaxSaveRetries; attempt++ {
		res, err := m.Advance(ctx, sessionID, userID, text)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("turn kept losing the save race after %d retries: %w", m.cfg.MaxSaveRetries, lastErr)
}

// process mutates sess and produces the turn result. Persistence is the
// caller's job.
func (m *Machine) process(ctx context.Context, sess *domain.Session, text string) *TurnResult {
	from := sess.CurrentState
	res := &TurnResult{
		SessionID: sess.ID,
		FromState: from,
		State:     from,
	}

	sess.AppendTurn("user", text)

	intent, err := m.classify(ctx, from, text)
	if err != nil {
		m.logger.Warn("intent classification failed", "session_id", sess.ID, "state", string(from), "err", err)
		res.Outcome = OutcomeFailed
		res.Err = &TurnError{
			Code:        CodeClassification,
			Message:     "I had trouble understanding that. Could you rephrase?",
			Recoverable: true,
		}
		res.Artifact = Artifact{Text: res.Err.Message}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}
	res.Intent = intent

	if intent.Confidence < m.cfg.AcceptConfidence {
		m.logger.Debug("intent below confidence threshold",
			"session_id", sess.ID, "intent", string(intent.Type), "confidence", intent.Confidence)
		res.Outcome = OutcomeHeld
		res.Artifact = Artifact{Text: "Just to be sure I follow: " + Reprompt(from)}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	// Cross-state intents first.
	switch intent.Type {
	case domain.IntentAskHelp:
		res.Outcome = OutcomeHeld
		res.Artifact = Artifact{Text: helpText, SubTitle: Reprompt(from)}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	case domain.IntentChangeTopic:
		return m.changeTopic(ctx, sess, intent, text, res)
	}

	next, ok := Next(from, intent.Type)
	if !ok {
		res.Outcome = OutcomeUnrecognized
		res.Artifact = Artifact{Text: "That doesn't apply right now. " + Reprompt(from)}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	var turnErr *TurnError
	switch {
	case from == domain.StateGreeting && intent.Type == domain.IntentSubmitInitialTopic:
		sess.UserInitialRequest = extractedOr(intent, text)
		res.Artifact, turnErr = m.enterClarify(ctx, sess)

	case from == domain.StateClarify && intent.Type == domain.IntentSubmitClarificationAnswers:
		sess.ClarifyingAnswers = extractedOr(intent, text)
		res.Artifact, turnErr = m.enterPlan(ctx, sess)

	case intent.Type == domain.IntentRejectPlan:
		// Fold the objection into the answers and re-clarify.
		sess.ClarifyingAnswers = joinFeedback(sess.ClarifyingAnswers, text)
		res.Artifact, turnErr = m.enterClarify(ctx, sess)

	case intent.Type == domain.IntentChangeParameter:
		sess.ClarifyingAnswers = joinFeedback(sess.ClarifyingAnswers, extractedOr(intent, text))
		res.Artifact, turnErr = m.enterPlan(ctx, sess)

	case intent.Type == domain.IntentAcceptPlan:
		res.Artifact, turnErr = m.enterGenerateOutline(ctx, sess)

	case intent.Type == domain.IntentAcceptOutline:
		res.Artifact = Artifact{
			Text:    "Great, the outline is locked in. " + Reprompt(domain.StateRefineOutline),
			Outline: sess.Strawman,
		}

	case intent.Type == domain.IntentSubmitRefinement:
		return m.applyRefinement(ctx, sess, text, res)

	default:
		res.Outcome = OutcomeUnrecognized
		res.Artifact = Artifact{Text: Reprompt(from)}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	if turnErr != nil {
		// Generation failed: the turn does not advance.
		res.Outcome = OutcomeFailed
		res.Err = turnErr
		res.Artifact = Artifact{Text: turnErr.Message}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	m.transition(sess, res, next, intent.Type)
	return res
}

// changeTopic abandons everything gathered so far and restarts clarification
// with the new topic. Works from any state.
func (m *Machine) changeTopic(ctx context.Context, sess *domain.Session, intent *domain.Intent, text string, res *TurnResult) *TurnResult {
	sess.ClearContext()
	sess.AppendTurn("user", text)
	sess.UserInitialRequest = extractedOr(intent, text)

	artifact, turnErr := m.enterClarify(ctx, sess)
	if turnErr != nil {
		res.Outcome = OutcomeFailed
		res.Err = turnErr
		res.Artifact = Artifact{Text: turnErr.Message}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}
	res.Artifact = artifact
	m.transition(sess, res, domain.StateClarify, intent.Type)
	return res
}

// applyRefinement runs the REFINE_OUTLINE self-loop: classify the op, apply
// it, swap in the new outline. Recoverable refinement errors hold the state
// with guidance instead of failing the turn.
func (m *Machine) applyRefinement(ctx context.Context, sess *domain.Session, text string, res *TurnResult) *TurnResult {
	if sess.Strawman == nil {
		res.Outcome = OutcomeUnrecognized
		res.Artifact = Artifact{Text: "There is no outline to refine yet. " + Reprompt(sess.CurrentState)}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	cctx, cancel := context.WithTimeout(ctx, m.cfg.ClassifyTimeout)
	op, err := m.classifier.ClassifyRefinement(cctx, text)
	cancel()
	if err != nil {
		m.logger.Warn("refinement classification failed", "session_id", sess.ID, "err", err)
		res.Outcome = OutcomeFailed
		res.Err = &TurnError{Code: CodeClassification, Message: "I couldn't work out what change you want. Could you rephrase?", Recoverable: true}
		res.Artifact = Artifact{Text: res.Err.Message}
		sess.AppendTurn("assistant", res.Artifact.Text)
		return res
	}

	gctx, cancel := context.WithTimeout(ctx, m.cfg.GenerateTimeout)
	start := time.Now()
	applied, err := m.refiner.Apply(gctx, sess.Strawman, refine.Request{Op: op, Text: text})
	cancel()
	if op == domain.OpCreate && m.hooks.OnGeneration != nil {
		m.hooks.OnGeneration("slide", time.Since(start), err)
	}
	if err != nil {
		return m.refinementError(sess, res, err)
	}

	sess.Strawman = applied.Outline
	sess.RefinementFeedback = text
	res.Outcome = OutcomeAdvanced
	res.Artifact = Artifact{
		Text:             refinementSummary(applied),
		Outline:          applied.Outline,
		AffectedSlideIDs: applied.Affected,
	}
	sess.AppendTurn("assistant", res.Artifact.Text)

	if m.hooks.OnRefinement != nil {
		m.hooks.OnRefinement(applied.Op, len(applied.Affected))
	}
	m.logger.Info("refinement applied",
		"session_id", sess.ID, "op", string(applied.Op), "affected", len(applied.Affected))
	return res
}

func (m *Machine) refinementError(sess *domain.Session, res *TurnResult, err error) *TurnResult {
	switch {
	case errors.Is(err, domain.ErrAmbiguousTarget):
		res.Outcome = OutcomeHeld
		res.Err = &TurnError{
			Code:        CodeAmbiguous,
			Message:     "I couldn't tell which slide you mean.",
			Recoverable: true,
			Suggestions: slideSuggestions(sess.Strawman),
		}
		res.Artifact = Artifact{Text: res.Err.Message + " Could you name it by number, like \"slide 2\"?"}
	case errors.Is(err, domain.ErrInvalidPosition):
		res.Outcome = OutcomeHeld
		res.Err = &TurnError{
			Code:        CodeInvalidInput,
			Message:     fmt.Sprintf("That position doesn't exist; the outline has %d slides.", len(sess.Strawman.Slides)),
			Recoverable: true,
		}
		res.Artifact = Artifact{Text: res.Err.Message}
	case errors.Is(err, domain.ErrEmptyRequest):
		res.Outcome = OutcomeHeld
		res.Err = &TurnError{Code: CodeInvalidInput, Message: "Tell me what to change first.", Recoverable: true}
		res.Artifact = Artifact{Text: res.Err.Message}
	default:
		m.logger.Error("refinement failed", "session_id", sess.ID, "err", err)
		res.Outcome = OutcomeFailed
		res.Err = &TurnError{Code: CodeGeneration, Message: "I couldn't apply that change. The outline is unchanged; please try again.", Recoverable: true}
		res.Artifact = Artifact{Text: res.Err.Message}
	}
	sess.AppendTurn("assistant", res.Artifact.Text)
	return res
}

func (m *Machine) enterClarify(ctx context.Context, sess *domain.Session) (Artifact, *TurnError) {
	questions, err := generate(m, ctx, "questions", func(gctx context.Context) (*domain.ClarifyingQuestions, error) {
		return m.generator.GenerateQuestions(gctx, sess)
	})
	if err != nil {
		return Artifact{}, generationError("I couldn't come up with clarifying questions just now. Please resend your topic.")
	}
	sess.ClarifyingQuestions = questions
	return Artifact{
		Text:      "A few questions before I draft anything:",
		ListItems: questions.Questions,
		Questions: questions,
	}, nil
}

func (m *Machine) enterPlan(ctx context.Context, sess *domain.Session) (Artifact, *TurnError) {
	plan, err := generate(m, ctx, "plan", func(gctx context.Context) (*domain.ConfirmationPlan, error) {
		return m.generator.GeneratePlan(gctx, sess)
	})
	if err != nil {
		return Artifact{}, generationError("I couldn't put a plan together just now. Please try again.")
	}
	sess.ConfirmationPlan = plan
	return Artifact{
		Text:      fmt.Sprintf("Here's my plan: %s (%d slides).", plan.SummaryOfUserRequest, plan.ProposedSlideCount),
		SubTitle:  "Key assumptions:",
		ListItems: plan.KeyAssumptions,
		Plan:      plan,
		Choices: []Choice{
			{Label: "Looks good", Value: string(domain.IntentAcceptPlan), Primary: true},
			{Label: "Change something", Value: string(domain.IntentRejectPlan), RequiresInput: true},
		},
	}, nil
}

func (m *Machine) enterGenerateOutline(ctx context.Context, sess *domain.Session) (Artifact, *TurnError) {
	outline, err := generate(m, ctx, "outline", func(gctx context.Context) (*domain.Outline, error) {
		return m.generator.GenerateOutline(gctx, sess)
	})
	if err != nil {
		return Artifact{}, generationError("Outline generation failed. Your plan is intact; say \"go ahead\" to try again.")
	}

	fresh := outline.Clone()
	fresh.Normalize()
	if err := fresh.Validate(); err != nil {
		m.logger.Error("generated outline failed validation", "session_id", sess.ID, "err", err)
		return Artifact{}, generationError("Outline generation produced something unusable. Please try again.")
	}

	// A regenerated outline replaces the old one wholesale; prior slide ids
	// stay retired so they are never reissued.
	if sess.Strawman != nil {
		retired := append([]string(nil), sess.Strawman.RetiredSlideIDs...)
		for _, s := range sess.Strawman.Slides {
			retired = append(retired, s.SlideID)
		}
		fresh.RetiredSlideIDs = append(retired, fresh.RetiredSlideIDs...)
	}
	sess.Strawman = fresh

	return Artifact{
		Text:    fmt.Sprintf("Here's a %d-slide outline for \"%s\".", len(fresh.Slides), fresh.MainTitle),
		Outline: fresh,
		Choices: []Choice{
			{Label: "Accept outline", Value: string(domain.IntentAcceptOutline), Primary: true},
			{Label: "Refine it", Value: string(domain.IntentSubmitRefinement), RequiresInput: true},
		},
	}, nil
}

func (m *Machine) transition(sess *domain.Session, res *TurnResult, next domain.WorkflowState, intent domain.IntentType) {
	from := sess.CurrentState
	sess.CurrentState = next
	res.State = next
	res.Outcome = OutcomeAdvanced
	sess.AppendTurn("assistant", res.Artifact.Text)

	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(from, next, intent)
	}
	m.logger.Info("workflow transition",
		"session_id", sess.ID, "from", string(from), "to", string(next), "intent", string(intent))
}

func (m *Machine) classify(ctx context.Context, state domain.WorkflowState, text string) (*domain.Intent, error) {
	cctx, cancel := context.WithTimeout(ctx, m.cfg.ClassifyTimeout)
	defer cancel()

	intent, err := m.classifier.ClassifyIntent(cctx, state, text)
	if err != nil {
		return nil, err
	}
	if intent == nil || !intent.Type.Valid() {
		return nil, fmt.Errorf("classifier returned invalid intent: %w", domain.ErrClassification)
	}
	return intent, nil
}

// generate runs one generator call under the generation timeout and reports
// its duration to the hook. A free function because methods cannot be generic.
func generate[T any](m *Machine, ctx context.Context, kind string, fn func(context.Context) (T, error)) (T, error) {
	gctx, cancel := context.WithTimeout(ctx, m.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	out, err := fn(gctx)
	if m.hooks.OnGeneration != nil {
		m.hooks.OnGeneration(kind, time.Since(start), err)
	}
	if err != nil {
		m.logger.Warn("generation failed", "kind", kind, "err", err)
	}
	return out, err
}

func generationError(msg string) *TurnError {
	return &TurnError{Code: CodeGeneration, Message: msg, Recoverable: true}
}

func extractedOr(intent *domain.Intent, text string) string {
	if s := strings.TrimSpace(intent.ExtractedInfo); s != "" {
		return s
	}
	return text
}

func joinFeedback(existing, addition string) string {
	addition = strings.TrimSpace(addition)
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}

func refinementSummary(res *refine.Result) string {
	switch res.Op {
	case domain.OpCreate:
		return fmt.Sprintf("Added a slide; the outline now has %d slides.", len(res.Outline.Slides))
	case domain.OpDelete:
		return fmt.Sprintf("Removed the slide; %d slides remain.", len(res.Outline.Slides))
	default:
		if len(res.Affected) == 1 {
			if i := res.Outline.SlideByID(res.Affected[0]); i >= 0 {
				return fmt.Sprintf("Updated slide %d.", res.Outline.Slides[i].SlideNumber)
			}
		}
		return fmt.Sprintf("Updated %d slide(s).", len(res.Affected))
	}
}

func slideSuggestions(o *domain.Outline) []string {
	if o == nil {
		return nil
	}
	out := make([]string, 0, len(o.Slides))
	for _, s := range o.Slides {
		out = append(out, fmt.Sprintf("slide %d: %s", s.SlideNumber, s.Title))
	}
	return out
}
