package deckwright

import (
	"log/slog"

	"github.com/deckwright/deckwright/pkg/ports"
	"github.com/deckwright/deckwright/pkg/refine"
	"github.com/deckwright/deckwright/pkg/session"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/deckwright/deckwright.Version=...".
var Version = "0.1.0-dev"

// App bundles the wired core: the state machine plus the session manager it
// runs on. Embedders construct it once and drive it from any transport.
type App struct {
	Machine  *workflow.Machine
	Sessions *session.Manager
}

// Deps are the external collaborators the core needs. Store is required;
// Classifier and Generator are usually one LLM adapter implementing both.
type Deps struct {
	Store      ports.SessionStore
	Classifier ports.IntentClassifier
	Generator  ports.Generator
	// Synthesizer creates single slides during refinement. When nil and
	// Generator implements ports.SlideSynthesizer, that implementation is
	// used.
	Synthesizer ports.SlideSynthesizer
}

// Option configures the App.
type Option func(*options)

type options struct {
	logger *slog.Logger
	cfg    *workflow.Config
	hooks  *workflow.Hooks
}

// WithLogger sets the logger for every wired component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithWorkflowConfig overrides state machine tuning.
func WithWorkflowConfig(cfg workflow.Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithHooks installs workflow observation hooks.
func WithHooks(h workflow.Hooks) Option {
	return func(o *options) { o.hooks = &h }
}

// New wires the default stack over the given dependencies.
func New(deps Deps, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	synth := deps.Synthesizer
	if synth == nil {
		if s, ok := deps.Generator.(ports.SlideSynthesizer); ok {
			synth = s
		}
	}

	var mgrOpts []session.Option
	var engOpts []refine.Option
	var machineOpts []workflow.Option
	if o.logger != nil {
		mgrOpts = append(mgrOpts, session.WithLogger(o.logger))
		engOpts = append(engOpts, refine.WithLogger(o.logger))
		machineOpts = append(machineOpts, workflow.WithLogger(o.logger))
	}
	if o.cfg != nil {
		machineOpts = append(machineOpts, workflow.WithConfig(*o.cfg))
	}
	if o.hooks != nil {
		machineOpts = append(machineOpts, workflow.WithHooks(*o.hooks))
	}

	sessions := session.NewManager(deps.Store, mgrOpts...)
	engine := refine.NewEngine(synth, engOpts...)
	machine := workflow.NewMachine(sessions, deps.Classifier, deps.Generator, engine, machineOpts...)

	return &App{Machine: machine, Sessions: sessions}
}
