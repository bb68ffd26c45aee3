/*
Package deckwright builds presentation outlines through a guided
conversation. A fixed five-state workflow takes a user from a raw topic to a
refinable slide-by-slide strawman:

	GREETING → CLARIFY → PLAN → GENERATE_OUTLINE → REFINE_OUTLINE

The core is transport-agnostic. Sessions are persisted behind a
compare-and-swap store (Redis in production, memory in dev), every user turn
is routed through an intent classifier, and artifact generation is delegated
to a language model behind narrow contracts. Refinements in the terminal
state are structural operations on the outline: update a slide, create one,
delete one. Slide identities are stable for the lifetime of the outline and
never reused, so frontends can re-render incrementally.

# Usage

Wire the core once and drive it from any transport:

	store := memory.NewStore()
	model, err := llm.New(llm.Config{APIKey: key, Model: "gpt-4o"})
	if err != nil {
		log.Fatal(err)
	}

	app := deckwright.New(deckwright.Deps{
		Store:      store,
		Classifier: model,
		Generator:  model,
	})

	res, err := app.Machine.AdvanceWithRetry(ctx, "session-1", "user-1",
		"I need a pitch deck about AI in healthcare")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Artifact.Text)

The cmd/deckwright binary exposes the same core over HTTP, MCP and an
interactive terminal chat.
*/
package deckwright
