package protocol

import (
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// EncodeTurn renders a processed turn as its outbound envelopes, in send
// order: chat text first, then the outline, then any action request, then
// error guidance, then a closing status. A turn always yields at least the
// status envelope.
func EncodeTurn(res *workflow.TurnResult) []Envelope {
	var out []Envelope
	art := res.Artifact

	if art.Text != "" {
		out = append(out, newEnvelope(res.SessionID, KindChatMessage, ChatPayload{
			Text:      art.Text,
			SubTitle:  art.SubTitle,
			ListItems: questionsOrItems(art),
			Format:    "markdown",
		}))
	}

	if art.Outline != nil {
		out = append(out, encodeOutline(res.SessionID, art.Outline, art.AffectedSlideIDs))
	}

	if len(art.Choices) > 0 {
		actions := make([]Action, len(art.Choices))
		for i, c := range art.Choices {
			actions[i] = Action{Label: c.Label, Value: c.Value, Primary: c.Primary, RequiresInput: c.RequiresInput}
		}
		out = append(out, newEnvelope(res.SessionID, KindActionRequest, ActionPayload{
			PromptText: art.Text,
			Actions:    actions,
		}))
	}

	if env, ok := errorEnvelope(res); ok {
		out = append(out, env)
	}

	out = append(out, closingStatus(res))
	return out
}

// errorEnvelope maps a turn error onto the wire. Ambiguous slide targets
// become an action_request listing the candidates so the user can pick;
// other recoverable errors travel as an error_response. Generation failures
// are reported through the closing status instead.
func errorEnvelope(res *workflow.TurnResult) (Envelope, bool) {
	if res.Err == nil || res.Err.Code == workflow.CodeGeneration {
		return Envelope{}, false
	}
	if res.Err.Code == workflow.CodeAmbiguous && len(res.Err.Suggestions) > 0 {
		actions := make([]Action, len(res.Err.Suggestions))
		for i, s := range res.Err.Suggestions {
			actions[i] = Action{Label: s, Value: s}
		}
		return newEnvelope(res.SessionID, KindActionRequest, ActionPayload{
			PromptText: res.Err.Message,
			Actions:    actions,
		}), true
	}
	return ErrorResponse(res.SessionID, string(res.Err.Code), res.Err.Message, res.Err.Suggestions), true
}

func encodeOutline(sessionID string, o *domain.Outline, affected []string) Envelope {
	op := OpFullUpdate
	slides := o.Slides
	if len(affected) > 0 {
		// A partial update carries only the changed slides.
		op = OpPartialUpdate
		slides = filterSlides(o.Slides, affected)
	}
	return newEnvelope(sessionID, KindSlideUpdate, SlidePayload{
		OperationType: op,
		Metadata: OutlineMetadata{
			MainTitle:            o.MainTitle,
			OverallTheme:         o.OverallTheme,
			DesignSuggestions:    o.DesignSuggestions,
			TargetAudience:       o.TargetAudience,
			PresentationDuration: o.PresentationDuration,
		},
		Slides:           slides,
		AffectedSlideIDs: affected,
	})
}

func filterSlides(slides []domain.Slide, affected []string) []domain.Slide {
	wanted := make(map[string]struct{}, len(affected))
	for _, id := range affected {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Slide, 0, len(affected))
	for _, s := range slides {
		if _, ok := wanted[s.SlideID]; ok {
			out = append(out, s)
		}
	}
	return out
}

func closingStatus(res *workflow.TurnResult) Envelope {
	if res.Err != nil && res.Err.Code == workflow.CodeGeneration {
		return Status(res.SessionID, StatusError, res.Err.Message)
	}
	return Status(res.SessionID, StatusIdle, "")
}

// questionsOrItems prefers explicit list items, falling back to clarifying
// questions so they render as a list rather than a text blob.
func questionsOrItems(art workflow.Artifact) []string {
	if len(art.ListItems) > 0 {
		return art.ListItems
	}
	if art.Questions != nil {
		return art.Questions.Questions
	}
	return nil
}
