package middleware

import (
	"context"
	"regexp"

	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/ports"
)

const maskReplacement = "***"

type piiStore struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMasker creates a middleware that masks pattern matches (emails,
// phone numbers, whatever the deployment considers sensitive) in the
// free-text parts of a session before it is persisted. The in-memory
// session the workflow holds is left untouched; masking applies to the
// stored copy only. Structured artifacts such as the outline are generated
// content and pass through unmodified.
func NewPIIMasker(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiStore{next: next, patterns: patterns}
	}
}

func (m *piiStore) Save(ctx context.Context, session *domain.Session, expectedVersion int64) (int64, error) {
	cloned := session.Clone()

	cloned.UserInitialRequest = m.mask(cloned.UserInitialRequest)
	cloned.ClarifyingAnswers = m.mask(cloned.ClarifyingAnswers)
	cloned.RefinementFeedback = m.mask(cloned.RefinementFeedback)
	for i := range cloned.ConversationHistory {
		cloned.ConversationHistory[i].Content = m.mask(cloned.ConversationHistory[i].Content)
	}

	return m.next.Save(ctx, cloned, expectedVersion)
}

func (m *piiStore) Load(ctx context.Context, sessionID string) (*ports.VersionedSession, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiStore) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiStore) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, maskReplacement)
	}
	return text
}
