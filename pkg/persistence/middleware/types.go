// Package middleware provides wrappers around a ports.SessionStore that add
// behavior on the persistence path: masking PII before it is written and
// encrypting sessions at rest. The workflow core never sees the wrappers;
// they compose under the session manager.
package middleware

import "github.com/deckwright/deckwright/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first listed runs first on Save. Masking
// must come before encryption, so list the PII masker ahead of it.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
