package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrVersionConflict is returned when a compare-and-swap save observes a
// version other than the expected one. The caller must reload and may retry.
var ErrVersionConflict = errors.New("session version conflict")

// ErrAmbiguousTarget is returned when a refinement request cannot be resolved
// to exactly one slide. It is surfaced as a disambiguation prompt, never guessed.
var ErrAmbiguousTarget = errors.New("ambiguous slide target")

// ErrInvalidPosition is returned when a create request names a placement that
// does not exist in the outline.
var ErrInvalidPosition = errors.New("invalid slide position")

// ErrEmptyRequest is returned when a refinement request carries no usable text.
var ErrEmptyRequest = errors.New("empty refinement request")

// ErrClassification is returned when the intent classifier is unavailable or
// produced an unusable result. Always recoverable: the state holds.
var ErrClassification = errors.New("intent classification failed")

// ErrGeneration is returned when the outline or slide generation contract fails.
var ErrGeneration = errors.New("content generation failed")
