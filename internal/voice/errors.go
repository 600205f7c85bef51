package voice

import "errors"

// Error taxonomy. Callers test with errors.Is; everything else the facade
// returns is a wrapped lower-level failure.
var (
	// ErrInsufficientData marks operations that need samples or tokens the
	// identity does not have yet.
	ErrInsufficientData = errors.New("voice: insufficient data")

	// ErrEmbeddingUnavailable marks a failed or timed-out embedding backend.
	// Similarity results without an embedding would be meaningless, so the
	// failure is surfaced instead of skipped.
	ErrEmbeddingUnavailable = errors.New("voice: embedding unavailable")

	// ErrUnknownIdentity marks feedback or evaluation against an identity
	// that was never set up.
	ErrUnknownIdentity = errors.New("voice: unknown identity")

	// ErrInvalidFeedback marks empty candidate text or a ranking with fewer
	// than two items.
	ErrInvalidFeedback = errors.New("voice: invalid feedback")
)
