package synthesis

import "errors"

// Sentinel errors raised during loop construction. Everything that can go
// wrong after Run starts is either a terminal state or a wrapped backend
// failure, never a sentinel.
var (
	ErrNoArtifacts       = errors.New("session declares no artifacts")
	ErrEmptyArtifactName = errors.New("artifact name is empty")
	ErrDuplicateArtifact = errors.New("artifact declared twice")
	ErrInvalidBudget     = errors.New("iteration budget must be at least 1")
	ErrNilProvider       = errors.New("provider is nil")
)
