package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidSession indicates an invalid session identifier.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionNotFound indicates a requested session could not be found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions indicates the session limit was reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrInvalidRecall indicates an unknown recall direction. It wraps
	// ErrInvalidRequest.
	ErrInvalidRecall = fmt.Errorf("%w: unknown recall direction", ErrInvalidRequest)
	// ErrInvalidScanPolicy indicates an unknown scan policy.
	ErrInvalidScanPolicy = errors.New("invalid scan policy")
)
