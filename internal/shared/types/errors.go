package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown recommendation id.
	ErrNotFound = errors.New("recommendation not found")
	// ErrInvalidTransition reports a resolve on an already-resolved
	// recommendation; pending -> implemented/rejected are the only legal
	// transitions and both are terminal.
	ErrInvalidTransition = errors.New("recommendation already resolved")
)

// ExternalProviderError wraps a failure of an external collaborator (the
// narrative provider or an upstream data fetch). It is caught at the
// boundary and reported as a degraded result, never propagated into the
// numeric pipeline.
type ExternalProviderError struct {
	Provider string
	Err      error
}

func (e *ExternalProviderError) Error() string {
	return fmt.Sprintf("external provider %s: %v", e.Provider, e.Err)
}

func (e *ExternalProviderError) Unwrap() error {
	return e.Err
}
