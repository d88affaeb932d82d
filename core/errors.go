package orchestration

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when a turn reaches a backend whose client
// was never configured on the orchestrator.
var ErrNotInitialized = errors.New("not initialized")

// Backend names for ProviderError.
const (
	BackendSpeech = "speech"
	BackendLLM    = "llm"
)

// ProviderError wraps a failed speech or LLM backend call. The core
// performs no retries; the error surfaces to the immediate caller of the
// operation that triggered it.
type ProviderError struct {
	Backend string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
