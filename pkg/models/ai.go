package models

import (
	"context"
	"errors"
)

// Provider-level errors. Providers wrap these so callers can classify
// failures without importing a concrete provider package.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// AIProvider is the core interface that all AI integrations must implement.
// Never call specific AI providers directly — always inject this interface.
type AIProvider interface {
	// ExplainReport turns a profiling report into a plain-language explanation.
	ExplainReport(ctx context.Context, report map[string]any) (ExplainResult, error)
	// Name returns the provider identifier (e.g., "openai", "mock").
	Name() string
}

// ExplainResult is the structured output of ExplainReport.
type ExplainResult struct {
	Summary       string   `json:"summary"`
	CleaningSteps []string `json:"cleaningSteps"`
	Risks         []string `json:"risks"`
}
