// Package mock provides an AI provider for development and tests.
package mock

import (
	"context"
	"fmt"

	"github.com/utilityhub/utilityhub/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_       string
	ExplainFunc func(ctx context.Context, report map[string]any) (models.ExplainResult, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) ExplainReport(ctx context.Context, report map[string]any) (models.ExplainResult, error) {
	if m.ExplainFunc != nil {
		return m.ExplainFunc(ctx, report)
	}
	return models.ExplainResult{}, nil
}

// NewProvider returns a MockProvider that derives a canned explanation from
// the report summary, so development environments work without an API key.
func NewProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		ExplainFunc: func(_ context.Context, report map[string]any) (models.ExplainResult, error) {
			rows := "an unknown number of"
			if summary, ok := report["summary"].(map[string]any); ok {
				if n, ok := summary["rowCount"]; ok {
					rows = fmt.Sprintf("%v", n)
				}
			}
			return models.ExplainResult{
				Summary:       fmt.Sprintf("Mock explanation: the dataset has %v rows.", rows),
				CleaningSteps: []string{"Review columns with missing values", "Remove duplicate rows"},
				Risks:         []string{"Mock provider output is not a real analysis"},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		ExplainFunc: func(_ context.Context, _ map[string]any) (models.ExplainResult, error) {
			return models.ExplainResult{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		ExplainFunc: func(ctx context.Context, _ map[string]any) (models.ExplainResult, error) {
			<-ctx.Done()
			return models.ExplainResult{}, models.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
