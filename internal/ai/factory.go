package ai

import (
	"fmt"

	"github.com/utilityhub/utilityhub/internal/ai/mock"
	"github.com/utilityhub/utilityhub/internal/ai/openai"
	"github.com/utilityhub/utilityhub/internal/config"
	"github.com/utilityhub/utilityhub/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.APIKey, cfg.Model, cfg.InferenceTimeout), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, mock", cfg.Provider)
	}
}
