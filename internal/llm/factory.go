package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lemonscan/internal/schema"
)

// NewProvider creates a provider based on configuration. An empty provider
// name means the generative producer is disabled; the caller runs
// guardrails-only.
func NewProvider(config Config, enums *schema.Enums, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, enums, logger)

	case "ollama":
		return NewOllamaProvider(config, enums, logger)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
