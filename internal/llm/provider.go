// Package llm talks to the generative producer. Its output is candidate
// data only: nothing a provider returns is trusted until the verifier has
// grounded it in the listing text.
package llm

import (
	"context"

	"lemonscan/internal/model"
)

// Provider defines the interface for generative extraction backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Extract runs one structured extraction over a listing. The returned
	// candidate is untrusted producer output.
	Extract(ctx context.Context, req ExtractRequest) (*model.CandidateExtraction, *model.TokenUsage, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for one extraction call
type ExtractRequest struct {
	// Listing is the raw listing to analyze
	Listing model.Listing

	// Prompt is an optional custom prompt (if empty, the default is built)
	Prompt string

	// Model overrides the configured model for this call
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling; extraction wants 0
	Temperature float64

	// MaxRetries bounds retry attempts on transient failures
	MaxRetries int
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		MaxRetries:  c.MaxRetries,
	}
}
