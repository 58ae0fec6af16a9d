package model

import "time"

// Config is the full runtime configuration. It is built once at startup from
// defaults, config file, environment, and flags, and passed by reference; no
// component mutates it after construction.
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	LLM         LLMConfig         `yaml:"llm"`
	Cache       CacheConfig       `yaml:"cache"`
	HTTP        HTTPConfig        `yaml:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// EngineConfig holds tunables for the core extraction engine.
type EngineConfig struct {
	// GuardrailConfidence is assigned to every rule-engine signal.
	GuardrailConfidence float64 `yaml:"guardrail_confidence"`
	// VerifiedMinConfidence is the floor for verified signals.
	VerifiedMinConfidence float64 `yaml:"verified_min_confidence"`
	// InferredMinConfidence is the floor for inferred signals.
	InferredMinConfidence float64 `yaml:"inferred_min_confidence"`
	// EvidenceWindow is the fallback character window for evidence spans.
	EvidenceWindow int `yaml:"evidence_window"`
	// ShortDescriptionThreshold triggers a warning for terse listings.
	ShortDescriptionThreshold int `yaml:"short_description_threshold"`
}

// LLMConfig configures the generative producer.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, ollama, or "" (disabled)
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
	// RatePerSecond and Burst bound outbound producer calls.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// CacheConfig configures result caching by listing content hash.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// HTTPConfig configures the listing page fetcher.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty"`
}

// ConcurrencyConfig bounds parallel work in batch mode.
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns sensible defaults. Engine constants match the
// published ruleset version; changing them requires a ruleset bump.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			GuardrailConfidence:       0.95,
			VerifiedMinConfidence:     0.90,
			InferredMinConfidence:     0.40,
			EvidenceWindow:            200,
			ShortDescriptionThreshold: 30,
		},
		LLM: LLMConfig{
			Provider:      "", // Disabled by default; guardrails-only
			Model:         "gpt-4o-mini",
			Timeout:       30,
			MaxTokens:     2000,
			Temperature:   0.0,
			MaxRetries:    3,
			RatePerSecond: 2,
			Burst:         4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.lemonscan/cache at startup
			MemoryTTL: time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Lemonscan/0.1 (+https://github.com/lemonscan)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
