// Package cost accumulates token usage and estimated spend across producer
// calls. Local models (ollama) record tokens at zero cost.
package cost

import (
	"sort"
	"strings"
	"sync"

	"lemonscan/internal/model"
)

// modelPricing is USD per 1M tokens.
type modelPricing struct {
	Prompt     float64
	Completion float64
}

var openAIPricing = map[string]modelPricing{
	"gpt-4o":        {Prompt: 2.50, Completion: 10.00},
	"gpt-4o-mini":   {Prompt: 0.15, Completion: 0.60},
	"gpt-4-turbo":   {Prompt: 10.00, Completion: 30.00},
	"gpt-4":         {Prompt: 30.00, Completion: 60.00},
	"gpt-3.5-turbo": {Prompt: 0.50, Completion: 1.50},
}

// pricingFor resolves pricing for a model, tolerating dated variants like
// "gpt-4o-mini-2024-07-18". Unknown models price at zero.
func pricingFor(modelName string) (modelPricing, bool) {
	if p, ok := openAIPricing[modelName]; ok {
		return p, true
	}

	// Longest prefix wins so "gpt-4o-mini-..." never matches "gpt-4o".
	best := ""
	for name := range openAIPricing {
		if strings.HasPrefix(modelName, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return modelPricing{}, false
	}
	return openAIPricing[best], true
}

// ModelUsage is aggregated usage for one model.
type ModelUsage struct {
	Model            string  `json:"model"`
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Summary is the tracker's aggregate view.
type Summary struct {
	Calls         int          `json:"calls"`
	TotalTokens   int          `json:"total_tokens"`
	TotalCostUSD  float64      `json:"total_cost_usd"`
	ByModel       []ModelUsage `json:"by_model"`
	UnknownModels []string     `json:"unknown_models,omitempty"`
}

// Tracker accumulates usage. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	byModel map[string]*ModelUsage
	unknown map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byModel: make(map[string]*ModelUsage),
		unknown: make(map[string]struct{}),
	}
}

// Record adds one call's usage. Nil usage is ignored.
func (t *Tracker) Record(usage *model.TokenUsage) {
	if usage == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	mu, ok := t.byModel[usage.Model]
	if !ok {
		mu = &ModelUsage{Model: usage.Model}
		t.byModel[usage.Model] = mu
	}

	mu.Calls++
	mu.PromptTokens += usage.PromptTokens
	mu.CompletionTokens += usage.CompletionTokens

	if pricing, known := pricingFor(usage.Model); known {
		mu.CostUSD += float64(usage.PromptTokens)/1_000_000*pricing.Prompt +
			float64(usage.CompletionTokens)/1_000_000*pricing.Completion
	} else if usage.Model != "" {
		t.unknown[usage.Model] = struct{}{}
	}
}

// Summary returns the aggregate view, models sorted by cost descending.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Summary
	for _, mu := range t.byModel {
		s.Calls += mu.Calls
		s.TotalTokens += mu.PromptTokens + mu.CompletionTokens
		s.TotalCostUSD += mu.CostUSD
		s.ByModel = append(s.ByModel, *mu)
	}
	sort.Slice(s.ByModel, func(i, j int) bool {
		if s.ByModel[i].CostUSD != s.ByModel[j].CostUSD {
			return s.ByModel[i].CostUSD > s.ByModel[j].CostUSD
		}
		return s.ByModel[i].Model < s.ByModel[j].Model
	})

	for name := range t.unknown {
		s.UnknownModels = append(s.UnknownModels, name)
	}
	sort.Strings(s.UnknownModels)

	return s
}

// Reset clears all recorded usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byModel = make(map[string]*ModelUsage)
	t.unknown = make(map[string]struct{})
}
