package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

const candidateJSON = `{
	"signals": {
		"legality": [
			{"type": "no_rego", "severity": "high", "verification_level": "verified", "evidence_text": "no rego", "confidence": 0.9}
		],
		"accident_history": [], "mechanical_issues": [], "cosmetic_issues": [],
		"mods_performance": [], "mods_cosmetic": [], "seller_behavior": []
	},
	"maintenance": {"claims": [], "evidence_present": [], "red_flags": []},
	"summaries": {"claimed_condition": "fair", "service_history_level": "unknown", "mods_risk_level": "none", "negotiation_stance": "unknown"},
	"missing_info": ["service_history_unknown"],
	"follow_up_questions": [],
	"extraction_warnings": []
}`

func mockOpenAIServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 320, "completion_tokens": 85, "total_tokens": 405},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testListing() model.Listing {
	return model.Listing{
		ListingID:   "test-1",
		Title:       "2008 Falcon",
		Description: "no rego, selling as is",
	}
}

func TestOpenAIProvider_Extract(t *testing.T) {
	server := mockOpenAIServer(t, candidateJSON)
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-4o-mini",
	}, schema.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	candidate, usage, err := provider.Extract(context.Background(), ExtractRequest{Listing: testListing()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(candidate.Signals.Legality) != 1 {
		t.Fatalf("Expected 1 legality signal, got %d", len(candidate.Signals.Legality))
	}
	if candidate.Signals.Legality[0].Type != "no_rego" {
		t.Errorf("Expected no_rego, got %q", candidate.Signals.Legality[0].Type)
	}
	if usage.TotalTokens != 405 {
		t.Errorf("Expected 405 total tokens, got %d", usage.TotalTokens)
	}
	if usage.Model != "gpt-4o-mini" {
		t.Errorf("Expected model recorded in usage, got %q", usage.Model)
	}
}

func TestOpenAIProvider_FencedJSON(t *testing.T) {
	server := mockOpenAIServer(t, "```json\n"+candidateJSON+"\n```")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	}, schema.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	candidate, _, err := provider.Extract(context.Background(), ExtractRequest{Listing: testListing()})
	if err != nil {
		t.Fatalf("Expected fenced JSON to parse, got %v", err)
	}
	if len(candidate.Signals.Legality) != 1 {
		t.Errorf("Expected 1 legality signal, got %d", len(candidate.Signals.Legality))
	}
}

func TestOpenAIProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}, schema.Default(), zap.NewNop()); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestOpenAIProvider_FailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/v1",
		MaxRetries: 1,
	}, schema.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, _, err := provider.Extract(context.Background(), ExtractRequest{Listing: testListing()}); err == nil {
		t.Error("Expected error after exhausted retries")
	}
}

func TestBuildPrompt_IncludesEnumsAndListing(t *testing.T) {
	prompt := BuildPrompt(testListing(), schema.Default())

	for _, want := range []string{"no_rego", "stage_2_or_higher", "2008 Falcon", "no rego, selling as is", "vehicle_type: unknown"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}
