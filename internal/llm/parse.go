package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"lemonscan/internal/model"
)

// ParseResponse decodes a producer response into a candidate extraction.
// Models sometimes wrap JSON in markdown fences even when asked not to, so
// fences are stripped before decoding. Unknown fields are ignored; the
// candidate is untrusted either way.
func ParseResponse(text string) (*model.CandidateExtraction, error) {
	text = stripFences(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var candidate model.CandidateExtraction
	if err := json.Unmarshal([]byte(text), &candidate); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}
	return &candidate, nil
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	// Drop the opening fence line ("```json" or "```").
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
