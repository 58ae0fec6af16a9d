// Package textprep builds the canonical text views used by the rule engine
// and the evidence verifier. Original text is preserved so that evidence
// spans always quote the listing verbatim.
package textprep

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// PreparedText holds the text views for one listing. It is constructed once
// per run and never mutated.
type PreparedText struct {
	OriginalTitle       string
	OriginalDescription string
	// CombinedText is title + description with whitespace runs collapsed to
	// single spaces, casing preserved. Evidence windows are cut from here.
	CombinedText string
	// NormalizedText is the case-folded CombinedText, used only for pattern
	// matching, never for evidence output.
	NormalizedText string
	// Sentences is the sentence-split view, preferred for evidence spans.
	Sentences []string
}

// Prepare normalizes listing text while preserving the original for evidence
// matching. Either input may be empty.
func Prepare(title, description string) PreparedText {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	var raw string
	switch {
	case title != "" && description != "":
		raw = title + "\n" + description
	case title != "":
		raw = title
	default:
		raw = description
	}

	combined := CollapseWhitespace(raw)

	return PreparedText{
		OriginalTitle:       title,
		OriginalDescription: description,
		CombinedText:        combined,
		NormalizedText:      strings.ToLower(combined),
		Sentences:           SplitSentences(raw),
	}
}

// CollapseWhitespace trims and collapses internal whitespace runs to single
// spaces, preserving casing.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// SplitSentences splits text into sentences: newlines first, then within each
// line after terminal punctuation followed by whitespace and an uppercase
// letter. Abbreviations like "Mr. Smith" may under-split; accepted limitation.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, part := range splitLine(line) {
			part = strings.TrimSpace(part)
			if part != "" {
				sentences = append(sentences, part)
			}
		}
	}
	return sentences
}

// splitLine splits after '.', '!' or '?' when followed by whitespace and an
// uppercase letter.
func splitLine(line string) []string {
	var parts []string
	start := 0

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Skip the whitespace run after the terminator.
		j := i + 1
		for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
			j++
		}
		if j == i+1 || j >= len(line) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(line[j:])
		if unicode.IsUpper(r) {
			parts = append(parts, line[start:i+1])
			start = j
			i = j - 1
		}
	}

	if start < len(line) {
		parts = append(parts, line[start:])
	}
	return parts
}

// FindEvidenceSpan locates the evidence span containing a matched substring:
// the first sentence containing it, else a window of windowSize characters
// around the match in text, aligned outward to whitespace boundaries. Returns
// "" when the match is not present at all.
func FindEvidenceSpan(match, text string, sentences []string, windowSize int) string {
	matchLower := strings.ToLower(match)

	for _, sentence := range sentences {
		if strings.Contains(strings.ToLower(sentence), matchLower) {
			return sentence
		}
	}

	idx := strings.Index(strings.ToLower(text), matchLower)
	if idx == -1 {
		return ""
	}

	start := idx - windowSize/2
	if start < 0 {
		start = 0
	}
	end := idx + len(match) + windowSize/2
	if end > len(text) {
		end = len(text)
	}

	// Align outward to whitespace so words are never cut mid-way.
	for start > 0 && !isSpace(text[start-1]) {
		start--
	}
	for end < len(text) && !isSpace(text[end]) {
		end++
	}

	return strings.TrimSpace(text[start:end])
}

// EvidenceExists reports whether evidence occurs verbatim in original after
// whitespace collapsing and case folding on both sides.
func EvidenceExists(evidence, original string) bool {
	if evidence == "" || original == "" {
		return false
	}
	ev := strings.ToLower(CollapseWhitespace(evidence))
	orig := strings.ToLower(CollapseWhitespace(original))
	return strings.Contains(orig, ev)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t'
}
