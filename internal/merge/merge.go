// Package merge unifies rule-engine detections with verified producer
// signals. Rule signals win every conflict; among producer duplicates the
// higher confidence survives.
package merge

import (
	"sort"
	"strings"

	"lemonscan/internal/model"
)

type source int

const (
	sourceRule source = iota
	sourceProducer
)

type signalKey struct {
	typ      string
	evidence string
}

type tracked struct {
	signal model.Signal
	src    source
	order  int
}

// Signals merges producer and rule signals per category. Deduplication key
// is (type, whitespace-normalized lowercased evidence); each category's
// result is sorted by confidence descending, insertion order breaking ties.
func Signals(producer, rules model.SignalSet) model.SignalSet {
	var out model.SignalSet
	for _, category := range model.Categories() {
		out.SetCategory(category, mergeLists(producer.ByCategory(category), rules.ByCategory(category)))
	}
	return out
}

func mergeLists(producer, rules []model.Signal) []model.Signal {
	byKey := make(map[signalKey]tracked)
	var keys []signalKey
	order := 0

	for _, s := range rules {
		key := keyFor(s.Type, s.EvidenceText)
		if _, exists := byKey[key]; !exists {
			keys = append(keys, key)
		}
		byKey[key] = tracked{signal: s, src: sourceRule, order: order}
		order++
	}

	for _, s := range producer {
		key := keyFor(s.Type, s.EvidenceText)
		existing, exists := byKey[key]
		if !exists {
			keys = append(keys, key)
			byKey[key] = tracked{signal: s, src: sourceProducer, order: order}
			order++
			continue
		}
		if existing.src == sourceRule {
			continue
		}
		if s.Confidence > existing.signal.Confidence {
			byKey[key] = tracked{signal: s, src: sourceProducer, order: existing.order}
		}
	}

	if len(keys) == 0 {
		return nil
	}

	merged := make([]tracked, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, byKey[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].signal.Confidence != merged[j].signal.Confidence {
			return merged[i].signal.Confidence > merged[j].signal.Confidence
		}
		return merged[i].order < merged[j].order
	})

	out := make([]model.Signal, len(merged))
	for i, t := range merged {
		out[i] = t.signal
	}
	return out
}

// Maintenance dedupes claims and red flags by (type, normalized evidence).
// The rule engine produces no maintenance claims, so there is no provenance
// conflict here, just first-seen-wins dedup.
func Maintenance(m model.MaintenanceSection) model.MaintenanceSection {
	seenClaims := make(map[signalKey]struct{})
	var claims []model.MaintenanceClaim
	for _, c := range m.Claims {
		key := keyFor(c.Type, c.EvidenceText)
		if _, dup := seenClaims[key]; dup {
			continue
		}
		seenClaims[key] = struct{}{}
		claims = append(claims, c)
	}

	seenFlags := make(map[signalKey]struct{})
	var redFlags []model.Signal
	for _, f := range m.RedFlags {
		key := keyFor(f.Type, f.EvidenceText)
		if _, dup := seenFlags[key]; dup {
			continue
		}
		seenFlags[key] = struct{}{}
		redFlags = append(redFlags, f)
	}

	return model.MaintenanceSection{
		Claims:          claims,
		EvidencePresent: m.EvidencePresent,
		RedFlags:        redFlags,
	}
}

func keyFor(signalType, evidence string) signalKey {
	return signalKey{
		typ:      signalType,
		evidence: strings.Join(strings.Fields(strings.ToLower(evidence)), " "),
	}
}
