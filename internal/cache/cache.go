// Package cache stores finished reports keyed by listing content, so
// re-analyzing an unchanged listing costs nothing. Keys include the ruleset
// and producer model: bumping either invalidates prior results.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"lemonscan/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ReportKey generates a cache key from listing content and the versions
// that shape the result.
func ReportKey(listing model.Listing, producerModel string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		listing.ListingID,
		listing.Title,
		listing.Description,
		model.StageVersion,
		model.RulesetVersion,
		producerModel,
	)
	return "lemonscan:v1:" + hex.EncodeToString(h.Sum(nil))
}

// ReportStore wraps a Cache with report marshaling.
type ReportStore struct {
	cache Cache
}

// NewReportStore creates a report store over any Cache.
func NewReportStore(c Cache) *ReportStore {
	return &ReportStore{cache: c}
}

// Get returns the cached report for a listing, if present and decodable.
func (s *ReportStore) Get(listing model.Listing, producerModel string) (*model.Report, bool) {
	data, found := s.cache.Get(ReportKey(listing, producerModel))
	if !found {
		return nil, false
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		// A corrupt entry is as good as a miss.
		_ = s.cache.Delete(ReportKey(listing, producerModel))
		return nil, false
	}
	return &report, true
}

// Set stores a report for a listing.
func (s *ReportStore) Set(listing model.Listing, producerModel string, report *model.Report, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return s.cache.Set(ReportKey(listing, producerModel), data, ttl)
}
