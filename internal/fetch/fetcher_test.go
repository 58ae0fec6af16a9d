package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"lemonscan/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "Lemonscan/0.1",
		MaxBodyBytes:  1_000_000,
		RespectRobots: false,
	}
}

const listingPage = `<html>
<head><title>2008 Falcon XT</title></head>
<body>
<h1>2008 Falcon XT</h1>
<div>No rego, selling as is. Runs and drives.</div>
<script>analytics();</script>
</body>
</html>`

func TestFetchListing_ExtractsTitleAndText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Lemonscan/0.1" {
			t.Errorf("Expected configured user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), zap.NewNop())

	listing, err := f.FetchListing(context.Background(), server.URL+"/listing/2008-falcon-xt-12345")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if listing.Title != "2008 Falcon XT" {
		t.Errorf("Expected title from <title>, got %q", listing.Title)
	}
	if !strings.Contains(listing.Description, "No rego, selling as is") {
		t.Errorf("Expected visible text in description, got %q", listing.Description)
	}
	if strings.Contains(listing.Description, "analytics") {
		t.Errorf("Expected scripts stripped, got %q", listing.Description)
	}
	if listing.ListingID != "2008-falcon-xt-12345" {
		t.Errorf("Expected listing ID from URL slug, got %q", listing.ListingID)
	}
}

func TestFetchListing_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), zap.NewNop())
	if _, err := f.FetchListing(context.Background(), server.URL); err == nil {
		t.Error("Expected error for non-2xx status")
	}
}

func TestFetchListing_RobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /listing/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobots = true
	f := NewFetcher(cfg, zap.NewNop())

	if _, err := f.FetchListing(context.Background(), server.URL+"/listing/blocked-1"); err == nil {
		t.Error("Expected robots.txt disallow to block the fetch")
	}
}

func TestFetchListing_BodySizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("x", 100_000) + "</body></html>"))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 1024
	f := NewFetcher(cfg, zap.NewNop())

	listing, err := f.FetchListing(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected truncated fetch to succeed, got %v", err)
	}
	if len(listing.Description) > 2048 {
		t.Errorf("Expected capped body, got %d chars", len(listing.Description))
	}
}
