// Package fetch turns a listing URL into a model.Listing. Analysis usually
// receives listings as JSON; this path exists for ad-hoc runs against a
// live listing page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lemonscan/internal/model"
	"lemonscan/internal/textprep"
)

// Fetcher fetches listing pages over HTTP with robots.txt compliance and a
// body size cap.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	logger     *zap.Logger
}

// NewFetcher creates a Fetcher from HTTP configuration. When
// cfg.RespectRobots is false, robots.txt is not consulted.
func NewFetcher(cfg model.HTTPConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    robots,
		logger:    logger,
	}
}

// FetchListing retrieves a listing page and extracts title and description
// text. The listing ID is derived from the URL slug.
func (f *Fetcher) FetchListing(ctx context.Context, rawURL string) (*model.Listing, error) {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
		if crawlDelay > 0 {
			f.logger.Debug("honoring crawl delay", zap.Duration("delay", crawlDelay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(crawlDelay):
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := string(body)
	title := extractTitle(page)
	description, err := textprep.VisibleText(page)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	// The page title usually repeats at the top of the visible text.
	description = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(description), title))

	return &model.Listing{
		ListingID:   listingIDFromURL(resp.Request.URL.String()),
		Title:       title,
		Description: description,
	}, nil
}

// extractTitle returns the content of the first <title> element, falling
// back to the first <h1>.
func extractTitle(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var title, h1 string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "h1":
				if h1 == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					h1 = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title != "" {
		return title
	}
	return h1
}

// listingIDFromURL derives a stable listing ID from the final URL: the last
// path segment, or the host when there is no path.
func listingIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
