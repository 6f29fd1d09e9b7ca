// Package site inspects a business website to enrich its profile before
// prompt construction.
//
// Inspect fetches the homepage and the blog feed concurrently. The homepage
// yields a readable excerpt (used when the profile has no description) and
// the feed yields recent post titles (so content suggestions avoid topics
// the business has already covered). Every failure is soft: callers get
// whatever could be gathered.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satishskid/gbseo/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	httpTimeout     = 15 * time.Second
	maxPageBytes    = 2 << 20
	maxExcerptWords = 80
	maxRecentPosts  = 5
)

// feedPaths are tried in order relative to the site root.
var feedPaths = []string{"/feed", "/rss.xml", "/feed.xml", "/atom.xml", "/blog/rss.xml"}

// ErrInvalidURL is returned when a website value cannot be turned into an
// absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid website url")

// Snapshot is what Inspect learned about a website.
type Snapshot struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	SiteName    string   `json:"site_name,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	FeedURL     string   `json:"feed_url,omitempty"`
	RecentPosts []string `json:"recent_posts,omitempty"`
}

// Inspector fetches website snapshots.
type Inspector struct {
	client *http.Client
}

// NewInspector creates an Inspector. A nil client gets a 15-second timeout,
// browser-like request headers, at most five redirects, and a transport
// that refuses loopback, private and link-local addresses. Websites come
// from callers, so only the default client is safe to expose to them.
func NewInspector(client *http.Client) *Inspector {
	if client == nil {
		client = &http.Client{
			Timeout:       httpTimeout,
			CheckRedirect: limitRedirects,
			Transport: &userAgentTransport{
				base: publicTransport(),
			},
		}
	}
	return &Inspector{client: client}
}

// userAgentTransport wraps an http.RoundTripper to inject browser-like
// headers on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	browserHeaders(req)
	return t.base.RoundTrip(req)
}

// browserHeaders sets request headers so sites that check Accept or
// User-Agent don't reject the request.
func browserHeaders(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; gbseo/1.0; +https://greybrain.ai)")
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// Inspect fetches the homepage and the first parseable feed of rawURL
// concurrently. It returns an error only when the URL is invalid or both
// fetches fail.
func (i *Inspector) Inspect(ctx context.Context, rawURL string) (*Snapshot, error) {
	base, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{URL: base.String()}
	var pageErr, feedErr error

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := i.fetchPage(ctx, base)
		if err != nil {
			pageErr = err
			slog.Warn("website page fetch failed", "url", base.String(), "error", err)
			return nil
		}
		snap.Title = page.Title
		snap.SiteName = page.SiteName
		snap.Excerpt = page.Excerpt
		return nil
	})
	g.Go(func() error {
		feedURL, titles, err := i.fetchRecentPosts(ctx, base)
		if err != nil {
			feedErr = err
			slog.Debug("no website feed found", "url", base.String(), "error", err)
			return nil
		}
		snap.FeedURL = feedURL
		snap.RecentPosts = titles
		return nil
	})
	// Goroutines record failures instead of returning them, so Wait never
	// errors and one fetch failing cannot cancel the other.
	_ = g.Wait()

	if pageErr != nil && feedErr != nil {
		return nil, fmt.Errorf("inspecting %s: %w", base, errors.Join(pageErr, feedErr))
	}
	return snap, nil
}

// Enrich returns a copy of p with an empty description filled from the
// snapshot excerpt and RecentPosts set from the snapshot feed.
func Enrich(p models.BusinessProfile, snap *Snapshot) models.BusinessProfile {
	if snap == nil {
		return p
	}
	if strings.TrimSpace(p.Description) == "" && snap.Excerpt != "" {
		p.Description = snap.Excerpt
	}
	if len(snap.RecentPosts) > 0 {
		p.RecentPosts = append([]string(nil), snap.RecentPosts...)
	}
	return p
}

// normalizeURL accepts bare hosts ("skids.health") and returns an absolute
// URL with an http or https scheme.
func normalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}
