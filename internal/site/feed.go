package site

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// errNoFeed is returned when none of feedPaths yields a feed with items.
var errNoFeed = errors.New("no feed found")

// fetchRecentPosts tries each well-known feed path under base and returns
// the URL and item titles of the first one that parses with items.
func (i *Inspector) fetchRecentPosts(ctx context.Context, base *url.URL) (string, []string, error) {
	fp := gofeed.NewParser()
	fp.Client = i.client

	var errs []error
	for _, path := range feedPaths {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		feedURL := base.ResolveReference(&url.URL{Path: path}).String()
		feed, err := fp.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("parsing feed %q: %w", feedURL, err))
			continue
		}

		titles := feedTitles(feed, maxRecentPosts)
		if len(titles) == 0 {
			continue
		}
		return feedURL, titles, nil
	}
	return "", nil, errors.Join(append([]error{errNoFeed}, errs...)...)
}

// feedTitles returns up to limit non-empty item titles with markup and
// entities removed, in feed order.
func feedTitles(feed *gofeed.Feed, limit int) []string {
	var titles []string
	for _, item := range feed.Items {
		if len(titles) >= limit {
			break
		}
		title := strings.TrimSpace(cleanText(item.Title))
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}

func cleanText(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
