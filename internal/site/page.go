package site

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

type page struct {
	Title    string
	SiteName string
	Excerpt  string
}

// fetchPage downloads the page at u and extracts its readable metadata.
// The meta description wins over readability's excerpt when both exist.
func (i *Inspector) fetchPage(ctx context.Context, u *url.URL) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", u, err)
	}
	browserHeaders(req)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %q: HTTP %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body from %q: %w", u, err)
	}

	p := &page{}
	if article, err := readability.FromReader(bytes.NewReader(body), u); err == nil {
		p.Title = strings.TrimSpace(article.Title)
		p.SiteName = strings.TrimSpace(article.SiteName)
		p.Excerpt = strings.TrimSpace(article.Excerpt)
		if p.Excerpt == "" {
			p.Excerpt = article.TextContent
		}
	} else {
		slog.Debug("readability extraction failed", "url", u.String(), "error", err)
	}

	m := parseMeta(body)
	if m.description != "" {
		p.Excerpt = m.description
	}
	if p.Title == "" {
		p.Title = m.title
	}
	if p.Title == "" && p.Excerpt == "" {
		return nil, fmt.Errorf("no readable content at %q", u)
	}
	p.Excerpt = truncateWords(strings.Join(strings.Fields(p.Excerpt), " "), maxExcerptWords)
	return p, nil
}

type meta struct {
	title       string
	description string
}

// parseMeta returns the document <title> and the content of
// <meta name="description"> or <meta property="og:description">, whichever
// comes first.
func parseMeta(body []byte) meta {
	var m meta
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return m
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if m.title == "" {
					m.title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				name := strings.ToLower(getAttr(n, "name"))
				prop := strings.ToLower(getAttr(n, "property"))
				if m.description == "" && (name == "description" || prop == "og:description") {
					m.description = strings.TrimSpace(getAttr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return m
}

// textContent returns the concatenated text content of an HTML node and its children.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// getAttr returns the value of the named attribute on an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
