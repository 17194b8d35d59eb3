// Package scrape resolves an item URL into main body text. Extraction
// is best effort: readability first, then a cascade of structural
// selectors, and an empty result (never an error) when nothing
// crosses the minimum-length threshold.
package scrape

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// minContentLen rejects boilerplate-only extractions.
	minContentLen = 200
	// maxContentLen caps stored body text to bound enrichment cost.
	maxContentLen = 5000

	maxAttempts = 2

	userAgent = "psyinsight/1.0 (research aggregator)"
)

// Resolver fetches a page and extracts its main text content.
type Resolver struct {
	client     *http.Client
	retryDelay time.Duration
}

// NewResolver creates a resolver with the given per-request timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		retryDelay: 2 * time.Second,
	}
}

// Resolve retrieves the page at pageURL and extracts body text. It
// returns "" when no threshold-passing content is found after retries;
// callers fall back to the item title.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) string {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ""
			case <-time.After(r.retryDelay):
			}
		}

		text, retryable := r.fetchOnce(ctx, pageURL)
		if text != "" {
			return text
		}
		if !retryable {
			return ""
		}
	}
	return ""
}

// fetchOnce performs one fetch-and-extract pass. The second return
// value reports whether another attempt is worthwhile.
func (r *Resolver) fetchOnce(ctx context.Context, pageURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("content fetch failed for %s: %v", pageURL, err)
		return "", true
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("content fetch for %s returned %d", pageURL, resp.StatusCode)
		return "", true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", true
	}

	if text := extract(string(body), pageURL); text != "" {
		return text, false
	}
	// Parsed fine but nothing substantial found; retrying the same
	// document will not help.
	return "", false
}

// extract tries readability, then the selector cascade, and accepts the
// first candidate that crosses the length threshold. Falls back to
// concatenated paragraph text even below the threshold only if that
// still yields something non-trivial.
func extract(html, pageURL string) string {
	parsedURL, _ := url.Parse(pageURL)

	if article, err := readability.FromReader(strings.NewReader(html), parsedURL); err == nil {
		text := collapse(article.TextContent)
		if len(text) > minContentLen {
			return clip(text)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, selector := range []string{"article", `div[class*="article"]`, `div[class*="content"]`, "main"} {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		var parts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, s.Text())
		})
		text := collapse(strings.Join(parts, " "))
		if len(text) > minContentLen {
			return clip(text)
		}
	}

	// Last resort: every paragraph on the page.
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	text := collapse(strings.Join(parts, " "))
	if len(text) > minContentLen {
		return clip(text)
	}
	return ""
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func clip(text string) string {
	runes := []rune(text)
	if len(runes) <= maxContentLen {
		return text
	}
	return string(runes[:maxContentLen])
}
