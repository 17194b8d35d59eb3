package feeds

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"psyinsight/internal/config"
)

// EconomyFetcher collects economy items from two kinds of sources:
// institution pages scraped with CSS selectors, and plain RSS feeds.
type EconomyFetcher struct {
	client *http.Client
	parser *gofeed.Parser
	pages  []config.EconomyPage
	feeds  []config.EconomyFeed
	delay  time.Duration
}

func NewEconomyFetcher(cfg config.EconomySource, delay time.Duration) *EconomyFetcher {
	return &EconomyFetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		parser: gofeed.NewParser(),
		pages:  cfg.Pages,
		feeds:  cfg.Feeds,
		delay:  delay,
	}
}

// FetchAll visits every configured page and feed. A failing source is
// logged and skipped so one outage cannot empty the whole run.
func (f *EconomyFetcher) FetchAll(ctx context.Context, maxPerSource int) ([]EconomyCandidate, error) {
	var all []EconomyCandidate
	first := true
	for _, page := range f.pages {
		if !first {
			if err := pause(ctx, f.delay); err != nil {
				return all, err
			}
		}
		first = false
		items, err := f.fetchPage(ctx, page, maxPerSource)
		if err != nil {
			log.Printf("feeds: economy page %s: %v", page.Name, err)
			continue
		}
		all = append(all, items...)
	}
	for _, feed := range f.feeds {
		if !first {
			if err := pause(ctx, f.delay); err != nil {
				return all, err
			}
		}
		first = false
		items, err := f.fetchFeed(ctx, feed, maxPerSource)
		if err != nil {
			log.Printf("feeds: economy feed %s: %v", feed.Name, err)
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}

func (f *EconomyFetcher) fetchPage(ctx context.Context, page config.EconomyPage, max int) ([]EconomyCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "psyinsight/1.0 (research aggregator)")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	category, err := ParseCategory(page.Category)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	var out []EconomyCandidate
	doc.Find(page.LinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(out) >= max {
			return false
		}
		href, ok := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		if !ok || href == "" || title == "" {
			return true
		}
		if !matchesFilters(title, page.TitleFilters) {
			return true
		}
		out = append(out, EconomyCandidate{
			URL:           resolveHref(page.BaseURL, href),
			Title:         title,
			Source:        page.Name,
			Category:      category,
			PublishedDate: today,
		})
		return true
	})
	return out, nil
}

func (f *EconomyFetcher) fetchFeed(ctx context.Context, feed config.EconomyFeed, max int) ([]EconomyCandidate, error) {
	parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, err
	}
	category, err := ParseCategory(feed.Category)
	if err != nil {
		return nil, err
	}

	var out []EconomyCandidate
	for _, item := range parsed.Items {
		if len(out) >= max {
			break
		}
		if item.Link == "" || item.Title == "" {
			continue
		}
		date := formatDate(item.PublishedParsed)
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		out = append(out, EconomyCandidate{
			URL:           item.Link,
			Title:         strings.TrimSpace(item.Title),
			Source:        feed.Name,
			Category:      category,
			PublishedDate: date,
		})
	}
	return out, nil
}

// matchesFilters accepts a title when no filters are configured or
// when any filter substring appears in it.
func matchesFilters(title string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(title, f) {
			return true
		}
	}
	return false
}

// resolveHref absolutizes a link against the page's base URL.
func resolveHref(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if base == "" {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
