package feeds

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// localeParams maps a country code onto Google News query parameters.
var localeParams = map[string]url.Values{
	"KR": {"hl": {"ko"}, "gl": {"KR"}, "ceid": {"KR:ko"}},
	"US": {"hl": {"en-US"}, "gl": {"US"}, "ceid": {"US:en"}},
}

// NewsFetcher pulls candidate articles from Google News RSS, one
// request per keyword and country.
type NewsFetcher struct {
	parser  *gofeed.Parser
	baseURL string
	delay   time.Duration
}

func NewNewsFetcher(delay time.Duration) *NewsFetcher {
	return &NewsFetcher{
		parser:  gofeed.NewParser(),
		baseURL: "https://news.google.com/rss/search",
		delay:   delay,
	}
}

// SetBaseURL overrides the Google News endpoint. Used in tests.
func (f *NewsFetcher) SetBaseURL(u string) {
	f.baseURL = strings.TrimRight(u, "/")
}

// Fetch returns up to max candidates for one keyword in one country.
// Exclusion terms are folded into the query so upstream filters them.
func (f *NewsFetcher) Fetch(ctx context.Context, keyword, country string, exclusions []string, max int) ([]NewsCandidate, error) {
	params, ok := localeParams[country]
	if !ok {
		return nil, fmt.Errorf("unsupported country %q", country)
	}

	query := keyword
	for _, term := range exclusions {
		query += " -" + term
	}
	vals := url.Values{"q": {query}}
	for k, v := range params {
		vals[k] = v
	}
	feedURL := f.baseURL + "?" + vals.Encode()

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching news for %q (%s): %w", keyword, country, err)
	}

	var out []NewsCandidate
	for _, item := range feed.Items {
		if len(out) >= max {
			break
		}
		if item.Link == "" || item.Title == "" {
			log.Printf("feeds: skipping malformed news entry for %q", keyword)
			continue
		}
		title, source := splitSourceSuffix(item.Title)
		out = append(out, NewsCandidate{
			URL:           item.Link,
			Title:         title,
			Source:        source,
			PublishedDate: formatDate(item.PublishedParsed),
			Country:       country,
			Keyword:       keyword,
		})
	}
	return out, nil
}

// FetchAll walks every keyword and country pair with the configured
// delay between requests. A failing pair is logged and skipped.
func (f *NewsFetcher) FetchAll(ctx context.Context, keywords, countries []string, exclusions map[string][]string, max int) ([]NewsCandidate, error) {
	var all []NewsCandidate
	first := true
	for _, kw := range keywords {
		for _, country := range countries {
			if !first {
				if err := pause(ctx, f.delay); err != nil {
					return all, err
				}
			}
			first = false
			items, err := f.Fetch(ctx, kw, country, exclusions[kw], max)
			if err != nil {
				log.Printf("feeds: %v", err)
				continue
			}
			all = append(all, items...)
		}
	}
	return all, nil
}

// splitSourceSuffix strips the " - Publisher" suffix Google News
// appends to item titles. The last separator wins since titles may
// themselves contain dashes.
func splitSourceSuffix(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}
