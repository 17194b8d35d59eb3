package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ArxivFetcher queries the arXiv Atom API for recent preprints.
type ArxivFetcher struct {
	parser  *gofeed.Parser
	baseURL string
	delay   time.Duration
}

func NewArxivFetcher(delay time.Duration) *ArxivFetcher {
	return &ArxivFetcher{
		parser:  gofeed.NewParser(),
		baseURL: "http://export.arxiv.org/api/query",
		delay:   delay,
	}
}

func (f *ArxivFetcher) SetBaseURL(u string) {
	f.baseURL = strings.TrimRight(u, "/")
}

// Fetch returns up to max papers matching one keyword, newest first.
func (f *ArxivFetcher) Fetch(ctx context.Context, keyword string, max int) ([]PaperCandidate, error) {
	q := url.Values{}
	q.Set("search_query", "all:"+keyword)
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	q.Set("max_results", fmt.Sprintf("%d", max))

	feed, err := f.parser.ParseURLWithContext(f.baseURL+"?"+q.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching arXiv for %q: %w", keyword, err)
	}

	var out []PaperCandidate
	for _, item := range feed.Items {
		if len(out) >= max {
			break
		}
		if item.Link == "" || item.Title == "" {
			continue
		}
		var authors []string
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		out = append(out, PaperCandidate{
			URL:           item.Link,
			Title:         collapseWhitespace(item.Title),
			Abstract:      collapseWhitespace(item.Description),
			Authors:       authors,
			Journal:       "arXiv",
			PublishedDate: formatDate(item.PublishedParsed),
			Keyword:       keyword,
		})
	}
	return out, nil
}

// collapseWhitespace folds the hard-wrapped Atom text arXiv returns
// into single-space prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
