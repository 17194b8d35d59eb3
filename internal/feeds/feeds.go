// Package feeds turns keywords and configured sources into candidate
// items. Fetchers run sequentially with a fixed inter-request delay to
// stay under upstream rate limits, skip malformed entries, and never
// dedupe. That is the store's job.
package feeds

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Category classifies an economy candidate by which channel produced it.
type Category int

const (
	CategoryMacro Category = iota
	CategoryIndustry
	CategoryGlobal
)

func (c Category) String() string {
	switch c {
	case CategoryMacro:
		return "macro"
	case CategoryIndustry:
		return "industry"
	case CategoryGlobal:
		return "global"
	}
	return "unknown"
}

// ParseCategory converts a config string into a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "macro":
		return CategoryMacro, nil
	case "industry":
		return CategoryIndustry, nil
	case "global":
		return CategoryGlobal, nil
	}
	return CategoryMacro, fmt.Errorf("unknown economy category %q", s)
}

// NewsCandidate is a fetched, not yet deduplicated news item.
type NewsCandidate struct {
	URL           string
	Title         string
	Source        string
	PublishedDate string // YYYY-MM-DD or empty
	Country       string // KR | US
	Keyword       string
}

// PaperCandidate is a fetched academic paper.
type PaperCandidate struct {
	URL           string
	Title         string
	Abstract      string
	Authors       []string
	Journal       string
	PublishedDate string
	Keyword       string
}

// EconomyCandidate is a fetched economy report or news item.
type EconomyCandidate struct {
	URL           string
	Title         string
	Source        string
	Category      Category
	PublishedDate string
}

// pause sleeps for d unless the context is cancelled first. Fetchers
// call it between upstream requests.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
