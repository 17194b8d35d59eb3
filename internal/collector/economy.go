package collector

import (
	"context"
	"log"

	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/feeds"
)

// CollectEconomy fetches from the configured economy pages and feeds,
// then enriches and stores the new items.
func (c *Collector) CollectEconomy(ctx context.Context) (*Result, error) {
	candidates, err := c.economy.FetchAll(ctx, c.maxPerKeyword())
	if err != nil {
		return &Result{}, err
	}

	collected, saved := c.runPool(ctx, len(candidates), func(ctx context.Context, i int) jobResult {
		return c.processEconomy(ctx, candidates[i])
	})
	return &Result{Collected: collected, Saved: saved}, nil
}

func (c *Collector) processEconomy(ctx context.Context, cand feeds.EconomyCandidate) jobResult {
	exists, err := c.db.EconomyURLExists(cand.URL)
	if err != nil {
		log.Printf("collector: checking %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if exists {
		return jobResult{message: "중복: " + cand.Title}
	}

	item := database.EconomyNews{
		URL:           cand.URL,
		Title:         cand.Title,
		Source:        optional(cand.Source),
		Category:      cand.Category.String(),
		PublishedDate: optional(cand.PublishedDate),
	}
	if content := c.resolver.Resolve(ctx, cand.URL); content != "" {
		item.FullText = &content
		summary := enrich.Ellipsize(c.enricher.Summarize(ctx, content), 200)
		item.Summary = &summary
		item.Keywords = c.enricher.Keywords(ctx, content, 5).Keywords
	}

	id, err := c.db.InsertEconomyNews(item)
	if err != nil {
		log.Printf("collector: inserting %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if id == 0 {
		return jobResult{collected: true, message: "중복: " + cand.Title}
	}
	return jobResult{collected: true, saved: true, message: "저장: " + cand.Title}
}
