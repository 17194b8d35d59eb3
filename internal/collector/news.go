package collector

import (
	"context"
	"fmt"
	"log"

	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/feeds"
)

// CollectNews fetches candidates for every news keyword and country,
// then enriches and stores the new ones. Enrichment failures degrade
// individual items but never abort the run.
func (c *Collector) CollectNews(ctx context.Context) (*Result, error) {
	candidates, err := c.news.FetchAll(ctx,
		c.cfg.Keywords.News, c.cfg.Countries,
		c.cfg.Keywords.Exclusions, c.maxPerKeyword())
	if err != nil {
		return &Result{}, err
	}

	collected, saved := c.runPool(ctx, len(candidates), func(ctx context.Context, i int) jobResult {
		return c.processNews(ctx, candidates[i])
	})
	return &Result{Collected: collected, Saved: saved}, nil
}

func (c *Collector) processNews(ctx context.Context, cand feeds.NewsCandidate) jobResult {
	exists, err := c.db.ArticleURLExists(cand.URL)
	if err != nil {
		log.Printf("collector: checking %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if exists {
		return jobResult{message: "중복: " + cand.Title}
	}

	// A failed resolve leaves only the title to work with. The item is
	// still stored.
	content := c.resolver.Resolve(ctx, cand.URL)
	text := content
	if text == "" {
		text = cand.Title
	}

	title := cand.Title
	var summary string
	if cand.Country == "KR" {
		summary = c.enricher.Summarize(ctx, text)
	} else {
		translated := c.enricher.TranslateTitle(ctx, cand.Title)
		if translated != cand.Title {
			title = fmt.Sprintf("%s (%s)", cand.Title, translated)
		}
		summary = c.enricher.SummarizeBrief(ctx, text)
	}

	score := c.enricher.Score(ctx, text)
	if c.cfg.Collection.RelevancePolicy == "drop" && !score.Degraded && score.Score <= 1 {
		return jobResult{collected: true, message: "제외: " + cand.Title}
	}
	keywords := c.enricher.Keywords(ctx, text, 5)

	id, err := c.db.InsertArticle(articleFromCandidate(cand, title, summary, content, score, keywords))
	if err != nil {
		log.Printf("collector: inserting %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if id == 0 {
		// A concurrent worker stored the same URL first.
		return jobResult{collected: true, message: "중복: " + cand.Title}
	}
	return jobResult{collected: true, saved: true, message: "저장: " + title}
}

func articleFromCandidate(cand feeds.NewsCandidate, title, summary, fullText string,
	score enrich.ScoreResult, keywords enrich.KeywordsResult) database.Article {
	a := database.Article{
		URL:            cand.URL,
		Title:          title,
		Country:        optional(cand.Country),
		Keyword:        optional(cand.Keyword),
		Keywords:       keywords.Keywords,
		Source:         optional(cand.Source),
		PublishedDate:  optional(cand.PublishedDate),
		ValidityScore:  score.Score,
		ValidityReason: optional(score.Reason),
	}
	if summary != "" {
		a.Summary = &summary
	}
	if fullText != "" {
		a.FullText = &fullText
	}
	return a
}

// optional maps the empty string to a NULL column value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
