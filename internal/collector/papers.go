package collector

import (
	"context"
	"fmt"
	"log"
	"sort"

	"psyinsight/internal/database"
	"psyinsight/internal/feeds"
)

// CollectPapers fetches candidates from the enabled paper sources for
// every paper keyword, then enriches and stores the new ones.
// Reputable journals are processed first so they win when storage is
// capped by duplicates elsewhere.
func (c *Collector) CollectPapers(ctx context.Context) (*Result, error) {
	var candidates []feeds.PaperCandidate
	first := true
	for _, kw := range c.cfg.Keywords.Papers {
		if c.cfg.Sources.Papers.Arxiv {
			if !first {
				if err := c.pauseBetweenFetches(ctx); err != nil {
					return &Result{}, err
				}
			}
			first = false
			items, err := c.arxiv.Fetch(ctx, kw, c.maxPerKeyword())
			if err != nil {
				log.Printf("collector: %v", err)
			}
			candidates = append(candidates, items...)
		}
		if c.cfg.Sources.Papers.PubMed {
			if !first {
				if err := c.pauseBetweenFetches(ctx); err != nil {
					return &Result{}, err
				}
			}
			first = false
			items, err := c.pubmed.Fetch(ctx, kw, c.maxPerKeyword())
			if err != nil {
				log.Printf("collector: %v", err)
			}
			candidates = append(candidates, items...)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return c.journals.IsReputable(candidates[i].Journal) &&
			!c.journals.IsReputable(candidates[j].Journal)
	})

	collected, saved := c.runPool(ctx, len(candidates), func(ctx context.Context, i int) jobResult {
		return c.processPaper(ctx, candidates[i])
	})
	return &Result{Collected: collected, Saved: saved}, nil
}

func (c *Collector) processPaper(ctx context.Context, cand feeds.PaperCandidate) jobResult {
	exists, err := c.db.PaperURLExists(cand.URL)
	if err != nil {
		log.Printf("collector: checking %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if exists {
		return jobResult{message: "중복: " + cand.Title}
	}

	title := cand.Title
	abstract := cand.Abstract
	if isForeignPaper(cand) {
		translated := c.enricher.TranslateTitle(ctx, cand.Title)
		if translated != cand.Title {
			title = fmt.Sprintf("%s (%s)", cand.Title, translated)
		}
		if cand.Abstract != "" {
			translation := c.enricher.TranslateAbstract(ctx, cand.Abstract)
			if translation != cand.Abstract {
				abstract = fmt.Sprintf("[원문]\n%s\n\n[번역]\n%s", cand.Abstract, translation)
			}
		}
	}

	scoreInput := cand.Abstract
	if scoreInput == "" {
		scoreInput = cand.Title
	}
	score := c.enricher.Score(ctx, scoreInput)
	keywords := c.enricher.Keywords(ctx, scoreInput, 5)

	paper := database.Paper{
		URL:            cand.URL,
		Title:          title,
		Authors:        cand.Authors,
		Journal:        optional(cand.Journal),
		PublishedDate:  optional(cand.PublishedDate),
		Keyword:        optional(cand.Keyword),
		Keywords:       keywords.Keywords,
		ValidityScore:  score.Score,
		ValidityReason: optional(score.Reason),
	}
	if abstract != "" {
		paper.Abstract = &abstract
	}

	id, err := c.db.InsertPaper(paper)
	if err != nil {
		log.Printf("collector: inserting %s: %v", cand.URL, err)
		return jobResult{collected: true, message: "오류: " + cand.Title}
	}
	if id == 0 {
		return jobResult{collected: true, message: "중복: " + cand.Title}
	}
	return jobResult{collected: true, saved: true, message: "저장: " + title}
}

// foreignSources are venues whose material is always English,
// regardless of what the text heuristic concludes.
var foreignSources = map[string]struct{}{
	"arXiv":   {},
	"bioRxiv": {},
	"medRxiv": {},
	"PubMed":  {},
}

// isForeignPaper checks the source against the known foreign set
// before falling back to the character heuristic on the text.
func isForeignPaper(cand feeds.PaperCandidate) bool {
	if _, ok := foreignSources[cand.Journal]; ok {
		return true
	}
	return isForeignText(cand.Title + " " + cand.Abstract)
}

// isForeignText treats a majority-ASCII-letter text as foreign, which
// holds for the English sources and fails safe for Korean ones.
func isForeignText(s string) bool {
	ascii, total := 0, 0
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if r < 128 {
			ascii++
		}
	}
	return total > 0 && ascii*2 > total
}
