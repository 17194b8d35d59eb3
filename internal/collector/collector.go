// Package collector runs the collection pipeline: fetch candidates
// from the configured sources, drop already stored URLs, enrich the
// rest with bounded concurrency, and persist what survives.
package collector

import (
	"context"
	"sync"
	"time"

	"psyinsight/internal/config"
	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/feeds"
	"psyinsight/internal/journal"
	"psyinsight/internal/llm"
	"psyinsight/internal/scrape"
)

// ProgressFunc is called once per processed item, in completion order.
// completed counts processed items so far out of total.
type ProgressFunc func(completed, total int, message string)

// Result summarizes one collection run. Saved counts new rows;
// Collected counts processed candidates that were not short-circuited
// as already-stored duplicates, so failures and drops still count and
// Collected >= Saved always holds.
type Result struct {
	Collected int
	Saved     int
}

// Collector wires the fetchers, the resolver, and the enrichment
// client over one database.
type Collector struct {
	cfg      *config.Config
	db       *database.DB
	enricher *enrich.Client
	resolver *scrape.Resolver
	news     *feeds.NewsFetcher
	arxiv    *feeds.ArxivFetcher
	pubmed   *feeds.PubMedFetcher
	economy  *feeds.EconomyFetcher
	journals journal.Policy

	onProgress ProgressFunc
}

// New creates a collector from the configuration and an LLM provider.
func New(cfg *config.Config, db *database.DB, provider llm.Provider) *Collector {
	delay := time.Duration(cfg.Collection.FetchDelayMs) * time.Millisecond
	return &Collector{
		cfg:      cfg,
		db:       db,
		enricher: enrich.New(provider, cfg.Enrichment.MaxRetries),
		resolver: scrape.NewResolver(15 * time.Second),
		news:     feeds.NewNewsFetcher(delay),
		arxiv:    feeds.NewArxivFetcher(delay),
		pubmed:   feeds.NewPubMedFetcher(delay),
		economy:  feeds.NewEconomyFetcher(cfg.Sources.Economy, delay),
		journals: journal.NewPatternPolicy(),
	}
}

// SetProgress registers a progress callback for subsequent runs.
func (c *Collector) SetProgress(fn ProgressFunc) {
	c.onProgress = fn
}

func (c *Collector) workers() int {
	if c.cfg.Collection.Concurrency > 0 {
		return c.cfg.Collection.Concurrency
	}
	return 5
}

// pauseBetweenFetches spaces out sequential upstream requests.
func (c *Collector) pauseBetweenFetches(ctx context.Context) error {
	delay := time.Duration(c.cfg.Collection.FetchDelayMs) * time.Millisecond
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (c *Collector) maxPerKeyword() int {
	if c.cfg.Collection.MaxPerKeyword > 0 {
		return c.cfg.Collection.MaxPerKeyword
	}
	return 10
}

type jobResult struct {
	collected bool // false only for pre-existing-duplicate short circuits
	saved     bool
	message   string
}

// runPool fans total jobs out over the configured number of workers
// and drains completions on the main goroutine. Progress and the
// collected and saved counts are tallied from the drain loop alone, so
// no counters are shared between workers.
func (c *Collector) runPool(ctx context.Context, total int, run func(ctx context.Context, i int) jobResult) (collected, saved int) {
	if total == 0 {
		return 0, 0
	}

	jobs := make(chan int)
	results := make(chan jobResult)

	var wg sync.WaitGroup
	for w := 0; w < c.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- run(ctx, i)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for r := range results {
		completed++
		if r.collected {
			collected++
		}
		if r.saved {
			saved++
		}
		if c.onProgress != nil {
			c.onProgress(completed, total, r.message)
		}
	}
	return collected, saved
}
