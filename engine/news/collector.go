package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/fn"
)

// CollectorOpts configures a crawl cycle.
type CollectorOpts struct {
	// MaxPages is how many result pages to crawl per ticker.
	MaxPages int
	// PageDelay paces successive page requests for one ticker.
	PageDelay time.Duration
	// Workers bounds how many tickers are crawled concurrently.
	Workers int
}

// DefaultCollectorOpts mirrors the original crawler's per-cycle pacing.
var DefaultCollectorOpts = CollectorOpts{
	MaxPages:  2,
	PageDelay: 500 * time.Millisecond,
	Workers:   5,
}

// Collector crawls every ticker in a universe, filters out already-seen
// headlines, and publishes the rest onto the raw stream.
type Collector struct {
	fetcher domain.NewsFetcher
	dedup   *Deduplicator
	bus     *StreamBus
	opts    CollectorOpts
	log     *slog.Logger
}

// NewCollector builds a Collector.
func NewCollector(fetcher domain.NewsFetcher, dedup *Deduplicator, bus *StreamBus, opts CollectorOpts, log *slog.Logger) *Collector {
	if opts.MaxPages <= 0 {
		opts = DefaultCollectorOpts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{fetcher: fetcher, dedup: dedup, bus: bus, opts: opts, log: log}
}

type tickerResult struct {
	code    string
	name    string
	entries []domain.Article
	err     error
}

// Run crawls every ticker in universe concurrently, publishes every new
// article, and returns the count published along with an error that reports
// how many per-ticker crawl or publish failures occurred and wraps the first
// of them. A crawl failure for one ticker
// never blocks the others: the collector always attempts every ticker in
// the universe before returning.
func (c *Collector) Run(ctx context.Context, universe domain.Universe) (int, error) {
	if len(universe) == 0 {
		return 0, nil
	}

	type tickerKey struct{ code, name string }
	tickers := make([]tickerKey, 0, len(universe))
	for code, name := range universe {
		tickers = append(tickers, tickerKey{code, name})
	}

	results := fn.ParMap(tickers, c.opts.Workers, func(t tickerKey) tickerResult {
		articles, err := c.fetcher.Crawl(ctx, t.code, t.name, c.opts.MaxPages, c.opts.PageDelay)
		return tickerResult{code: t.code, name: t.name, entries: articles, err: err}
	})

	var toPublish []domain.Article
	var crawlErrs []error
	for _, r := range results {
		if r.err != nil {
			crawlErrs = append(crawlErrs, fmt.Errorf("%s: %w", r.code, r.err))
			c.log.WarnContext(ctx, "ticker crawl failed", "stock_code", r.code, "error", r.err)
		}
		for _, a := range r.entries {
			if err := domain.ValidateArticle(a); err != nil {
				c.log.WarnContext(ctx, "dropping invalid article", "error", err)
				continue
			}
			if !c.dedup.IsNew(ctx, a.Headline) {
				continue
			}
			toPublish = append(toPublish, a)
		}
	}

	published, err := c.bus.PublishBatch(ctx, toPublish)
	if err != nil {
		crawlErrs = append(crawlErrs, fmt.Errorf("publish batch: %w", err))
	}

	if len(crawlErrs) > 0 {
		return published, fmt.Errorf("news: collect cycle had %d errors: %w", len(crawlErrs), crawlErrs[0])
	}
	return published, nil
}
