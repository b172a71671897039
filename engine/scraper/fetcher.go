// Package scraper implements the per-ticker news crawler that feeds the
// Collector. It is grounded on the rate-limited, context-aware HTTP scraper
// pattern used elsewhere in this module's engine tree.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
)

// HTTPNewsFetcher crawls a press-search endpoint for a single ticker's
// recent headlines, paging up to MaxPages per call and pacing requests
// through a token-bucket limiter shared across tickers.
type HTTPNewsFetcher struct {
	baseURL       string
	httpClient    *http.Client
	rateLimiter   *rate.Limiter
	noiseKeywords []string
}

// NewHTTPNewsFetcher builds a fetcher against baseURL (a search endpoint
// that accepts `?query=<name>&page=<n>` and returns a JSON array of
// headline/press/url/published_at tuples). ratePerSec bounds the aggregate
// request rate across every ticker crawled by this fetcher.
func NewHTTPNewsFetcher(baseURL string, ratePerSec float64, burst int) *HTTPNewsFetcher {
	if burst <= 0 {
		burst = 1
	}
	return &HTTPNewsFetcher{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		rateLimiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		noiseKeywords: domain.DefaultNoiseKeywords,
	}
}

type newsItem struct {
	Headline    string `json:"headline"`
	Press       string `json:"press"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// Crawl fetches up to maxPages pages of results for (code, name), waiting
// delay between page requests in addition to the shared rate limiter, and
// drops any headline matching a noise keyword. A single page's transport
// error aborts the remaining pages for this ticker but returns whatever was
// already collected, since the Collector treats each ticker independently.
func (f *HTTPNewsFetcher) Crawl(ctx context.Context, code, name string, maxPages int, delay time.Duration) ([]domain.Article, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	var out []domain.Article
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return out, err
		}

		items, err := f.fetchPage(ctx, name, page)
		if err != nil {
			return out, fmt.Errorf("scraper: crawl %s page %d: %w", code, page, err)
		}
		if len(items) == 0 {
			break
		}

		for _, it := range items {
			if domain.IsNoise(it.Headline, f.noiseKeywords) {
				continue
			}
			published, _ := time.Parse(time.RFC3339, it.PublishedAt)
			out = append(out, domain.Article{
				StockCode:   code,
				StockName:   name,
				Headline:    it.Headline,
				Press:       it.Press,
				ArticleURL:  it.URL,
				PublishedAt: published,
				Source:      "crawler",
			})
		}

		if page < maxPages {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return out, nil
}

func (f *HTTPNewsFetcher) fetchPage(ctx context.Context, query string, page int) ([]newsItem, error) {
	params := url.Values{
		"query": {query},
		"page":  {strconv.Itoa(page)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var items []newsItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return items, nil
}
