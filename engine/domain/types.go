// Package domain defines the core data model of the news ingestion pipeline
// and the validation gate at its entry points.
package domain

import (
	"context"
	"time"
)

// Article is the unit moving through the pipeline. article_url uniquely
// identifies it across all sources; downstream idempotency keys on it.
type Article struct {
	StockCode   string    `json:"stock_code"`
	StockName   string    `json:"stock_name"`
	Headline    string    `json:"headline"`
	Press       string    `json:"press"`
	ArticleURL  string    `json:"article_url"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
}

// Universe is the active ticker set for a cycle: stock_code -> stock_name.
type Universe map[string]string

// SentimentResult is the Analyzer's output, persisted with ArticleURL as the
// idempotency key.
type SentimentResult struct {
	StockCode   string
	Headline    string
	Press       string
	Score       int
	Reason      string
	ArticleURL  string
	PublishedAt time.Time
	Source      string
	Mentions    []CompetitorMention
}

// CompetitorMention is a best-effort, informational-only surface of other
// universe tickers named in a headline. It never blocks ack and never fails
// the pipeline.
type CompetitorMention struct {
	StockCode  string
	StockName  string
	Confidence float64
}

// FallbackReason is the neutral-score reason substituted when SentimentLLM
// fails or is unavailable.
const FallbackReason = "analysis unavailable"

// FallbackScore is the neutral sentiment score used on LLM failure.
const FallbackScore = 50

// SentimentLLM is the opaque sentiment-scoring collaborator. A provider
// failure must not propagate; callers fall back to {FallbackScore,
// FallbackReason}.
type SentimentLLM interface {
	GenerateJSON(ctx context.Context, prompt string, schema Schema) (map[string]any, error)
}

// Schema describes the JSON shape SentimentLLM must return.
type Schema struct {
	Fields map[string]string
}

// SentimentSchema is the schema required of every sentiment call:
// {score: int in [0,100], reason: string}.
var SentimentSchema = Schema{
	Fields: map[string]string{
		"score":  "integer[0,100]",
		"reason": "string",
	},
}

// SentimentStore is the idempotent relational sink. Both methods key on
// ArticleURL.
type SentimentStore interface {
	Exists(ctx context.Context, articleURL string) (bool, error)
	Save(ctx context.Context, result SentimentResult) error
}

// VectorDocument is a chunk ready for vector storage, with its embedding
// already computed by the caller.
type VectorDocument struct {
	DocID     string
	Text      string
	Metadata  map[string]string
	Embedding []float32
}

// Embedder produces dense embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSink is the archival store. Add is NOT guaranteed idempotent on
// article_url by this interface alone — the concrete adapter may choose to
// make individual chunk writes idempotent via deterministic point IDs
// derived from DocID, but callers must not assume cross-call dedup beyond
// that per-chunk guarantee.
type VectorSink interface {
	Add(ctx context.Context, docs []VectorDocument) error
}

// UniverseSource resolves the active ticker set each cycle.
type UniverseSource interface {
	Active(ctx context.Context) (Universe, error)
}

// NewsFetcher crawls a single ticker's upstream news index. HTML parsing
// specifics are out of scope for this module; implementations are opaque
// external collaborators.
type NewsFetcher interface {
	Crawl(ctx context.Context, code, name string, maxPages int, delay time.Duration) ([]Article, error)
}
