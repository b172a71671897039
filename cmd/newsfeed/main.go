// Package main implements the news ingestion pipeline daemon: a per-ticker
// crawler feeding a durable stream, an LLM sentiment-scoring consumer group,
// a vector-archival consumer group, and the orchestrator cycling them on a
// market-aware schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/llm"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/news"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/scraper"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/semantic"
	"github.com/youngs7596/prime-jennie-newsfeed/engine/store"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/metrics"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/mid"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	NatsURL       string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	QdrantURL     string
	Collection    string
	OllamaURL     string
	OllamaModel   string
	EmbedModel    string
	NewsSourceURL string
	CORSOrigin    string
	MetricsPort   int
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		NatsURL:       envOr("NATS_URL", nats.DefaultURL),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		QdrantURL:     envOr("QDRANT_URL", "localhost:6334"),
		Collection:    envOr("QDRANT_COLLECTION", "news-articles"),
		OllamaURL:     envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   envOr("OLLAMA_SENTIMENT_MODEL", "llama3"),
		EmbedModel:    envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		NewsSourceURL: envOr("NEWS_SOURCE_URL", "http://localhost:9000/search"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		MetricsPort:   envInt("METRICS_PORT", 9100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("newsfeed exited with error", "error", err)
		os.Exit(1)
	}
}

// staticUniverse is a placeholder UniverseSource until a real KRX universe
// feed is wired in; it always returns the same ticker set.
type staticUniverse struct {
	universe domain.Universe
}

func (s staticUniverse) Active(ctx context.Context) (domain.Universe, error) {
	return s.universe, nil
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	bus, err := news.NewStreamBus(js)
	if err != nil {
		return fmt.Errorf("stream bus: %w", err)
	}

	dedup, err := news.NewDeduplicator(js, logger)
	if err != nil {
		return fmt.Errorf("deduplicator: %w", err)
	}

	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)
	sentimentStore := store.NewNeo4jSentimentStore(neo4jDriver)

	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()
	if err := vectorStore.EnsureCollection(ctx, 768); err != nil {
		return fmt.Errorf("ensure qdrant collection: %w", err)
	}
	vectorSink := store.NewVectorArchiveSink(vectorStore)

	llm.Register("ollama", func() (domain.SentimentLLM, error) {
		return llm.NewOllamaSentiment(cfg.OllamaURL, cfg.OllamaModel, resilience.DefaultBreakerOpts), nil
	})
	llm.RegisterEmbedder("ollama", func() (domain.Embedder, error) {
		return llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel, resilience.DefaultBreakerOpts), nil
	})
	sentimentLLM, err := llm.Get("ollama")
	if err != nil {
		return err
	}
	embedder, err := llm.GetEmbedder("ollama")
	if err != nil {
		return err
	}

	fetcher := scraper.NewHTTPNewsFetcher(cfg.NewsSourceURL, 2.0, 4)
	collector := news.NewCollector(fetcher, dedup, bus, news.DefaultCollectorOpts, logger)

	analyzer, err := news.NewAnalyzer(bus, sentimentLLM, sentimentStore, 15, logger)
	if err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}

	archiver, err := news.NewArchiver(bus, embedder, vectorSink, logger)
	if err != nil {
		return fmt.Errorf("archiver: %w", err)
	}

	universe := staticUniverse{universe: domain.Universe{}}
	orchestrator := news.NewOrchestrator(universe, collector, analyzer, archiver, news.NewKRXClock(), nc, logger)

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort)

	mux := http.NewServeMux()
	orchestrator.RegisterRoutes(mux)

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	loopErrCh := make(chan error, 1)
	go func() {
		loopErrCh <- orchestrator.RunLoop(ctx)
	}()

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("newsfeed server starting", "port", cfg.Port)
		srvErrCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case err := <-loopErrCh:
		if err != nil {
			logger.Error("orchestrator loop exited", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
