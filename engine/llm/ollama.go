package llm

import (
	"context"
	"fmt"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/ollama"
	"github.com/youngs7596/prime-jennie-newsfeed/pkg/resilience"
)

// OllamaSentiment adapts pkg/ollama's JSON-mode generate client to
// domain.SentimentLLM, wrapped in a circuit breaker so a stuck model server
// fails fast instead of letting every analyzer goroutine pile up on timeouts.
type OllamaSentiment struct {
	client  *ollama.GenerateClient
	breaker *resilience.Breaker
}

// NewOllamaSentiment builds a breaker-protected Ollama sentiment provider.
func NewOllamaSentiment(baseURL, model string, breakerOpts resilience.BreakerOpts) *OllamaSentiment {
	return &OllamaSentiment{
		client:  ollama.NewGenerateClient(baseURL, model),
		breaker: resilience.NewBreaker(breakerOpts),
	}
}

// GenerateJSON implements domain.SentimentLLM.
func (o *OllamaSentiment) GenerateJSON(ctx context.Context, prompt string, schema domain.Schema) (map[string]any, error) {
	var out map[string]any
	err := o.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = o.client.GenerateJSON(ctx, prompt, schema)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("llm: ollama sentiment: %w", err)
	}
	return out, nil
}

// OllamaEmbedder adapts pkg/ollama's embedding client to domain.Embedder,
// wrapped the same way as OllamaSentiment.
type OllamaEmbedder struct {
	client  *ollama.EmbedClient
	breaker *resilience.Breaker
}

// NewOllamaEmbedder builds a breaker-protected Ollama embedder.
func NewOllamaEmbedder(baseURL, model string, breakerOpts resilience.BreakerOpts) *OllamaEmbedder {
	return &OllamaEmbedder{
		client:  ollama.NewEmbedClient(baseURL, model),
		breaker: resilience.NewBreaker(breakerOpts),
	}
}

// Embed implements domain.Embedder.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := o.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = o.client.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("llm: ollama embed: %w", err)
	}
	return out, nil
}

// EmbedBatch implements domain.Embedder.
func (o *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := o.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = o.client.EmbedBatch(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("llm: ollama embed batch: %w", err)
	}
	return out, nil
}
