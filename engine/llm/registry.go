// Package llm provides the sentiment-scoring and embedding collaborators as
// lazily-registered providers, keeping engine/news decoupled from any single
// backend package (pkg/ollama today, swappable without touching callers).
package llm

import (
	"fmt"
	"sync"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
)

// SentimentFactory builds a domain.SentimentLLM on demand.
type SentimentFactory func() (domain.SentimentLLM, error)

// EmbedderFactory builds a domain.Embedder on demand.
type EmbedderFactory func() (domain.Embedder, error)

var (
	mu                sync.Mutex
	sentimentRegistry = map[string]SentimentFactory{}
	embedderRegistry  = map[string]EmbedderFactory{}
)

// Register binds name to a sentiment provider factory. Called once at
// startup by cmd/newsfeed after config is loaded; registering the same name
// twice replaces the previous factory.
func Register(name string, f SentimentFactory) {
	mu.Lock()
	defer mu.Unlock()
	sentimentRegistry[name] = f
}

// Get resolves a registered sentiment provider by name.
func Get(name string) (domain.SentimentLLM, error) {
	mu.Lock()
	f, ok := sentimentRegistry[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("llm: no sentiment provider registered as %q", name)
	}
	return f()
}

// RegisterEmbedder binds name to an embedder factory.
func RegisterEmbedder(name string, f EmbedderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embedderRegistry[name] = f
}

// GetEmbedder resolves a registered embedder by name.
func GetEmbedder(name string) (domain.Embedder, error) {
	mu.Lock()
	f, ok := embedderRegistry[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("llm: no embedder registered as %q", name)
	}
	return f()
}
