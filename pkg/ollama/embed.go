// Package ollama provides Ollama-backed embedding and text-generation
// clients, implementing the plain engine/domain collaborator interfaces
// directly (no gRPC service contract).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/youngs7596/prime-jennie-newsfeed/engine/domain"
)

// EmbedClient implements domain.Embedder using Ollama's /api/embeddings.
type EmbedClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewEmbedClient creates an Ollama embedding client.
func NewEmbedClient(baseURL, model string) *EmbedClient {
	return &EmbedClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

func (c *EmbedClient) embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// Embed returns the embedding for a single text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text)
}

// EmbedBatch embeds each text in order, failing on the first error.
// Ollama's /api/embeddings takes one prompt per call; there is no native
// batch endpoint to delegate to.
func (c *EmbedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vals, err := c.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d]: %w", i, err)
		}
		out[i] = vals
	}
	return out, nil
}

// GenerateClient implements domain.SentimentLLM using Ollama's /api/generate
// in JSON mode.
type GenerateClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewGenerateClient creates an Ollama JSON-generation client.
func NewGenerateClient(baseURL, model string) *GenerateClient {
	return &GenerateClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type ollamaGenerateReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
}

// GenerateJSON sends prompt to the model with format=json and decodes the
// response body's "response" field as a JSON object. schema is informational
// only here; Ollama's format=json guarantees syntactic validity, not the
// field set — callers validate the decoded map against the fields they need.
func (c *GenerateClient) GenerateJSON(ctx context.Context, prompt string, _ domain.Schema) (map[string]any, error) {
	body, _ := json.Marshal(ollamaGenerateReq{Model: c.model, Prompt: prompt, Format: "json", Stream: false})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}

	var wrapper ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("ollama generate decode: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(wrapper.Response), &out); err != nil {
		return nil, fmt.Errorf("ollama generate: response was not a JSON object: %w", err)
	}
	return out, nil
}
