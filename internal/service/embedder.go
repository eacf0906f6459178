package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gigchat/internal/config"
)

// Embedder turns text into a fixed-width vector. An empty slice or an error
// both mean "no embedding"; callers decide how soft to fail. Implementations
// are constructed once at startup and shared across requests (stateless per
// call, so safe for concurrent reuse).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// LocalEmbedder talks to the local encoder sidecar, an HTTP service wrapping
// the jhgan/ko-sroberta-multitask sentence model (768 dimensions).
type LocalEmbedder struct {
	url        string
	dimensions int
	httpClient *http.Client
}

// NewLocalEmbedder creates a client for the local embedding service.
func NewLocalEmbedder(cfg *config.LocalEmbedConfig) *LocalEmbedder {
	return &LocalEmbedder{
		url:        cfg.URL,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Dimensions returns the encoder's vector width.
func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed requests one embedding from the local encoder.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.url+"/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call local embedder: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local embedder returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embed response: %w", err)
	}
	if len(result.Embedding) != e.dimensions {
		return nil, fmt.Errorf("local embedder returned %d dimensions, expected %d", len(result.Embedding), e.dimensions)
	}
	return result.Embedding, nil
}

// OpenAIEmbedder adapts the OpenAI-compatible client to the Embedder
// interface (text-embedding-3-small, 1536 dimensions).
type OpenAIEmbedder struct {
	client     *OpenAIClient
	dimensions int
}

// NewOpenAIEmbedder wraps an OpenAI client as an Embedder.
func NewOpenAIEmbedder(client *OpenAIClient, dimensions int) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, dimensions: dimensions}
}

// Dimensions returns the provider's vector width.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed requests one embedding from the OpenAI embeddings endpoint.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.CreateEmbedding(ctx, text)
}
