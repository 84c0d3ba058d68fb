// Package openai embeds text through an OpenAI-compatible /embeddings
// endpoint. Ollama's native response shape is also understood.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"digitaltwin/internal/embedding"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 30 * time.Second
)

var _ embedding.Embedder = (*Client)(nil)

// Config names the environment variable holding the API key.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Client embeds one text per request. Failures are returned, not retried.
type Client struct {
	http      *http.Client
	endpoint  string
	apiKey    string
	model     string
	dimension atomic.Int64
}

// NewClient fails when the key variable is unset.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("embeddings: %s is not set", cfg.APIKeyEnv)
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(base, "/") + "/embeddings",
		apiKey:   key,
		model:    model,
	}, nil
}

func (c *Client) Name() string  { return "openai" }
func (c *Client) Model() string { return c.model }

// Prepare is a no-op; the remote model needs no corpus.
func (c *Client) Prepare([]string) error { return nil }

// Dimension is 0 until the first successful Embed.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// embeddingRequest sets both input (OpenAI) and prompt (Ollama).
type embeddingRequest struct {
	Model  string `json:"model"`
	Input  string `json:"input,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Embedding []float64 `json:"embedding"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r embeddingResponse) vector() []float64 {
	if len(r.Data) > 0 && len(r.Data[0].Embedding) > 0 {
		return r.Data[0].Embedding
	}
	return r.Embedding
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embeddings: read response: %w", err)
	}
	var out embeddingResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("embeddings: %s: %s", resp.Status, out.Error.Message)
		}
		return nil, fmt.Errorf("embeddings: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("embeddings: decode response: %w", decodeErr)
	}
	vec := out.vector()
	if len(vec) == 0 {
		return nil, fmt.Errorf("embeddings: response carried no vector")
	}
	c.dimension.CompareAndSwap(0, int64(len(vec)))
	return vec, nil
}
