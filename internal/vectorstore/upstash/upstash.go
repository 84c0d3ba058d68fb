// Package upstash is a REST client for an Upstash Vector index configured
// with an integrated embedding model. The index embeds text itself.
package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"digitaltwin/internal/domain"
)

// BatchSize caps the records sent per upsert request.
const BatchSize = 10

// Storage talks to the index over REST with a bearer token.
type Storage struct {
	url    string
	token  string
	client *http.Client
}

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

var _ domain.VectorIndex = (*Storage)(nil)

// NewStorage validates the URL before any request is made. A missing URL or
// token wraps domain.ErrBackendUnavailable; a URL of the full-text search
// product wraps domain.ErrWrongService.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: url and token are required", domain.ErrBackendUnavailable)
	}
	if err := ValidateURL(cfg.URL); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:    strings.TrimRight(cfg.URL, "/"),
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// ValidateURL rejects unparseable, non-https and search-service URLs.
// Loopback hosts may use plain http.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid url %q", domain.ErrBackendUnavailable, raw)
	}
	host := u.Hostname()
	if strings.Contains(host, "search.upstash.io") {
		return fmt.Errorf("%w: %s is an Upstash Search url, not a Vector index", domain.ErrWrongService, host)
	}
	if u.Scheme != "https" && !isLoopback(host) {
		return fmt.Errorf("%w: url must use https", domain.ErrBackendUnavailable)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

type infoResponse struct {
	Result struct {
		VectorCount    int    `json:"vectorCount"`
		EmbeddingModel string `json:"embeddingModel"`
		DenseIndex     *struct {
			EmbeddingModel string `json:"embeddingModel"`
		} `json:"denseIndex"`
	} `json:"result"`
}

// Info returns the vector count and the index's integrated embedding model,
// "" when the index expects raw vectors.
func (s *Storage) Info(ctx context.Context) (domain.IndexInfo, error) {
	var resp infoResponse
	if err := s.doJSON(ctx, http.MethodGet, "/info", nil, &resp); err != nil {
		return domain.IndexInfo{}, err
	}
	model := resp.Result.EmbeddingModel
	if resp.Result.DenseIndex != nil && resp.Result.DenseIndex.EmbeddingModel != "" {
		model = resp.Result.DenseIndex.EmbeddingModel
	}
	return domain.IndexInfo{VectorCount: resp.Result.VectorCount, EmbeddingModel: model}, nil
}

type upsertItem struct {
	ID       string               `json:"id"`
	Data     string               `json:"data"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

// Upsert sends records in batches of BatchSize. Ids overwrite.
func (s *Storage) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for start := 0; start < len(records); start += BatchSize {
		end := min(start+BatchSize, len(records))
		batch := make([]upsertItem, 0, end-start)
		for _, r := range records[start:end] {
			batch = append(batch, upsertItem{ID: r.ID, Data: r.Data, Metadata: r.Metadata})
		}
		if err := s.doJSON(ctx, http.MethodPost, "/upsert-data", batch, nil); err != nil {
			return fmt.Errorf("batch %d: %w", start/BatchSize+1, err)
		}
	}
	return nil
}

type queryRequest struct {
	Data            string `json:"data"`
	TopK            int    `json:"topK"`
	IncludeMetadata bool   `json:"includeMetadata"`
}

type queryResponse struct {
	Result []struct {
		ID       string                `json:"id"`
		Score    float64               `json:"score"`
		Metadata *domain.ChunkMetadata `json:"metadata"`
	} `json:"result"`
}

func (s *Storage) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	var resp queryResponse
	req := queryRequest{Data: text, TopK: topK, IncludeMetadata: true}
	if err := s.doJSON(ctx, http.MethodPost, "/query-data", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		var meta domain.ChunkMetadata
		if r.Metadata != nil {
			meta = *r.Metadata
		}
		results = append(results, domain.SearchResult{Chunk: domain.ChunkFromMetadata(r.ID, meta), Score: r.Score})
	}
	return results, nil
}

// errorResponse is the body Upstash sends with non-2xx statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Storage) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("upstash %s %s failed: %s: %s", method, path, resp.Status, e.Error)
		}
		return fmt.Errorf("upstash %s %s failed: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
