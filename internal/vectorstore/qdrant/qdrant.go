package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/embedding"
)

// pointNamespace derives stable point ids from chunk ids, since Qdrant only
// accepts integers or UUIDs.
var pointNamespace = uuid.MustParse("6f1c3c1e-8f2a-4d2b-9a57-2f0d8f3e5b11")

// Storage is a minimal REST client to Qdrant paired with an embedder, so it
// presents itself as an index that embeds text itself.
// It assumes cosine distance and creates the collection on first upsert.
type Storage struct {
	url        string
	apiKey     string
	collection string
	embedder   embedding.Embedder
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

var _ domain.VectorIndex = (*Storage)(nil)

var errNotFound = errors.New("not found")

func NewStorage(cfg Config, embedder embedding.Embedder) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID maps a chunk id to its Qdrant point id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Info reports the collection's point count. A missing collection counts as
// empty. The embedding model is the paired embedder's.
func (s *Storage) Info(ctx context.Context) (domain.IndexInfo, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	err := s.doJSON(ctx, http.MethodGet, s.collectionURL(), nil, &resp)
	if errors.Is(err, errNotFound) {
		return domain.IndexInfo{EmbeddingModel: s.embedder.Model()}, nil
	}
	if err != nil {
		return domain.IndexInfo{}, err
	}
	return domain.IndexInfo{VectorCount: resp.Result.PointsCount, EmbeddingModel: s.embedder.Model()}, nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([][]float64, len(records))
	for i, r := range records {
		vec, err := s.embedder.Embed(ctx, r.Data)
		if err != nil {
			return fmt.Errorf("embed %s: %w", r.ID, err)
		}
		vectors[i] = vec
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     PointID(r.ID),
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id": r.ID,
				"title":    r.Metadata.Title,
				"type":     string(r.Metadata.Type),
				"content":  r.Metadata.Content,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.doJSON(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
}

func (s *Storage) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID string `json:"chunk_id"`
				domain.ChunkMetadata
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{
			Chunk: domain.ChunkFromMetadata(r.Payload.ChunkID, r.Payload.ChunkMetadata),
			Score: r.Score,
		})
	}
	return results, nil
}

func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	err := s.doJSON(ctx, http.MethodGet, s.collectionURL(), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, http.MethodPut, s.collectionURL(), body, nil)
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

func (s *Storage) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", method, url, errNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
