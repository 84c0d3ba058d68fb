package memory

import (
	"context"
	"sort"
	"sync"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/embedding/tfidf"
)

// Storage is an in-process vector index using brute-force cosine similarity.
// It embeds records itself with TF-IDF, so the vocabulary is rebuilt over the
// whole corpus on every upsert. Records are keyed by id; re-upserting an id
// overwrites it.
type Storage struct {
	mu       sync.RWMutex
	embedder *tfidf.Embedder
	order    []string
	records  map[string]domain.VectorRecord
	vectors  map[string][]float64
}

func NewStorage() *Storage {
	return &Storage{
		embedder: tfidf.NewEmbedder(),
		records:  make(map[string]domain.VectorRecord),
		vectors:  make(map[string][]float64),
	}
}

func (s *Storage) Info(ctx context.Context) (domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IndexInfo{VectorCount: len(s.records), EmbeddingModel: s.embedder.Model()}, nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.records[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	corpus := make([]string, 0, len(s.order))
	for _, id := range s.order {
		corpus = append(corpus, s.records[id].Data)
	}
	if err := s.embedder.Prepare(corpus); err != nil {
		return err
	}
	for _, id := range s.order {
		vec, err := s.embedder.Embed(ctx, s.records[id].Data)
		if err != nil {
			return err
		}
		s.vectors[id] = vec
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	if len(s.order) == 0 {
		return nil, nil
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(s.order))
	for _, id := range s.order {
		// vectors are L2-normalized
		score := dot(s.vectors[id], q)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk: domain.ChunkFromMetadata(id, s.records[id].Metadata),
			Score: score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
