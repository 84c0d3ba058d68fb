package retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/logger"
)

// DefaultTopK is the number of chunks requested per query.
const DefaultTopK = 3

// SimilarityOptions tunes similarity retrieval.
type SimilarityOptions struct {
	TopK          int
	MinScore      float64
	MaxQueryChars int
}

// Similarity retrieves chunks from a hydrated vector index.
type Similarity struct {
	index domain.VectorIndex
	opts  SimilarityOptions
}

var _ Retriever = (*Similarity)(nil)

func NewSimilarity(index domain.VectorIndex, opts SimilarityOptions) *Similarity {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Similarity{index: index, opts: opts}
}

func (s *Similarity) Mode() Mode { return ModeSimilarity }

func (s *Similarity) sealed() {}

// Retrieve returns domain.ErrNoRelevantInfo when the index has no hit at or
// above the minimum score, and domain.ErrNoExtractableContent when hits carry
// no content. Callers must not generate from an empty context.
func (s *Similarity) Retrieve(ctx context.Context, query string) (Result, error) {
	start := time.Now()
	hits, err := s.index.Query(ctx, Clip(query, s.opts.MaxQueryChars), s.opts.TopK)
	if err != nil {
		return Result{}, fmt.Errorf("%w: query: %v", domain.ErrBackendUnavailable, err)
	}

	var res Result
	kept := 0
	for _, h := range hits {
		if h.Score < s.opts.MinScore {
			continue
		}
		kept++
		content := strings.TrimSpace(h.Chunk.Content)
		if content == "" {
			continue
		}
		title := h.Chunk.Title
		if title == "" {
			title = "Information"
		}
		res.Facts = append(res.Facts, title+": "+content)
		res.Sources = append(res.Sources, Source{ID: h.Chunk.ID, Title: title, Type: h.Chunk.Type, Score: h.Score})
	}
	logger.Infow("similarity retrieval",
		"hits", len(hits),
		"kept", kept,
		"facts", len(res.Facts),
		"duration", time.Since(start),
	)
	if kept == 0 {
		return Result{}, domain.ErrNoRelevantInfo
	}
	if len(res.Facts) == 0 {
		return Result{}, domain.ErrNoExtractableContent
	}
	return res, nil
}
