// Package retriever selects the profile facts relevant to a question, either
// through a similarity index or, when none is available, through keyword rules.
package retriever

import (
	"context"
	"unicode/utf8"

	"digitaltwin/internal/domain"
)

// Mode names how a Retriever finds facts.
type Mode string

const (
	ModeSimilarity Mode = "similarity"
	ModeDegraded   Mode = "degraded"
)

// Retriever is implemented only by *Similarity and *Rules.
type Retriever interface {
	Mode() Mode
	Retrieve(ctx context.Context, query string) (Result, error)
	sealed()
}

// Result is the ordered context handed to the answer generator.
type Result struct {
	// Facts are "Label: value" lines, one per retrieved unit.
	Facts   []string
	Sources []Source
}

// Source identifies where a fact came from. Score is zero in degraded mode.
type Source struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Type  domain.ChunkType `json:"type,omitempty"`
	Score float64          `json:"score,omitempty"`
}

// Clip shortens query to at most maxChars bytes without splitting a rune.
// maxChars <= 0 leaves it untouched.
func Clip(query string, maxChars int) string {
	if maxChars <= 0 || len(query) <= maxChars {
		return query
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut]
}
