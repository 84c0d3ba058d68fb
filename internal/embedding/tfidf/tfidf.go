// Package tfidf is an in-process embedder for small corpora such as a
// single profile. Vectors live in the vocabulary space of the last Prepare.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"digitaltwin/internal/embedding"
)

var (
	wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

	errEmptyCorpus = errors.New("tfidf: empty corpus")
	errNoTerms     = errors.New("tfidf: corpus has no indexable terms")
	errUnprepared  = errors.New("tfidf: embedder not prepared")
)

var _ embedding.Embedder = (*Embedder)(nil)

type term struct {
	index int
	idf   float64
}

// Embedder weights terms by sublinear frequency times smoothed inverse
// document frequency. Prepare replaces the vocabulary; callers serialise
// Prepare against Embed.
type Embedder struct {
	terms map[string]term
}

// NewEmbedder returns an embedder with no vocabulary.
func NewEmbedder() *Embedder { return &Embedder{} }

func (e *Embedder) Name() string { return "tfidf" }

// Model is reported as the index's embedding model.
func (e *Embedder) Model() string { return "tfidf" }

func (e *Embedder) Prepared() bool { return len(e.terms) > 0 }

func (e *Embedder) Dimension() int { return len(e.terms) }

// Prepare builds the vocabulary from corpus, one document per entry.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errEmptyCorpus
	}
	docFreq := map[string]int{}
	for _, doc := range corpus {
		for tok := range termCounts(doc) {
			docFreq[tok]++
		}
	}
	if len(docFreq) == 0 {
		return errNoTerms
	}
	words := make([]string, 0, len(docFreq))
	for w := range docFreq {
		words = append(words, w)
	}
	sort.Strings(words)

	n := float64(len(corpus))
	terms := make(map[string]term, len(words))
	for i, w := range words {
		terms[w] = term{index: i, idf: 1 + math.Log((1+n)/(1+float64(docFreq[w])))}
	}
	e.terms = terms
	return nil
}

// Embed returns a unit vector, or the zero vector when text shares no term
// with the vocabulary.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.Prepared() {
		return nil, errUnprepared
	}
	vec := make([]float64, len(e.terms))
	for tok, count := range termCounts(text) {
		if t, ok := e.terms[tok]; ok {
			vec[t.index] = (1 + math.Log(float64(count))) * t.idf
		}
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

func termCounts(text string) map[string]int {
	counts := map[string]int{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		counts[fold(w)]++
	}
	return counts
}

// fold strips a plural "s" so "databases" and "database" share a term.
func fold(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

var stopwords = func() map[string]struct{} {
	m := map[string]struct{}{}
	for _, w := range strings.Fields(`a an the and or but if then else for to of in on at by with as
		is are was were be been being it its this that these those from up down over under than so
		such into about between through during before after out too very can will just should
		what which who how when where why do does did have has had you your me my i tell`) {
		m[w] = struct{}{}
	}
	return m
}()
