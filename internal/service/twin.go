// Package service wires retrieval and generation into the digital twin and
// owns its lifecycle: Init, then SimilarityReady or DegradedReady, then
// Serving, then Terminated.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"digitaltwin/internal/answer"
	"digitaltwin/internal/cache"
	"digitaltwin/internal/chunker"
	"digitaltwin/internal/domain"
	"digitaltwin/internal/llm"
	"digitaltwin/internal/logger"
	"digitaltwin/internal/profile"
	"digitaltwin/internal/retriever"
)

// State is a lifecycle stage of a Twin.
type State int32

const (
	StateInit State = iota
	StateSimilarityReady
	StateDegradedReady
	StateServing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSimilarityReady:
		return "similarity_ready"
	case StateDegradedReady:
		return "degraded_ready"
	case StateServing:
		return "serving"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options configures Setup.
type Options struct {
	// Index is the similarity backend; nil means unavailable and IndexErr
	// says why.
	Index    domain.VectorIndex
	IndexErr error

	ProfilePath   string
	MaxChunkChars int

	Completer  llm.Completer
	Generation answer.Options
	Retrieval  retriever.SimilarityOptions

	// Cache is optional.
	Cache cache.Cache
}

// Metrics are per-question timings.
type Metrics struct {
	Retrieval  time.Duration `json:"retrieval"`
	Generation time.Duration `json:"generation"`
	Total      time.Duration `json:"total"`
}

// Answer is the outcome of one question. Text is always displayable.
type Answer struct {
	Text    string             `json:"text"`
	Mode    retriever.Mode     `json:"mode"`
	Sources []retriever.Source `json:"sources"`
	Metrics Metrics            `json:"metrics"`
	Cached  bool               `json:"cached"`
	Refused bool               `json:"refused"`

	// Err is set when Text reports a failure rather than an answer.
	Err error `json:"-"`
}

// Twin answers questions about one profile. Questions are handled one at a
// time; concurrent callers wait their turn.
type Twin struct {
	state     atomic.Int32
	mu        sync.Mutex
	retriever retriever.Retriever
	generator *answer.Generator
	doc       *profile.Document
	reason    error
	cache     cache.Cache
	scope     string
	maxQuery  int
}

// Setup performs Init and returns a Twin in SimilarityReady or
// DegradedReady. Similarity needs a reachable index with an integrated
// embedding model, hydrated from the profile if empty; any failure on that
// path degrades to keyword rules. Errors returned are fatal: a missing
// completer (domain.ErrConfiguration) or, in degraded mode, an unloadable
// profile (domain.ErrProfileLoad).
func Setup(ctx context.Context, opts Options) (*Twin, error) {
	if opts.Completer == nil {
		return nil, fmt.Errorf("%w: no language model client", domain.ErrConfiguration)
	}
	t := &Twin{cache: opts.Cache, maxQuery: opts.Retrieval.MaxQueryChars}

	doc, loadErr := profile.Load(opts.ProfilePath)
	if loadErr != nil {
		logger.Warnw("profile not loaded", "path", opts.ProfilePath, "error", loadErr)
	}

	sim, reason := hydrate(ctx, opts, doc, loadErr)
	if reason == nil {
		t.retriever = sim
		t.state.Store(int32(StateSimilarityReady))
	} else {
		if loadErr != nil {
			return nil, loadErr
		}
		t.reason = reason
		t.retriever = retriever.NewRules(doc)
		t.state.Store(int32(StateDegradedReady))
		logger.Warnw("similarity search unavailable, using keyword rules", "reason", reason.Error())
	}
	t.doc = doc
	t.scope = cacheScope(t.retriever.Mode(), doc)

	gen := opts.Generation
	if gen.Persona == "" {
		gen.Persona = doc.Name()
	}
	t.generator = answer.NewGenerator(opts.Completer, gen)

	logger.Infow("twin ready",
		"state", t.State().String(),
		"mode", string(t.retriever.Mode()),
		"persona", t.generator.Persona(),
	)
	return t, nil
}

// hydrate checks the index and ingests the profile into it when empty.
// A nil error means similarity mode is usable for the whole session.
func hydrate(ctx context.Context, opts Options, doc *profile.Document, loadErr error) (*retriever.Similarity, error) {
	if opts.Index == nil {
		if opts.IndexErr != nil {
			return nil, opts.IndexErr
		}
		return nil, fmt.Errorf("%w: no similarity backend configured", domain.ErrBackendUnavailable)
	}
	info, err := opts.Index.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if info.EmbeddingModel == "" {
		return nil, fmt.Errorf("%w: index has no integrated embedding model", domain.ErrBackendUnavailable)
	}
	logger.Infow("similarity backend reachable", "vectors", info.VectorCount, "embedding_model", info.EmbeddingModel)

	// A non-zero count is trusted as fully ingested; a partial earlier
	// upload is not detected.
	if info.VectorCount == 0 {
		if loadErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, loadErr)
		}
		chunks, err := chunker.NewProfileChunker(opts.MaxChunkChars).Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
		}
		records := make([]domain.VectorRecord, len(chunks))
		for i, c := range chunks {
			records[i] = domain.RecordFromChunk(c)
		}
		start := time.Now()
		if err := opts.Index.Upsert(ctx, records); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
		}
		logger.Infow("profile ingested", "chunks", len(records), "duration", time.Since(start))
	}
	return retriever.NewSimilarity(opts.Index, opts.Retrieval), nil
}

// Ask answers one question. Only a blank question (domain.ErrEmptyQuestion)
// or a closed twin (domain.ErrTerminated) return an error; every other
// failure is reported in Answer.Text.
func (t *Twin) Ask(ctx context.Context, question string) (Answer, error) {
	if t.State() == StateTerminated {
		return Answer{}, domain.ErrTerminated
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, domain.ErrEmptyQuestion
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.State() == StateTerminated {
		return Answer{}, domain.ErrTerminated
	}
	t.state.CompareAndSwap(int32(StateSimilarityReady), int32(StateServing))
	t.state.CompareAndSwap(int32(StateDegradedReady), int32(StateServing))

	question = retriever.Clip(question, t.maxQuery)
	key := t.scope + cache.Key(question)
	if a, ok := t.cached(ctx, key); ok {
		return a, nil
	}

	start := time.Now()
	out := Answer{Mode: t.retriever.Mode()}
	res, err := t.retriever.Retrieve(ctx, question)
	out.Metrics.Retrieval = time.Since(start)
	if err != nil {
		out.Text = retrievalMessage(err)
		if !errors.Is(err, domain.ErrNoRelevantInfo) && !errors.Is(err, domain.ErrNoExtractableContent) {
			out.Err = err
			logger.Error("retrieval failed", err)
		}
		out.Metrics.Total = time.Since(start)
		if out.Err == nil {
			t.store(ctx, key, out)
		}
		return out, nil
	}
	out.Sources = res.Sources

	genStart := time.Now()
	reply := t.generator.Answer(ctx, question, res.Facts)
	out.Metrics.Generation = time.Since(genStart)
	out.Metrics.Total = time.Since(start)
	out.Text, out.Refused, out.Err = reply.Text, reply.Refused, reply.Err

	logger.Infow("question answered",
		"mode", string(out.Mode),
		"sources", len(out.Sources),
		"retrieval", out.Metrics.Retrieval,
		"generation", out.Metrics.Generation,
	)
	if out.Err == nil {
		t.store(ctx, key, out)
	}
	return out, nil
}

func retrievalMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoRelevantInfo):
		return answer.NoInformation
	case errors.Is(err, domain.ErrNoExtractableContent):
		return answer.NoDetails
	default:
		return "Error during query: " + err.Error()
	}
}

// cacheScope prefixes answer keys so twins over different profiles or
// retrieval modes never share entries in one cache.
func cacheScope(mode retriever.Mode, doc *profile.Document) string {
	fp := "none"
	if doc != nil {
		if data, err := json.Marshal(doc); err == nil {
			sum := sha256.Sum256(data)
			fp = hex.EncodeToString(sum[:6])
		}
	}
	return string(mode) + ":" + fp + ":"
}

func (t *Twin) cached(ctx context.Context, key string) (Answer, bool) {
	if t.cache == nil {
		return Answer{}, false
	}
	data, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		logger.Warnw("answer cache read failed", "error", err)
		return Answer{}, false
	}
	if !ok {
		return Answer{}, false
	}
	var a Answer
	if err := json.Unmarshal(data, &a); err != nil {
		logger.Warnw("answer cache entry unreadable", "error", err)
		return Answer{}, false
	}
	a.Cached = true
	a.Metrics = Metrics{}
	return a, true
}

func (t *Twin) store(ctx context.Context, key string, a Answer) {
	if t.cache == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := t.cache.Set(ctx, key, data); err != nil {
		logger.Warnw("answer cache write failed", "error", err)
	}
}

// State returns the current lifecycle stage.
func (t *Twin) State() State { return State(t.state.Load()) }

// Mode reports which retriever was chosen at Setup. It never changes.
func (t *Twin) Mode() retriever.Mode { return t.retriever.Mode() }

// DegradedReason is why similarity search is not in use, or nil.
func (t *Twin) DegradedReason() error { return t.reason }

// Persona is the name the twin speaks as.
func (t *Twin) Persona() string { return t.generator.Persona() }

// Profile is the loaded profile, nil when similarity mode runs from a
// previously hydrated index without a readable profile file.
func (t *Twin) Profile() *profile.Document { return t.doc }

// Banner summarises the personal summary and elevator pitch.
func (t *Twin) Banner(s domain.Summarizer, maxSentences int) string {
	if t.doc == nil || t.doc.Personal == nil || s == nil {
		return ""
	}
	text := strings.TrimSpace(t.doc.Personal.Summary + " " + t.doc.Personal.ElevatorPitch)
	if text == "" {
		return ""
	}
	out, err := s.Summarize(text, maxSentences)
	if err != nil {
		return ""
	}
	return out
}

// Close terminates the twin. Later calls to Ask return domain.ErrTerminated.
func (t *Twin) Close() error {
	if State(t.state.Swap(int32(StateTerminated))) == StateTerminated {
		return nil
	}
	logger.Info("twin terminated")
	if c, ok := t.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
