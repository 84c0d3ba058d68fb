package vectorstore

import (
	"fmt"
	"os"
	"time"

	"digitaltwin/internal/config"
	"digitaltwin/internal/domain"
	"digitaltwin/internal/embedding/openai"
	"digitaltwin/internal/vectorstore/memory"
	"digitaltwin/internal/vectorstore/qdrant"
	"digitaltwin/internal/vectorstore/upstash"
)

// Open builds the configured similarity backend. Any failure wraps
// domain.ErrBackendUnavailable or domain.ErrWrongService; the caller then
// runs without similarity search.
func Open(cfg *config.AppConfig, env config.Env) (domain.VectorIndex, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "upstash":
		timeout := 15 * time.Second
		if vs.Upstash != nil && vs.Upstash.TimeoutSecs > 0 {
			timeout = time.Duration(vs.Upstash.TimeoutSecs) * time.Second
		}
		s, err := upstash.NewStorage(upstash.Config{URL: env.VectorURL, Token: env.VectorToken, Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "qdrant":
		q := vs.Qdrant
		if q == nil {
			return nil, fmt.Errorf("%w: qdrant section missing", domain.ErrBackendUnavailable)
		}
		if cfg.Embedder.Type != "openai" || cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("%w: qdrant needs an openai embedder, got %q", domain.ErrBackendUnavailable, cfg.Embedder.Type)
		}
		o := cfg.Embedder.OpenAI
		emb, err := openai.NewClient(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
		}
		var apiKey string
		if q.APIKeyEnv != "" {
			apiKey = os.Getenv(q.APIKeyEnv)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     apiKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}, emb), nil
	case "memory":
		return memory.NewStorage(), nil
	case "none":
		return nil, fmt.Errorf("%w: disabled by configuration", domain.ErrBackendUnavailable)
	default:
		return nil, fmt.Errorf("%w: unknown vector store type %q", domain.ErrBackendUnavailable, vs.Type)
	}
}
