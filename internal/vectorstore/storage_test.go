package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/config"
	"digitaltwin/internal/domain"
	"digitaltwin/internal/vectorstore/memory"
	"digitaltwin/internal/vectorstore/upstash"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		idx, err := Open(&config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "memory"}}, config.Env{})
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, idx)
	})
	t.Run("upstash", func(t *testing.T) {
		cfg := &config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "upstash", Upstash: &config.UpstashConfig{}}}
		idx, err := Open(cfg, config.Env{VectorURL: "https://x-vector.upstash.io", VectorToken: "tok"})
		require.NoError(t, err)
		assert.IsType(t, &upstash.Storage{}, idx)
	})
	t.Run("upstash without credentials", func(t *testing.T) {
		cfg := &config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "upstash"}}
		_, err := Open(cfg, config.Env{})
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
	t.Run("upstash search url", func(t *testing.T) {
		cfg := &config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "upstash"}}
		_, err := Open(cfg, config.Env{VectorURL: "https://x-search.upstash.io", VectorToken: "tok"})
		assert.ErrorIs(t, err, domain.ErrWrongService)
	})
	t.Run("qdrant without embedder", func(t *testing.T) {
		cfg := &config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{}}}
		_, err := Open(cfg, config.Env{})
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
	t.Run("none", func(t *testing.T) {
		_, err := Open(&config.AppConfig{VectorStore: config.VectorStoreConfig{Type: "none"}}, config.Env{})
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
}
