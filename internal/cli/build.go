package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"digitaltwin/internal/answer"
	"digitaltwin/internal/cache"
	"digitaltwin/internal/config"
	"digitaltwin/internal/llm"
	"digitaltwin/internal/logger"
	"digitaltwin/internal/retriever"
	"digitaltwin/internal/service"
	"digitaltwin/internal/vectorstore"
)

// initLogger starts the process logger. quiet commands own the terminal or
// stdout, so their logs are discarded unless an output directory is set.
func initLogger(cfg *config.AppConfig, quiet bool) error {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	output := cfg.Log.Output
	if quiet && output == "" {
		output = "-"
	}
	return logger.Init(level, cfg.Log.Format, output)
}

// buildTwin validates the environment and assembles the twin. Warnings are
// written to warn.
func buildTwin(ctx context.Context, cfg *config.AppConfig, warn io.Writer) (*service.Twin, error) {
	env, warnings, err := config.ValidateEnv(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(warn, "warning:", w)
		logger.Warnf("environment: %s", w)
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:  env.LLMKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	index, indexErr := vectorstore.Open(cfg, env)

	c, err := openCache(ctx, cfg, env)
	if err != nil {
		return nil, err
	}

	return service.Setup(ctx, service.Options{
		Index:         index,
		IndexErr:      indexErr,
		ProfilePath:   cfg.Profile.Path,
		MaxChunkChars: cfg.Chunker.MaxChunkChars,
		Completer:     client,
		Generation: answer.Options{
			Persona:     cfg.Persona.Name,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		Retrieval: retriever.SimilarityOptions{
			TopK:          cfg.Retrieval.TopK,
			MinScore:      cfg.Retrieval.MinScore,
			MaxQueryChars: cfg.Retrieval.MaxQueryChars,
		},
		Cache: c,
	})
}

// openCache returns nil for cache type none. An unreachable redis is not
// fatal; answers are then simply not cached.
func openCache(ctx context.Context, cfg *config.AppConfig, env config.Env) (cache.Cache, error) {
	ttl := time.Duration(cfg.Cache.TTLSecs) * time.Second
	switch cfg.Cache.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return cache.NewMemory(cfg.Cache.Size, ttl), nil
	case "redis":
		r := cfg.Cache.Redis
		c, err := cache.NewRedis(ctx, r.Addr, env.RedisPassword, r.DB, r.Prefix, ttl)
		if err != nil {
			logger.Warnw("answer cache disabled", "error", err)
			return nil, nil
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}
}
