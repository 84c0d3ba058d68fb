package config

import (
	"fmt"
	"os"
	"strings"

	"digitaltwin/internal/domain"
)

// Env holds the secrets resolved from the environment.
type Env struct {
	LLMKey        string
	VectorURL     string
	VectorToken   string
	RedisPassword string
}

// ValidateEnv resolves the variables named by cfg. A missing language model
// key is fatal and wraps domain.ErrConfiguration. Problems with the vector
// backend variables only produce warnings: the twin then runs on keyword rules.
func ValidateEnv(cfg *AppConfig) (Env, []string, error) {
	var env Env
	var warnings []string

	env.LLMKey = strings.TrimSpace(os.Getenv(cfg.LLM.APIKeyEnv))
	if env.LLMKey == "" {
		return env, nil, fmt.Errorf("%w: %s is not set", domain.ErrConfiguration, cfg.LLM.APIKeyEnv)
	}

	if cfg.VectorStore.Type == "upstash" && cfg.VectorStore.Upstash != nil {
		u := cfg.VectorStore.Upstash
		var w []string
		env.VectorURL, w = readTrimmed(u.URLEnv)
		warnings = append(warnings, w...)
		env.VectorToken, w = readTrimmed(u.TokenEnv)
		warnings = append(warnings, w...)
	}
	if cfg.Cache.Type == "redis" && cfg.Cache.Redis != nil && cfg.Cache.Redis.PasswordEnv != "" {
		env.RedisPassword = os.Getenv(cfg.Cache.Redis.PasswordEnv)
	}
	return env, warnings, nil
}

func readTrimmed(name string) (string, []string) {
	raw := os.Getenv(name)
	if raw == "" {
		return "", []string{fmt.Sprintf("%s is not set; similarity search disabled", name)}
	}
	var warnings []string
	if strings.ContainsAny(raw, "\r\n") {
		warnings = append(warnings, fmt.Sprintf("%s contains newline characters", name))
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed != raw || strings.ContainsAny(trimmed, " \t") {
		warnings = append(warnings, fmt.Sprintf("%s contains whitespace", name))
	}
	return trimmed, warnings
}
