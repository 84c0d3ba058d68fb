// Package cache stores generated answers so repeated questions skip
// retrieval and generation.
package cache

import (
	"context"
	"strings"
)

// Cache maps a normalised question to an encoded answer.
type Cache interface {
	// Get reports ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key normalises a question: trimmed and lower-cased.
func Key(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}
