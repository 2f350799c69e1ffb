// Package memory writes episodic memory entries for the conversational
// assistant feature. Writes are strictly best-effort: a brief must never fail
// because the memory store is down.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const entryTTL = 90 * 24 * time.Hour

// Writer stores freeform episode summaries keyed by brief id.
type Writer struct {
	rdb *redis.Client
}

// NewWriter creates a Writer over the shared Redis instance.
func NewWriter(redisURL string) (*Writer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &Writer{rdb: redis.NewClient(opts)}, nil
}

// RecordBrief stores the episodic summary for one brief.
func (w *Writer) RecordBrief(ctx context.Context, briefID uint, text string) error {
	key := fmt.Sprintf("memory:brief:%d", briefID)
	if err := w.rdb.Set(ctx, key, text, entryTTL).Err(); err != nil {
		return fmt.Errorf("failed to write memory entry: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (w *Writer) Close() error {
	return w.rdb.Close()
}
