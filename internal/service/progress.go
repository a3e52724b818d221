package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProgressRunning = "running"
	ProgressDone    = "done"
	ProgressFailed  = "failed"
)

// CommitProgress is a point-in-time view of a running or finished commit.
type CommitProgress struct {
	BatchID   string    `json:"batch_id"`
	State     string    `json:"state"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	Percent   float64   `json:"percent"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressTracker stores commit progress. Report errors are advisory and
// never stop a commit.
type ProgressTracker interface {
	Report(ctx context.Context, progress CommitProgress) error
	Get(ctx context.Context, batchID string) (*CommitProgress, error)
}

// ErrProgressNotFound means no commit has reported for the batch, or the entry expired.
var ErrProgressNotFound = errors.New("no commit progress recorded")

type RedisProgressTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProgressTracker(client *redis.Client, ttl time.Duration) *RedisProgressTracker {
	return &RedisProgressTracker{client: client, ttl: ttl}
}

func progressKey(batchID string) string {
	return fmt.Sprintf("import:progress:%s", batchID)
}

func (t *RedisProgressTracker) Report(ctx context.Context, progress CommitProgress) error {
	if progress.Total > 0 {
		progress.Percent = float64(progress.Processed) / float64(progress.Total) * 100
	}
	progress.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, progressKey(progress.BatchID), data, t.ttl).Err()
}

func (t *RedisProgressTracker) Get(ctx context.Context, batchID string) (*CommitProgress, error) {
	data, err := t.client.Get(ctx, progressKey(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read progress for %s: %w", batchID, err)
	}

	var progress CommitProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("decode progress for %s: %w", batchID, err)
	}
	return &progress, nil
}

// NoopProgressTracker is used when Redis is unavailable.
type NoopProgressTracker struct{}

func (NoopProgressTracker) Report(context.Context, CommitProgress) error { return nil }

func (NoopProgressTracker) Get(context.Context, string) (*CommitProgress, error) {
	return nil, ErrProgressNotFound
}
