package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
)

const pendingPrefix = "pending:"

// PendingBufferStore holds pre-auth survey progress keyed by an opaque
// client-supplied buffer id. Entries expire after the configured TTL
// and are capped in size, so an abandoned browser never leaks answers
// into the store forever.
type PendingBufferStore struct {
	client *Client
	ttl    time.Duration
	cap    int
}

// NewPendingBufferStore creates a new pending buffer store
func NewPendingBufferStore(client *Client, ttl time.Duration, maxAnswers int) *PendingBufferStore {
	return &PendingBufferStore{
		client: client,
		ttl:    ttl,
		cap:    maxAnswers,
	}
}

// Get retrieves pending progress for a buffer id; nil on miss
func (s *PendingBufferStore) Get(ctx context.Context, bufferID string) (*domain.PendingProgress, error) {
	key := fmt.Sprintf("%s%s", pendingPrefix, bufferID)

	data, err := s.client.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending progress: %w", err)
	}

	var progress domain.PendingProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending progress: %w", err)
	}
	return &progress, nil
}

// Save stores pending progress, refreshing its TTL
func (s *PendingBufferStore) Save(ctx context.Context, bufferID string, progress *domain.PendingProgress) error {
	if len(progress.Answers) > s.cap {
		return fmt.Errorf("pending buffer over capacity: %d answers (max %d)", len(progress.Answers), s.cap)
	}

	key := fmt.Sprintf("%s%s", pendingPrefix, bufferID)

	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal pending progress: %w", err)
	}

	return s.client.rdb.Set(ctx, key, data, s.ttl).Err()
}

// Delete removes a buffer once it has been merged into a survey
func (s *PendingBufferStore) Delete(ctx context.Context, bufferID string) error {
	key := fmt.Sprintf("%s%s", pendingPrefix, bufferID)
	return s.client.rdb.Del(ctx, key).Err()
}
