package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quillpress/internal/logger"
)

const (
	// ModerationQueuePrefix is the key prefix for per-post pending queues.
	ModerationQueuePrefix = "modqueue:post:"

	// ModerationQueueAll holds every pending comment across posts.
	ModerationQueueAll = "modqueue:all"

	// ModerationQueueCap bounds each queue. Entries past the cap are the
	// newest ones and get dropped with a warning; the store still holds them.
	ModerationQueueCap = 10000
)

// ModerationQueue tracks pending comment ids ordered by creation time.
// It is a read model fed by the comment event stream; the store stays the
// source of truth for status.
type ModerationQueue interface {
	// Add enqueues a pending comment on both the post queue and the global one.
	Add(ctx context.Context, postID, commentID uuid.UUID, createdAt time.Time) error

	// Remove drops a comment from both queues. Missing members are ignored.
	Remove(ctx context.Context, postID, commentID uuid.UUID) error

	// List returns pending ids oldest first. A nil postID reads the global queue.
	List(ctx context.Context, postID *uuid.UUID, offset, limit int) ([]uuid.UUID, error)

	// Size returns the queue length. A nil postID reads the global queue.
	Size(ctx context.Context, postID *uuid.UUID) (int64, error)
}

// RedisModerationQueue implements ModerationQueue using sorted sets.
type RedisModerationQueue struct {
	client   *redis.Client
	capacity int64
}

// NewModerationQueue creates a ModerationQueue backed by Redis.
func NewModerationQueue(client *redis.Client) ModerationQueue {
	return NewModerationQueueWithCap(client, ModerationQueueCap)
}

// NewModerationQueueWithCap creates a Redis ModerationQueue holding at most
// capacity entries per key.
func NewModerationQueueWithCap(client *redis.Client, capacity int64) ModerationQueue {
	if capacity <= 0 {
		capacity = ModerationQueueCap
	}
	return &RedisModerationQueue{client: client, capacity: capacity}
}

func queueKey(postID *uuid.UUID) string {
	if postID == nil {
		return ModerationQueueAll
	}
	return ModerationQueuePrefix + postID.String()
}

// Add runs ZADD NX on both keys plus a trim in a single pipeline. NX keeps
// the original position when an event is redelivered.
func (q *RedisModerationQueue) Add(ctx context.Context, postID, commentID uuid.UUID, createdAt time.Time) error {
	member := redis.Z{Score: float64(createdAt.UnixMilli()), Member: commentID.String()}

	keys := []string{queueKey(&postID), ModerationQueueAll}
	trims := make([]*redis.IntCmd, len(keys))

	pipe := q.client.Pipeline()
	for i, key := range keys {
		pipe.ZAddNX(ctx, key, member)
		// Keep the oldest entries: they have waited longest for review.
		trims[i] = pipe.ZRemRangeByRank(ctx, key, q.capacity, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.For("moderation_queue").Error().Err(err).
			Stringer("post_id", postID).Stringer("comment_id", commentID).Msg("add failed")
		return fmt.Errorf("add to moderation queue: %w", err)
	}
	for i, trim := range trims {
		if n := trim.Val(); n > 0 {
			logger.For("moderation_queue").Warn().
				Str("key", keys[i]).Int64("evicted", n).Int64("cap", q.capacity).
				Stringer("comment_id", commentID).Msg("queue full, newest entries evicted")
		}
	}
	return nil
}

// Remove runs ZREM on both keys.
func (q *RedisModerationQueue) Remove(ctx context.Context, postID, commentID uuid.UUID) error {
	member := commentID.String()

	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, queueKey(&postID), member)
	pipe.ZRem(ctx, ModerationQueueAll, member)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.For("moderation_queue").Error().Err(err).
			Stringer("post_id", postID).Stringer("comment_id", commentID).Msg("remove failed")
		return fmt.Errorf("remove from moderation queue: %w", err)
	}
	return nil
}

// List reads a window with ZRANGE. Members that fail to parse are skipped.
func (q *RedisModerationQueue) List(ctx context.Context, postID *uuid.UUID, offset, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return []uuid.UUID{}, nil
	}
	members, err := q.client.ZRange(ctx, queueKey(postID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read moderation queue: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Size returns ZCARD of the queue.
func (q *RedisModerationQueue) Size(ctx context.Context, postID *uuid.UUID) (int64, error) {
	n, err := q.client.ZCard(ctx, queueKey(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("moderation queue size: %w", err)
	}
	return n, nil
}
