package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quillpress/internal/logger"
)

// Publisher adds events to a stream.
type Publisher interface {
	// Publish returns the message ID Redis assigned.
	Publish(ctx context.Context, stream string, event CommentEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewPublisher creates a Publisher. maxLen caps the stream approximately;
// zero leaves it unbounded.
func NewPublisher(client *redis.Client, maxLen int64) Publisher {
	return &RedisPublisher{client: client, maxLen: maxLen}
}

// Publish adds an event using XADD with an auto-generated id.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event CommentEvent) (string, error) {
	log := logger.For("publisher")
	start := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("serialize event failed")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: values,
	}).Result()
	if err != nil {
		log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("xadd failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debug().
		Str("stream", stream).
		Str("type", event.Type).
		Str("msg_id", messageID).
		Stringer("comment_id", event.CommentID).
		Dur("duration", time.Since(start)).
		Msg("event published")
	return messageID, nil
}
