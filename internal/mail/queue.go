package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/contactsapi/contactsapi/internal/metrics"
)

const (
	// StreamKey is the Redis stream for confirmation emails.
	StreamKey = "stream:confirmation_mail"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:confirmation_mail:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000
)

// Queue enqueues confirmation emails to a Redis stream.
type Queue struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewQueue creates a new confirmation mail queue.
func NewQueue(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Queue {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Queue{
		redis:   client,
		logger:  logger.With("component", "mail.queue"),
		metrics: recorder,
	}
}

// Enqueue adds msg to the stream and returns the stream ID.
func (q *Queue) Enqueue(ctx context.Context, msg ConfirmationMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		q.metrics.IncMailQueued("dropped")
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		q.metrics.IncMailQueued("dropped")
		return "", fmt.Errorf("marshal message: %w", err)
	}

	id, err := q.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		q.metrics.IncMailQueued("dropped")
		return "", fmt.Errorf("xadd: %w", err)
	}

	q.logger.Debug("confirmation mail queued", "stream_id", id)
	q.metrics.IncMailQueued("success")
	return id, nil
}
