// Package webhook implements the Webhook Ingestor (C5) and Webhook Worker
// (C6): durable, idempotent event intake plus a concurrent worker pool
// that dispatches events into the sync engine and field mapper.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job is the minimal unit placed on the queue: only the event's local id,
// per spec.md section 4.5 ("publish to the worker queue carrying only the
// event's local id").
type Job struct {
	EventID    uint      `json:"event_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	RetryCount int       `json:"retry_count"`
}

// QueueConfig configures the Redis-backed webhook event queue.
type QueueConfig struct {
	RedisURL  string
	KeyPrefix string // defaults to "sprintintel:webhook:"
	QueueName string // defaults to "events"
}

// Queue is the Redis-backed durable queue carrying Jobs between the
// Ingestor and the Worker pool.
type Queue struct {
	client    *redis.Client
	prefix    string
	queueName string
}

// NewQueue connects to Redis and returns a ready Queue.
func NewQueue(ctx context.Context, cfg QueueConfig) (*Queue, error) {
	redisURL := cfg.RedisURL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "sprintintel:webhook:"
	}
	queueName := cfg.QueueName
	if queueName == "" {
		queueName = "events"
	}

	return &Queue{client: client, prefix: prefix, queueName: queueName}, nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error { return q.client.Close() }

func (q *Queue) queueKey() string      { return q.prefix + q.queueName }
func (q *Queue) processingKey() string { return q.prefix + "processing" }

// Enqueue publishes job onto the queue.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.RPush(ctx, q.queueKey(), string(encoded)).Err()
}

// Dequeue blocks up to timeout waiting for the next job; returns nil, nil
// on timeout with no job available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := q.client.BLPop(waitCtx, timeout, q.queueKey()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// MarkProcessing records job eventID in the processing sorted set, scored
// by deadline in Unix seconds.
func (q *Queue) MarkProcessing(ctx context.Context, eventID uint, deadline time.Time) error {
	return q.client.ZAdd(ctx, q.processingKey(), redis.Z{
		Score:  float64(deadline.Unix()),
		Member: strconv.FormatUint(uint64(eventID), 10),
	}).Err()
}

// CompleteJob removes eventID from the processing set.
func (q *Queue) CompleteJob(ctx context.Context, eventID uint) error {
	return q.client.ZRem(ctx, q.processingKey(), strconv.FormatUint(uint64(eventID), 10)).Err()
}

// Depth reports the number of jobs currently queued.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueKey()).Result()
}
