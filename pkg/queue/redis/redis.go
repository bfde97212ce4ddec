// Package redis implements queue.Queue as a Redis-backed FIFO, using
// LPUSH/BRPOPLPUSH for the pull side so an in-flight message survives in a
// processing list until explicitly deleted. Nothing moves a message from the
// processing list back to the pending list, so an undeleted message is not
// redelivered.
package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kestrel-security/sentinel/pkg/queue"
)

// Queue is a Redis list-backed queue.Queue.
type Queue struct {
	client        *redis.Client
	pendingKey    string
	processingKey string
}

// New returns a Queue publishing/receiving on name, using name+":processing"
// as the in-flight list.
func New(client *redis.Client, name string) *Queue {
	return &Queue{client: client, pendingKey: name, processingKey: name + ":processing"}
}

type envelope struct {
	ID         string            `json:"id"`
	Body       string            `json:"body"`
	Attributes map[string]string `json:"attributes"`
}

// Publish is best-effort: callers treat a returned error as log-only, but
// this method still reports it so the caller can choose.
func (q *Queue) Publish(ctx context.Context, body string, attributes map[string]string) error {
	payload, err := json.Marshal(envelope{ID: uuid.NewString(), Body: body, Attributes: attributes})
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.pendingKey, payload).Err()
}

// Receive pulls up to max messages. The first pull blocks for up to
// waitSeconds (the long-poll wait); subsequent pulls within the same call
// drain whatever else is already queued without waiting again.
func (q *Queue) Receive(ctx context.Context, max int, waitSeconds int) ([]queue.Message, error) {
	var out []queue.Message
	for i := 0; i < max; i++ {
		var raw string
		var err error
		if i == 0 && waitSeconds > 0 {
			raw, err = q.client.BRPopLPush(ctx, q.pendingKey, q.processingKey, secondsToDuration(waitSeconds)).Result()
		} else {
			raw, err = q.client.RPopLPush(ctx, q.pendingKey, q.processingKey).Result()
		}
		if err == redis.Nil {
			break
		}
		if err != nil {
			return out, err
		}
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		out = append(out, queue.Message{Body: env.Body, ReceiptHandle: raw})
	}
	return out, nil
}

// Delete removes the given in-flight message from the processing list.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	return q.client.LRem(ctx, q.processingKey, 1, receiptHandle).Err()
}

// Health reports whether the Redis connection is reachable.
func (q *Queue) Health(ctx context.Context) bool {
	return q.client.Ping(ctx).Err() == nil
}
