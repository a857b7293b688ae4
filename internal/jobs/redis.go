package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultQueueKey is the Redis list that holds pending generation jobs.
const defaultQueueKey = "tripcart:jobs:generation"

// brpopTimeout bounds each blocking pop so Dequeue can notice a cancelled
// context between polls instead of blocking in Redis forever.
const brpopTimeout = 5 * time.Second

// RedisQueue is a Queue backed by a Redis list: LPUSH to enqueue,
// BRPOP to dequeue, JSON-encoded jobs. Multiple worker processes can
// consume from the same list; Redis hands each job to exactly one.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// compile-time check: RedisQueue must satisfy Queue.
var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue constructs a RedisQueue on the given client.
// The caller owns the client's lifecycle.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: defaultQueueKey}
}

// Enqueue pushes a JSON-encoded job onto the head of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobs.RedisQueue.Enqueue: marshal: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("jobs.RedisQueue.Enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a job arrives or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (GenerationJob, error) {
	for {
		res, err := q.client.BRPop(ctx, brpopTimeout, q.key).Result()
		if err == redis.Nil {
			// Timed out with nothing queued; poll again unless cancelled.
			if ctx.Err() != nil {
				return GenerationJob{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return GenerationJob{}, fmt.Errorf("jobs.RedisQueue.Dequeue: %w", err)
		}

		// BRPop returns [key, value].
		var job GenerationJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return GenerationJob{}, fmt.Errorf("jobs.RedisQueue.Dequeue: unmarshal: %w", err)
		}
		return job, nil
	}
}
