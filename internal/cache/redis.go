// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/modernart/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "modernart_actions"

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue is the Redis list shared by the engine, which appends action
// records, and the historian, which pops them.
type ActionQueue struct {
	rdb  *redis.Client
	name string
}

func NewActionQueue(rdb *redis.Client, name string) *ActionQueue {
	if name == "" {
		name = DefaultQueueName
	}
	return &ActionQueue{rdb: rdb, name: name}
}

func (q *ActionQueue) Name() string { return q.name }

// Publish serializes the record to JSON and pushes it to the tail of the
// queue.
func (q *ActionQueue) Publish(ctx context.Context, record models.ActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns (nil, nil) when
// the timeout passes without a message.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (*models.ActionRecord, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	// res[0] is the queue name and res[1] the payload
	var record models.ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
