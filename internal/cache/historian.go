// internal/cache/historian.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the action history stream is pushed to.
const DefaultQueueName = "partyhub_actions"

// RoomActionRecord is the minimal record a downstream history consumer
// needs to reconstruct what happened in a room.
type RoomActionRecord struct {
	RoomID    uuid.UUID `json:"room_id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp int64     `json:"timestamp"`
}

// Historian pushes accepted room actions onto a Redis queue. Pushes are
// asynchronous so the game loop never waits on Redis.
type Historian struct {
	rdb   *redis.Client
	queue string
}

// NewHistorian connects to Redis and verifies the connection.
func NewHistorian(addr string, db int, queue string) (*Historian, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Historian{rdb: rdb, queue: queue}, nil
}

// RecordAction queues one action record without blocking the caller.
func (h *Historian) RecordAction(roomID, userID uuid.UUID, action string) {
	rec := RoomActionRecord{
		RoomID:    roomID,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("historian: failed to marshal record: %v", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := h.rdb.RPush(ctx, h.queue, data).Err(); err != nil {
			log.Printf("historian: failed to RPush to %q: %v", h.queue, err)
		}
	}()
}

// Close releases the Redis client.
func (h *Historian) Close() error {
	return h.rdb.Close()
}
