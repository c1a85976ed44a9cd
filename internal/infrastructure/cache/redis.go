package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/mock-interview/pkg/ai"
	"github.com/johnquangdev/mock-interview/pkg/config"
)

const threadKeyPrefix = "interview:thread:"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisThreadStore keeps conversation threads as Redis lists so every API instance shares them
type RedisThreadStore struct {
	client *redis.Client
}

// NewRedisThreadStore creates a thread store on client
func NewRedisThreadStore(client *redis.Client) *RedisThreadStore {
	return &RedisThreadStore{client: client}
}

type storedMessage struct {
	Role    ai.Role `json:"role"`
	Content string  `json:"content"`
}

// Append pushes messages onto the thread and refreshes its TTL atomically
func (s *RedisThreadStore) Append(ctx context.Context, threadID string, ttl time.Duration, msgs ...ai.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(storedMessage{Role: m.Role, Content: m.Content})
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	key := threadKeyPrefix + threadID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append thread: %w", err)
	}
	return nil
}

// Load returns the full thread history in order
func (s *RedisThreadStore) Load(ctx context.Context, threadID string) ([]ai.Message, error) {
	raw, err := s.client.LRange(ctx, threadKeyPrefix+threadID, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis load thread: %w", err)
	}

	out := make([]ai.Message, 0, len(raw))
	for _, r := range raw {
		var m storedMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode thread message: %w", err)
		}
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

// Delete drops the thread
func (s *RedisThreadStore) Delete(ctx context.Context, threadID string) error {
	return s.client.Del(ctx, threadKeyPrefix+threadID).Err()
}
