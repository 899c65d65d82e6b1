package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "mycase:session:"

// RedisStore хранит сессии в Redis, чтобы они переживали рестарт бота.
// RedisStore keeps sessions in Redis so they survive bot restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore подключается к Redis по URL вида redis://host:6379/0.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(chatID int64) string {
	return redisKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (ChatSession, error) {
	b, err := r.client.Get(ctx, redisKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewChatSession(chatID), nil
	}
	if err != nil {
		return ChatSession{}, fmt.Errorf("redis get session %d: %w", chatID, err)
	}
	return Unmarshal(b)
}

func (r *RedisStore) Set(ctx context.Context, s ChatSession) error {
	s.UpdatedAt = time.Now()
	b, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(s.ChatID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %d: %w", s.ChatID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, redisKey(chatID)).Err(); err != nil {
		return fmt.Errorf("redis clear session %d: %w", chatID, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
