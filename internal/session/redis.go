package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"star-referral-bot/internal/config"
)

// RedisStore keeps session state in Redis so it survives restarts.
// Keys look like "session:<user id>:<state>".
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("Connected to Redis")
	return client, nil
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(userID int64, state State) string {
	return fmt.Sprintf("session:%d:%s", userID, state)
}

// Set arms state for the user until ttl elapses.
func (s *RedisStore) Set(ctx context.Context, userID int64, state State, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKey(userID, state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}
	return nil
}

// Has reports whether state is armed for the user.
func (s *RedisStore) Has(ctx context.Context, userID int64, state State) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(userID, state)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read session state: %w", err)
	}
	return n == 1, nil
}

// Take disarms state atomically and reports whether it was armed.
func (s *RedisStore) Take(ctx context.Context, userID int64, state State) (bool, error) {
	err := s.client.GetDel(ctx, redisKey(userID, state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take session state: %w", err)
	}
	return true, nil
}

// Clear disarms every state of the user.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	keys := []string{
		redisKey(userID, StateAwaitingPostLink),
		redisKey(userID, StateWithdrawMenu),
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
