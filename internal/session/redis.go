package session

import (
	"CommentUI/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

// RedisStore keeps view states as JSON values with a TTL, shared across server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func viewStateKey(id string) string {
	return fmt.Sprintf("commentui:session:%s", id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*models.ViewState, error) {
	data, err := s.client.Get(ctx, viewStateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewViewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	state := models.NewViewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if state.Editing == nil {
		state.Editing = map[string]bool{}
	}
	if state.Deleting == nil {
		state.Deleting = map[string]bool{}
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state *models.ViewState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, viewStateKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
