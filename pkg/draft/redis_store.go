package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
)

// RedisConfig holds connection settings for RedisStore
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps the draft under the storage key in Redis
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis
func NewRedisStore(cfg RedisConfig) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: StorageKey}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.NewStorageError(storeComponent, "ping", err).
			WithMessage(fmt.Sprintf("redis unreachable at %s", s.client.Options().Addr))
	}
	return nil
}

// Save stores the draft with no expiry
func (s *RedisStore) Save(ctx context.Context, d *BotDraft) error {
	data, err := encode(d, time.Now())
	if err != nil {
		return errors.NewStorageError(storeComponent, "save", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.NewStorageError(storeComponent, "save", fmt.Errorf("redis set %s: %w", s.key, err))
	}
	return nil
}

// Load reads the draft; ErrNoDraft when the key is missing
func (s *RedisStore) Load(ctx context.Context) (*BotDraft, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, errors.NewStorageError(storeComponent, "load", fmt.Errorf("redis get %s: %w", s.key, err))
	}

	d, err := decode(data)
	if err != nil {
		return nil, errors.NewDecodeError(storeComponent, "load", err)
	}
	return d, nil
}

// Clear deletes the key
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.NewStorageError(storeComponent, "clear", err)
	}
	return nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
