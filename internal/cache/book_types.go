package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
	"github.com/rpattn/bookstore/internal/repository"
)

const bookTypesKey = "bookstore:book_types"

// Config holds the Redis connection settings. An empty Addr disables caching.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewClient connects to Redis, or returns nil when caching is disabled.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// store is the subset of the Redis client the cache needs.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// bookTypeRepository caches the full book type list in Redis. Writes go
// through to the wrapped repository and drop the cached list.
type bookTypeRepository struct {
	repository.BookTypeRepository
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

// WrapBookTypes decorates repo with a Redis-backed List cache. A nil client
// returns repo unchanged.
func WrapBookTypes(repo repository.BookTypeRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) repository.BookTypeRepository {
	if client == nil {
		return repo
	}
	return newBookTypeRepository(repo, client, ttl, logger)
}

func newBookTypeRepository(repo repository.BookTypeRepository, s store, ttl time.Duration, logger *zap.Logger) *bookTypeRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &bookTypeRepository{BookTypeRepository: repo, store: s, ttl: ttl, logger: logger}
}

func (r *bookTypeRepository) List(ctx context.Context) ([]domain.BookType, error) {
	data, err := r.store.Get(ctx, bookTypesKey).Bytes()
	switch {
	case err == nil:
		var types []domain.BookType
		if jsonErr := json.Unmarshal(data, &types); jsonErr == nil && types != nil {
			return types, nil
		}
		r.logger.Warn("discarding unreadable cached book types")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("book type cache read failed", zap.Error(err))
	}

	types, err := r.BookTypeRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(types); err == nil {
		if err := r.store.Set(ctx, bookTypesKey, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("book type cache write failed", zap.Error(err))
		}
	}
	return types, nil
}

func (r *bookTypeRepository) Create(ctx context.Context, bookType domain.BookType) (domain.BookType, error) {
	created, err := r.BookTypeRepository.Create(ctx, bookType)
	if err == nil {
		r.invalidate(ctx)
	}
	return created, err
}

func (r *bookTypeRepository) Update(ctx context.Context, bookType domain.BookType) (domain.BookType, error) {
	updated, err := r.BookTypeRepository.Update(ctx, bookType)
	if err == nil {
		r.invalidate(ctx)
	}
	return updated, err
}

func (r *bookTypeRepository) Delete(ctx context.Context, id int64) error {
	err := r.BookTypeRepository.Delete(ctx, id)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *bookTypeRepository) invalidate(ctx context.Context) {
	if err := r.store.Del(ctx, bookTypesKey).Err(); err != nil {
		r.logger.Warn("book type cache invalidation failed", zap.Error(err))
	}
}
