package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "wms:lock:"

// LockOptions controls how long a company lock lives and how hard Obtain tries
type LockOptions struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

// LockOptionsFromConfig reads the lock settings of the warehouse configuration
func LockOptionsFromConfig(cfg config.WarehouseConfig) LockOptions {
	return LockOptions{
		TTL:        cfg.CodeLockTTL,
		Retries:    cfg.CodeLockRetries,
		RetryDelay: cfg.CodeLockRetryDelay,
	}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCompanyLocker implements posting.CompanyLocker with Redis locks shared
// by every process of the deployment.
type RedisCompanyLocker struct {
	client *redislock.Client
	opts   LockOptions
	logger *zap.Logger
}

// NewRedisCompanyLocker creates a locker on top of an existing Redis client
func NewRedisCompanyLocker(client redis.UniversalClient, opts LockOptions, logger *zap.Logger) *RedisCompanyLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCompanyLocker{
		client: redislock.New(client),
		opts:   opts,
		logger: logger,
	}
}

// Obtain acquires the company lock named name, retrying with a linear backoff
func (l *RedisCompanyLocker) Obtain(ctx context.Context, companyID uuid.UUID, name string) (posting.Lock, error) {
	key := lockKey(companyID, name)
	lock, err := l.client.Obtain(ctx, key, l.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.opts.RetryDelay), l.opts.Retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("company lock not obtained", zap.String("key", key))
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock, logger: l.logger}, nil
}

type redisLock struct {
	lock   *redislock.Lock
	logger *zap.Logger
}

// Release frees the lock. A lock that already expired is not an error.
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		l.logger.Warn("company lock expired before release", zap.String("key", l.lock.Key()))
		return nil
	}
	return err
}

func lockKey(companyID uuid.UUID, name string) string {
	return lockKeyPrefix + companyID.String() + ":" + name
}

var _ posting.CompanyLocker = (*RedisCompanyLocker)(nil)
