package cache

import (
	"context"
	"fmt"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockerFactory creates company lockers based on configuration
type LockerFactory struct {
	redisConfig           config.RedisConfig
	lockOptions           LockOptions
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockerFactoryOption is a functional option for configuring the factory
type LockerFactoryOption func(*LockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory locks when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockerFactory creates a new factory
func NewLockerFactory(redisCfg config.RedisConfig, lockOpts LockOptions, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{
		redisConfig:           redisCfg,
		lockOptions:           lockOpts,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisLocker connects to Redis and returns a locker and its client.
// The caller owns the client and closes it on shutdown.
func (f *LockerFactory) CreateRedisLocker(ctx context.Context) (*RedisCompanyLocker, *redis.Client, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Redis locker: %w", err)
	}
	return NewRedisCompanyLocker(client, f.lockOptions, f.logger), client, nil
}

// CreateInMemoryLocker creates an in-memory locker.
// WARNING: in-memory locks do not span processes, so two instances may
// generate the same product code concurrently.
func (f *LockerFactory) CreateInMemoryLocker() *InMemoryCompanyLocker {
	return NewInMemoryCompanyLocker(f.lockOptions)
}

// CreateLocker returns a Redis locker when Redis is configured and reachable,
// otherwise an in-memory one if fallback is allowed. The returned close
// function releases the Redis client and is never nil.
func (f *LockerFactory) CreateLocker(ctx context.Context) (posting.CompanyLocker, func() error, error) {
	noop := func() error { return nil }
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory company locks")
		return f.CreateInMemoryLocker(), noop, nil
	}

	locker, client, err := f.CreateRedisLocker(ctx)
	if err == nil {
		f.logger.Info("using Redis company locks", zap.String("addr", f.redisConfig.Addr()))
		return locker, client.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, noop, fmt.Errorf("Redis required for company locks but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory company locks. "+
		"Concurrent instances may generate duplicate product codes.",
		zap.Error(err),
	)
	return f.CreateInMemoryLocker(), noop, nil
}
