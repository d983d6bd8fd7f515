package cache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLockOptions = LockOptions{
	TTL:        time.Second,
	Retries:    5,
	RetryDelay: 10 * time.Millisecond,
}

func newTestRedisLocker(t *testing.T, opts LockOptions) (*RedisCompanyLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCompanyLocker(client, opts, nil), mr
}

// lockerContract runs the behaviour every CompanyLocker must share
func lockerContract(t *testing.T, locker posting.CompanyLocker) {
	ctx := context.Background()

	t.Run("obtain and release", func(t *testing.T) {
		companyID := uuid.New()
		lock, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		again, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)
		require.NoError(t, again.Release(ctx))
	})

	t.Run("held lock is not obtained twice", func(t *testing.T) {
		companyID := uuid.New()
		lock, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)
		defer lock.Release(ctx)

		_, err = locker.Obtain(ctx, companyID, "product-code")
		assert.ErrorIs(t, err, shared.ErrLockNotObtained)
	})

	t.Run("locks are scoped by company and name", func(t *testing.T) {
		companyID := uuid.New()
		lock, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)
		defer lock.Release(ctx)

		other, err := locker.Obtain(ctx, uuid.New(), "product-code")
		require.NoError(t, err)
		require.NoError(t, other.Release(ctx))

		named, err := locker.Obtain(ctx, companyID, "other")
		require.NoError(t, err)
		require.NoError(t, named.Release(ctx))
	})

	t.Run("waiter gets the lock once released", func(t *testing.T) {
		companyID := uuid.New()
		lock, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)

		go func() {
			time.Sleep(15 * time.Millisecond)
			_ = lock.Release(ctx)
		}()

		waiter, err := locker.Obtain(ctx, companyID, "product-code")
		require.NoError(t, err)
		require.NoError(t, waiter.Release(ctx))
	})

	t.Run("mutual exclusion", func(t *testing.T) {
		companyID := uuid.New()
		var (
			wg      sync.WaitGroup
			holders atomic.Int32
			maxSeen atomic.Int32
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lock, err := locker.Obtain(ctx, companyID, "critical")
				if err != nil {
					return
				}
				n := holders.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				holders.Add(-1)
				_ = lock.Release(ctx)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxSeen.Load())
	})
}

func TestInMemoryCompanyLocker(t *testing.T) {
	lockerContract(t, NewInMemoryCompanyLocker(testLockOptions))

	t.Run("release is idempotent", func(t *testing.T) {
		locker := NewInMemoryCompanyLocker(testLockOptions)
		lock, err := locker.Obtain(context.Background(), uuid.New(), "x")
		require.NoError(t, err)
		require.NoError(t, lock.Release(context.Background()))
		require.NoError(t, lock.Release(context.Background()))
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		locker := NewInMemoryCompanyLocker(LockOptions{Retries: 100, RetryDelay: time.Second})
		companyID := uuid.New()
		lock, err := locker.Obtain(context.Background(), companyID, "x")
		require.NoError(t, err)
		defer lock.Release(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = locker.Obtain(ctx, companyID, "x")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRedisCompanyLocker(t *testing.T) {
	locker, _ := newTestRedisLocker(t, testLockOptions)
	lockerContract(t, locker)

	t.Run("key carries company and name", func(t *testing.T) {
		locker, mr := newTestRedisLocker(t, testLockOptions)
		companyID := uuid.New()
		lock, err := locker.Obtain(context.Background(), companyID, "product-code")
		require.NoError(t, err)
		assert.True(t, mr.Exists("wms:lock:"+companyID.String()+":product-code"))
		require.NoError(t, lock.Release(context.Background()))
		assert.False(t, mr.Exists("wms:lock:"+companyID.String()+":product-code"))
	})

	t.Run("expired lock releases without error", func(t *testing.T) {
		locker, mr := newTestRedisLocker(t, testLockOptions)
		lock, err := locker.Obtain(context.Background(), uuid.New(), "product-code")
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)
		assert.NoError(t, lock.Release(context.Background()))
	})
}

func TestLockerFactory_CreateLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("empty host uses in-memory locks", func(t *testing.T) {
		f := NewLockerFactory(config.RedisConfig{}, testLockOptions)
		locker, closeFn, err := f.CreateLocker(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryCompanyLocker{}, locker)
		assert.NoError(t, closeFn())
	})

	t.Run("reachable redis uses redis locks", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)

		f := NewLockerFactory(config.RedisConfig{Host: mr.Host(), Port: port}, testLockOptions)
		locker, closeFn, err := f.CreateLocker(ctx)
		require.NoError(t, err)
		assert.IsType(t, &RedisCompanyLocker{}, locker)
		assert.NoError(t, closeFn())
	})

	t.Run("unreachable redis falls back when allowed", func(t *testing.T) {
		f := NewLockerFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, testLockOptions)
		locker, _, err := f.CreateLocker(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryCompanyLocker{}, locker)
	})

	t.Run("unreachable redis fails without fallback", func(t *testing.T) {
		f := NewLockerFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, testLockOptions, WithInMemoryFallback(false))
		_, _, err := f.CreateLocker(ctx)
		assert.Error(t, err)
	})
}
