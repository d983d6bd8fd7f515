package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
)

// InMemoryCompanyLocker implements posting.CompanyLocker with process-local mutexes.
// This is suitable for single-instance deployments and testing.
type InMemoryCompanyLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	opts  LockOptions
}

// NewInMemoryCompanyLocker creates a new in-memory locker
func NewInMemoryCompanyLocker(opts LockOptions) *InMemoryCompanyLocker {
	return &InMemoryCompanyLocker{
		slots: make(map[string]chan struct{}),
		opts:  opts,
	}
}

// Obtain waits for the lock up to Retries × RetryDelay, then gives up
func (l *InMemoryCompanyLocker) Obtain(ctx context.Context, companyID uuid.UUID, name string) (posting.Lock, error) {
	slot := l.slot(lockKey(companyID, name))

	select {
	case slot <- struct{}{}:
		return &memoryLock{slot: slot}, nil
	default:
	}

	wait := time.Duration(l.opts.Retries) * l.opts.RetryDelay
	if wait <= 0 {
		return nil, shared.ErrLockNotObtained
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return &memoryLock{slot: slot}, nil
	case <-timer.C:
		return nil, shared.ErrLockNotObtained
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *InMemoryCompanyLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

type memoryLock struct {
	once sync.Once
	slot chan struct{}
}

// Release frees the lock; repeated calls are no-ops
func (l *memoryLock) Release(context.Context) error {
	l.once.Do(func() { <-l.slot })
	return nil
}

var _ posting.CompanyLocker = (*InMemoryCompanyLocker)(nil)
