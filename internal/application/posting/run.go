package posting

import (
	"context"
	"fmt"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// run tracks what one entry point acquired and produced inside its transaction.
// Locks are released and events published only after the transaction ends.
type run struct {
	locks      map[string]Lock
	aggregates []shared.AggregateRoot
}

func newRun() *run {
	return &run{locks: make(map[string]Lock)}
}

// companyLock obtains the named company lock once per run
func (r *run) companyLock(ctx context.Context, locker CompanyLocker, companyID uuid.UUID, name string) error {
	key := fmt.Sprintf("%s:%s", companyID, name)
	if _, held := r.locks[key]; held {
		return nil
	}
	lock, err := locker.Obtain(ctx, companyID, name)
	if err != nil {
		return err
	}
	r.locks[key] = lock
	return nil
}

// track records an aggregate whose events are published after commit
func (r *run) track(agg shared.AggregateRoot) {
	r.aggregates = append(r.aggregates, agg)
}

// release frees every held lock; failures are logged since the transaction already ended
func (r *run) release(ctx context.Context, logger *zap.Logger) {
	for key, lock := range r.locks {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("failed to release company lock", zap.String("key", key), zap.Error(err))
		}
		delete(r.locks, key)
	}
}

// events drains the pending domain events of every tracked aggregate
func (r *run) events() []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, agg := range r.aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	return events
}

// discard drops pending events after a rollback
func (r *run) discard() {
	for _, agg := range r.aggregates {
		agg.ClearDomainEvents()
	}
	r.aggregates = nil
}
