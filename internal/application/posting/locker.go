package posting

import (
	"context"

	"github.com/google/uuid"
)

// Lock is a held named mutex
type Lock interface {
	Release(ctx context.Context) error
}

// CompanyLocker hands out mutexes scoped to a company and a name
type CompanyLocker interface {
	// Obtain blocks until the lock is held or the locker gives up.
	// It returns shared.ErrLockNotObtained when the lock stays contended.
	Obtain(ctx context.Context, companyID uuid.UUID, name string) (Lock, error)
}
