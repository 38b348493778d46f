package ledger

import (
	"context"
	"sync"
	"time"
)

// AccountLocks serializes ledger writes per account. Every balance-affecting
// operation acquires the account's lock before read-compute-write and holds
// it across the transaction commit. Acquisition is bounded: contention past
// the timeout surfaces ErrContentionTimeout instead of queueing forever.
//
// Single-instance scoped, like the serialized trade mutex it generalizes;
// the row-level FOR UPDATE inside the transaction covers multi-instance
// deployments.
type AccountLocks struct {
	mu      sync.Mutex
	locks   map[uint64]chan struct{}
	Timeout time.Duration
}

func NewAccountLocks(timeout time.Duration) *AccountLocks {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AccountLocks{
		locks:   make(map[uint64]chan struct{}),
		Timeout: timeout,
	}
}

func (l *AccountLocks) slot(accountID uint64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[accountID] = ch
	}
	return ch
}

// Acquire blocks until the account lock is held, the timeout elapses, or ctx
// is done. The returned release func must be called exactly once.
func (l *AccountLocks) Acquire(ctx context.Context, accountID uint64) (func(), error) {
	ch := l.slot(accountID)
	timer := time.NewTimer(l.Timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, ErrContentionTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
