package pipeline

import (
	"context"
	"sync"
	"time"

	dErrors "launchpad/pkg/domain-errors"
)

// defaultTxTimeout bounds a single unit of work on the board.
const defaultTxTimeout = 5 * time.Second

// inMemoryStoreTx serializes board mutations with a coarse lock. Two
// concurrent moves on the same stage would otherwise both read a stale
// ordering and write duplicate positions; the lock is the in-memory
// equivalent of the database transaction the Postgres adapter uses.
type inMemoryStoreTx struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

// NewInMemoryStoreTx wraps an in-memory store in a locking transaction
// boundary.
func NewInMemoryStoreTx(store Store) StoreTx {
	return &inMemoryStoreTx{store: store}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.store)
}
