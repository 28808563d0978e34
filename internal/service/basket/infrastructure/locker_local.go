package infrastructure

import (
	"context"
	"sync"
)

// LocalStockLocker serializes stock mutations per toy within one process
// using a channel-based keyed mutex, so acquisition still honors context
// cancellation. The default locker for single-instance deployments.
type LocalStockLocker struct {
	mu    sync.Mutex
	locks map[int]chan struct{}
}

func NewLocalStockLocker() *LocalStockLocker {
	return &LocalStockLocker{locks: make(map[int]chan struct{})}
}

func (l *LocalStockLocker) Lock(ctx context.Context, toyID int) (func(), error) {
	// The select below picks randomly when the slot and ctx.Done() are both
	// ready, so an already-ended context must be rejected up front.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	ch, ok := l.locks[toyID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[toyID] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
