package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStockLockerMutualExclusion(t *testing.T) {
	locker := NewLocalStockLocker()
	counter := 0

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), 7)
			if err != nil {
				return
			}
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLocalStockLockerIndependentKeys(t *testing.T) {
	locker := NewLocalStockLocker()

	unlockA, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlockA()

	// A different toy must not block behind toy 1's lock.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, 2)
	require.NoError(t, err)
	unlockB()
}

// An already-cancelled context must never win the lock, even when the slot
// is free; repeated to rule out a lucky select order.
func TestLocalStockLockerRejectsCancelledContext(t *testing.T) {
	locker := NewLocalStockLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 1000; i++ {
		_, err := locker.Lock(ctx, 7)
		require.ErrorIs(t, err, context.Canceled)
	}

	// The slot stayed free for live callers.
	unlock, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock()
}

func TestLocalStockLockerHonorsContext(t *testing.T) {
	locker := NewLocalStockLocker()

	unlock, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 7)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock2()
}
