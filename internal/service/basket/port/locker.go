package port

import "context"

// StockLocker serializes stock mutations per toy. Lock blocks until the lock
// for the toy is held or the context ends, and returns the release function.
// Implementations: in-process keyed mutex, Redis, ZooKeeper.
type StockLocker interface {
	Lock(ctx context.Context, toyID int) (unlock func(), err error)
}
