package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"

	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
)

const zkLockRoot = "/ufund/stock_locks"

// ZkStockLocker serializes stock mutations per toy across instances with
// ZooKeeper ephemeral-sequential nodes: the lowest sequence holds the lock,
// everyone else watches its predecessor.
type ZkStockLocker struct {
	conn *zk.Conn
}

func NewZkStockLocker(conn *zk.Conn) *ZkStockLocker {
	return &ZkStockLocker{conn: conn}
}

func (l *ZkStockLocker) Lock(ctx context.Context, toyID int) (func(), error) {
	lockPath := fmt.Sprintf("%s/toy-%d", zkLockRoot, toyID)
	if err := l.ensurePath(lockPath); err != nil {
		return nil, err
	}

	nodePath, err := l.conn.CreateProtectedEphemeralSequential(lockPath+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, errors.Wrap(err, "create lock node")
	}
	unlock := func() {
		if err := l.conn.Delete(nodePath, -1); err != nil && err != zk.ErrNoNode {
			logger.Ctx(context.Background()).Warn().Err(err).Str("node", nodePath).Msg("failed to release zk stock lock")
		}
	}

	myNode := strings.TrimPrefix(nodePath, lockPath+"/")
	for {
		children, _, err := l.conn.Children(lockPath)
		if err != nil {
			unlock()
			return nil, errors.Wrap(err, "list lock children")
		}
		sort.Strings(children)

		if sequenceOf(children[0]) == sequenceOf(myNode) {
			return unlock, nil
		}

		// Watch only the immediate predecessor to avoid a thundering herd.
		prev := ""
		for _, child := range children {
			if sequenceOf(child) >= sequenceOf(myNode) {
				break
			}
			prev = child
		}
		if prev == "" {
			continue
		}

		exists, _, eventCh, err := l.conn.ExistsW(lockPath + "/" + prev)
		if err != nil {
			unlock()
			return nil, errors.Wrap(err, "watch predecessor")
		}
		if !exists {
			continue
		}

		select {
		case <-eventCh:
		case <-ctx.Done():
			unlock()
			return nil, ctx.Err()
		}
	}
}

func (l *ZkStockLocker) ensurePath(lockPath string) error {
	parts := strings.Split(strings.TrimPrefix(lockPath, "/"), "/")
	path := ""
	for _, part := range parts {
		path += "/" + part
		_, err := l.conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "ensure zk path %s", path)
		}
	}
	return nil
}

// sequenceOf extracts the trailing sequence number; protected node names
// carry a GUID prefix so plain string order is not creation order.
func sequenceOf(node string) string {
	if i := strings.LastIndex(node, "-"); i >= 0 {
		return node[i+1:]
	}
	return node
}
