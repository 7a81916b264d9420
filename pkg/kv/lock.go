package kv

import (
	"bytes"
	"context"
	"errors"
	"time"
)

// TargetLock is one held mutation lock on a target document. The owner
// string identifies the job holding it, so a lock whose TTL expired and was
// re-acquired by another job is never released by the old holder.
type TargetLock struct {
	store Store
	key   string
	owner string
}

// AcquireTarget tries to take the exclusive lock for targetID on behalf of
// owner. The TTL should exceed the job's execution budget by a grace
// period, so a crashed holder cannot wedge its target forever. Returns the
// lock and true on success, nil and false when another owner holds it.
func AcquireTarget(ctx context.Context, s Store, targetID, owner string, ttl time.Duration) (*TargetLock, bool, error) {
	key := TargetLockKey(targetID)
	ok, err := s.SetNX(ctx, key, []byte(owner), ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	return &TargetLock{store: s, key: key, owner: owner}, true, nil
}

// Release frees the lock if this holder still owns it. Releasing a lock
// that expired, or that another job took over after expiry, is a no-op.
func (l *TargetLock) Release(ctx context.Context) error {
	if od, ok := l.store.(ownerDeleter); ok {
		return od.DeleteIfEqual(ctx, l.key, []byte(l.owner))
	}

	v, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !bytes.Equal(v, []byte(l.owner)) {
		return nil
	}
	return l.store.Delete(ctx, l.key)
}
