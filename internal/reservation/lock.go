package reservation

import (
    "context"
    "sync"
    "time"
)

// lockTable grants one exclusive section per screening id.  Reserve and
// cancel operations for the same screening are totally ordered by lock
// grant; operations on different screenings proceed in parallel.
// Acquisition is bounded so a contended caller fails with ErrBusy
// instead of waiting indefinitely.
//
// Each entry is a one-slot channel used as a mutex: sending acquires,
// receiving releases.  Entries are never removed; the set of screenings
// a process touches is small and bounded by the catalog.
type lockTable struct {
    mu    sync.Mutex
    locks map[uint64]chan struct{}
}

func newLockTable() *lockTable {
    return &lockTable{locks: make(map[uint64]chan struct{})}
}

// get returns the semaphore channel for a key, creating it on first use.
func (t *lockTable) get(key uint64) chan struct{} {
    t.mu.Lock()
    defer t.mu.Unlock()
    ch, ok := t.locks[key]
    if !ok {
        ch = make(chan struct{}, 1)
        t.locks[key] = ch
    }
    return ch
}

// acquire blocks until the exclusive section for key is granted, the
// wait bound elapses (ErrBusy) or ctx is cancelled.
func (t *lockTable) acquire(ctx context.Context, key uint64, wait time.Duration) error {
    ch := t.get(key)
    // Fast path: uncontended.
    select {
    case ch <- struct{}{}:
        return nil
    default:
    }
    timer := time.NewTimer(wait)
    defer timer.Stop()
    select {
    case ch <- struct{}{}:
        return nil
    case <-timer.C:
        return ErrBusy
    case <-ctx.Done():
        return ctx.Err()
    }
}

// release exits the exclusive section for key.  It must only be called
// after a successful acquire.
func (t *lockTable) release(key uint64) {
    <-t.get(key)
}
