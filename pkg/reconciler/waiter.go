package reconciler

import (
	"sync"

	"github.com/corenet/netd/pkg/types"
)

// ContainerWaiter is the per-container condition variable §5 calls
// for: one *sync.Cond per container, sharing the same lock as
// NetStateLock, so a Wait call that checks Epoch/NetState while
// holding that lock can never miss a Notify that happens under the
// same lock.
type ContainerWaiter struct {
	mu    sync.Mutex
	conds map[string]*sync.Cond
}

// NewContainerWaiter builds an empty waiter registry.
func NewContainerWaiter() *ContainerWaiter {
	return &ContainerWaiter{conds: map[string]*sync.Cond{}}
}

func (w *ContainerWaiter) condFor(id string, lock types.Locker) *sync.Cond {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.conds[id]
	if !ok {
		c = sync.NewCond(lock)
		w.conds[id] = c
	}
	return c
}

// Wait blocks on c's net-state lock until Epoch advances past
// sinceEpoch or NetState is no longer Queued, whichever this observes
// first. The caller must not already hold c's net-state lock.
func (w *ContainerWaiter) Wait(c types.ContainerHandle, iter types.ContainerIterator, sinceEpoch uint64) {
	lock := iter.NetStateLock(c)
	cond := w.condFor(c.ID(), lock)

	lock.Lock()
	defer lock.Unlock()
	for {
		state := iter.State(c)
		if state.Epoch > sinceEpoch || state.NetState != types.NetStateQueued {
			return
		}
		cond.Wait()
	}
}

// Notify wakes every waiter blocked on c. The caller must already hold
// c's net-state lock, the same lock passed to Wait, per Go's usual
// Cond discipline.
func (w *ContainerWaiter) Notify(c types.ContainerHandle, iter types.ContainerIterator) {
	lock := iter.NetStateLock(c)
	w.condFor(c.ID(), lock).Broadcast()
}
