package reconciler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corenet/netd/pkg/log"
	"github.com/corenet/netd/pkg/metrics"
	"github.com/corenet/netd/pkg/network"
	"github.com/corenet/netd/pkg/types"
)

// Worker is the single-threaded reconciliation worker described in
// §4.7: one goroutine, a condition variable guarding a
// shutdown/work-pending/stats-needed tri-state, woken either by a
// caller requesting RefreshNetwork or by the watchdog period expiring.
type Worker struct {
	registry *network.Registry
	iter     types.ContainerIterator
	watchdog time.Duration
	logger   zerolog.Logger
	waiter   *ContainerWaiter

	mu          sync.Mutex
	cond        *sync.Cond
	shutdown    bool
	workPending bool
	statsNeeded bool
	deadline    time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWorker builds a Worker over a registry and container tree,
// ticking at the given watchdog period.
func NewWorker(registry *network.Registry, iter types.ContainerIterator, watchdog time.Duration) *Worker {
	w := &Worker{
		registry: registry,
		iter:     iter,
		watchdog: watchdog,
		logger:   log.WithComponent("reconciler"),
		waiter:   NewContainerWaiter(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Waiter returns the per-container condition variable registry a
// RefreshNetwork-style caller blocks on after setting net_state to
// Queued and calling RequestRefresh.
func (w *Worker) Waiter() *ContainerWaiter {
	return w.waiter
}

// Start begins the reconciliation loop in its own goroutine.
func (w *Worker) Start() {
	w.mu.Lock()
	w.deadline = time.Now().Add(w.watchdog)
	w.mu.Unlock()
	go w.run()
}

// Stop signals the worker to exit and waits for the current cycle to
// finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.shutdown = true
	w.cond.Broadcast()
	w.mu.Unlock()
	close(w.stopCh)
	<-w.doneCh
}

// RequestRefresh wakes the worker immediately instead of waiting for
// the next watchdog tick, used when a caller needs a container's
// net_state resolved synchronously (see RefreshNetwork).
func (w *Worker) RequestRefresh() {
	w.mu.Lock()
	w.workPending = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// RequestStats marks that the next cycle should also sample TC
// statistics, independent of whether any container needs a refresh.
func (w *Worker) RequestStats() {
	w.mu.Lock()
	w.statsNeeded = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

// QueuedCount implements metrics.QueueSource: the number of containers
// currently sitting in net_state=Queued across the whole tree.
func (w *Worker) QueuedCount() int {
	if w.iter == nil {
		return 0
	}
	n := 0
	walkSubtree(w.iter, w.iter.Root(), func(c types.ContainerHandle) {
		lock := w.iter.NetStateLock(c)
		lock.Lock()
		if w.iter.State(c).NetState == types.NetStateQueued {
			n++
		}
		lock.Unlock()
	})
	return n
}

func (w *Worker) run() {
	defer close(w.doneCh)
	w.logger.Info().Dur("watchdog", w.watchdog).Msg("reconciliation worker started")

	for {
		w.mu.Lock()
		for !w.shutdown && !w.workPending && time.Now().Before(w.deadline) {
			wait := time.Until(w.deadline)
			if wait <= 0 {
				break
			}
			timer := time.AfterFunc(wait, func() {
				w.mu.Lock()
				w.cond.Broadcast()
				w.mu.Unlock()
			})
			w.cond.Wait()
			timer.Stop()
		}
		if w.shutdown {
			w.mu.Unlock()
			w.logger.Info().Msg("reconciliation worker stopped")
			return
		}
		deadlineReached := !time.Now().Before(w.deadline)
		statsNeeded := w.statsNeeded
		w.workPending = false
		w.statsNeeded = false
		w.mu.Unlock()

		if err := w.cycle(deadlineReached, statsNeeded); err != nil {
			w.logger.Error().Err(err).Msg("reconciliation cycle failed")
			w.mu.Lock()
			w.workPending = true
			w.mu.Unlock()
			metrics.WorkerCycleFailuresTotal.Inc()
		}

		w.mu.Lock()
		if deadlineReached {
			w.deadline = time.Now().Add(w.watchdog)
		}
		w.mu.Unlock()
	}
}

// cycle is one pass of §4.7's main loop: snapshot the registry,
// compute the reverse-BFS subtree, refresh devices when due, then
// refresh classes on the host network followed by every other live
// network.
func (w *Worker) cycle(deadlineReached, statsNeeded bool) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.WorkerCycleDuration)
		metrics.WorkerCyclesTotal.Inc()
	}()

	networks := w.registry.Snapshot()
	host := w.registry.Host()

	subtree := reverseBFS(w.iter)

	if deadlineReached || statsNeeded {
		all := networks
		if host != nil {
			all = append([]*network.Handle{host}, all...)
		}
		for _, n := range all {
			newManaged, err := n.RefreshDevices(false)
			if err != nil {
				w.logger.Error().Err(err).Msg("refresh devices failed")
				continue
			}
			if newManaged {
				n.SetNeedRefresh(true)
			}
		}
	}

	var failed error

	if host != nil {
		if err := w.refreshClassesLocked(host, subtree); err != nil {
			failed = err
		}
	}

	for _, n := range networks {
		if n == host {
			continue
		}
		if err := w.refreshClassesLocked(n, subtree); err != nil {
			failed = err
		}
		if statsNeeded {
			if err := n.RefreshStats(w.iter, subtree); err != nil {
				w.logger.Error().Err(err).Msg("refresh stats failed")
			}
		}
	}
	if statsNeeded && host != nil {
		if err := host.RefreshStats(w.iter, subtree); err != nil {
			w.logger.Error().Err(err).Msg("refresh stats failed")
		}
	}

	return failed
}

func (w *Worker) refreshClassesLocked(n *network.Handle, subtree []types.ContainerHandle) error {
	return refreshClasses(w.iter, n, subtree, w.waiter)
}
