/*
Package reconciler implements netd's single-threaded reconciliation
worker: the watchdog loop that keeps every network namespace's TC
class tree in sync with the container tree's desired state.

# Architecture

	┌─────────────────────── RECONCILIATION WORKER ───────────────────────┐
	│                                                                       │
	│              ┌──────────────────────────────┐                        │
	│              │   cond.Wait() until:          │                       │
	│              │   shutdown || work_pending ||  │                       │
	│              │   deadline_reached             │                       │
	│              └──────────────┬─────────────────┘                       │
	│                             │                                          │
	│                             ▼                                          │
	│              snapshot registry + stats_needed                         │
	│              clear work_pending                                       │
	│                             │                                          │
	│                             ▼                                          │
	│              reverseBFS(container tree) -> leaves-first subtree       │
	│                             │                                          │
	│              ┌──────────────┴───────────────┐                        │
	│              ▼                               ▼                        │
	│    deadline/stats needed?              host network first             │
	│    RefreshDevices per network           RefreshClasses(subtree)       │
	│    mark need_refresh on new             notify waiters                │
	│    managed devices                            │                       │
	│                                                ▼                       │
	│                                   every other live network            │
	│                                   RefreshClasses(subtree)             │
	│                                   RefreshStats if stats_needed         │
	│                                                │                       │
	│                                                ▼                       │
	│                              update deadline; re-raise work_pending   │
	│                              on any refresh failure                   │
	└───────────────────────────────────────────────────────────────────────┘

# Core Components

Worker (reconciler.go): the goroutine and its condition variable. One
Worker per process; it owns no kernel state itself, only a reference
to the Network Registry and the container tree iterator it reconciles
against.

refreshClasses (classes.go): walks the leaves-first subtree and, for
every container attached to the network in question, when that network
owes a refresh (its need_refresh flag) or the container is sitting in
net_state=Queued, snapshots its
bandwidth parameters under its net-state lock, releases the lock, and
calls CreateTC (plus CreateIngressQdisc when it has an rx-limit). A
failed install gets one soft retry (CreateTC again) and, failing that,
one hard retry (RefreshDevices with force=true, then CreateTC again).
If both retries fail, the network's need_refresh flag is set and the
error propagates so the cycle re-raises work-pending.

reverseBFS (subtree.go): a breadth-first walk of the container tree,
reversed, so a container's children are always reconciled before it —
matching the order TC's parent/child class install depends on.

# Usage

	registry := network.NewRegistry()
	worker := reconciler.NewWorker(registry, containerTree, 5*time.Second)
	worker.Start()
	defer worker.Stop()

	// A container update handler:
	state.NetState = types.NetStateQueued
	worker.RequestRefresh()
	// ... wait on the container's own condition variable until
	// net_state != Queued, per §4.7's notification discipline.

# Integration Points

  - pkg/network supplies the Registry, Handle, RefreshDevices, CreateTC,
    CreateIngressQdisc, and RefreshStats this worker drives.
  - pkg/types supplies ContainerIterator, the narrow read interface this
    worker uses to walk the container tree without owning it.
  - pkg/metrics receives per-cycle duration, cycle count, and failure
    count, plus this worker's QueuedCount as a metrics.QueueSource.
  - cmd/netd constructs one Worker at startup and stops it on shutdown.

# Design Patterns

Leaves-first ordering: a parent's TC class depends on its children's
classes already existing as HTB/hfsc leaves, so the subtree is always
walked children-before-parent.

Condition variable over polling: the worker blocks on a single
sync.Cond rather than polling container state, so a RefreshNetwork
caller's wakeup is immediate rather than bounded by the watchdog
period.

Escalating retry: a transient netlink failure gets a cheap retry before
paying for a full RefreshDevices pass, and only escalates to requeuing
the whole network after both retries are exhausted.

Lock discipline: parameters are snapshotted under the container's
net-state lock and the lock is released before any netlink call, so a
slow kernel operation never blocks a concurrent RefreshNetwork caller
from reading net_state.

# Concurrency

One goroutine runs the entire reconciliation loop; refreshClasses and
RefreshStats are called sequentially, network by network, host first.
Per-container locks are held only for the snapshot-in/write-back-out at
the edges of each container's CreateTC call, never across the netlink
operation itself.

# See Also

  - pkg/network for the Registry, Handle, and TC engine this worker
    drives
  - pkg/types for ContainerIterator and ContainerNetState
  - pkg/metrics for the cycle/duration/failure counters
*/
package reconciler
