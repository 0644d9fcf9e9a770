package network

import (
	"sync"

	"github.com/corenet/netd/pkg/log"
	"github.com/corenet/netd/pkg/metrics"
)

// Registry is the Network Registry: a namespace-inode-keyed table of
// Network Handles. Entries are reference counted rather than held by
// Go's GC-backed weak pointers (unavailable pre-runtime/weak); a
// Handle with zero owners is logically expired and is evicted on the
// next sweep rather than immediately, matching the "weakly held,
// expiry swept" semantics described for this component.
type Registry struct {
	mu      sync.Mutex
	byInode map[uint64]*Handle
	host    *Handle
}

// NewRegistry creates an empty registry. SetHost must be called once
// before the registry is used to resolve the host network.
func NewRegistry() *Registry {
	return &Registry{byInode: map[uint64]*Handle{}}
}

// SetHost installs the host network's Handle; it is never subject to
// expiry sweeping.
func (r *Registry) SetHost(h *Handle) {
	r.mu.Lock()
	r.host = h
	r.mu.Unlock()
}

// Host returns the host network's Handle.
func (r *Registry) Host() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Insert adds h to the registry keyed by its namespace inode, and
// sweeps any other entries whose owner count has dropped to zero.
func (r *Registry) Insert(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byInode[h.Inode()] = h
	r.sweepLocked()
}

// Lookup finds the Handle for a namespace inode, if still live.
func (r *Registry) Lookup(inode uint64) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byInode[inode]
	return h, ok
}

// Remove drops a Handle from the registry immediately (used when a
// namespace is explicitly torn down rather than left to expire).
func (r *Registry) Remove(inode uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.byInode[inode]; ok {
		delete(r.byInode, inode)
		h.Close()
	}
}

// Snapshot returns a copy of every currently-registered Handle
// (excluding the host network), for the reconciliation worker's
// per-cycle scan. It does not sweep; Insert is the sweep trigger so a
// network is never evicted mid-cycle.
func (r *Registry) Snapshot() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.byInode))
	for _, h := range r.byInode {
		if h == r.host {
			continue
		}
		out = append(out, h)
	}
	return out
}

// HandleCount implements metrics.RegistrySource.
func (r *Registry) HandleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byInode)
}

func (r *Registry) sweepLocked() {
	for inode, h := range r.byInode {
		if h.owners <= 0 && !h.isHost {
			delete(r.byInode, inode)
			metrics.NetworkRegistrySweptTotal.Inc()
			log.WithComponent("network").Debug().Uint64("netns_inode", inode).Msg("registry swept expired network")
			h.Close()
		}
	}
}
