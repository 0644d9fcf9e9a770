package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/nl"
)

func newTestHandle(t *testing.T, inode uint64, isHost bool) *Handle {
	t.Helper()
	nlh, err := nl.OpenCurrent()
	require.NoError(t, err)
	h := NewHandle(nlh, 0, HandleOpts{Inode: inode, IsHost: isHost})
	return h
}

func TestRegistryInsertLookup(t *testing.T) {
	r := NewRegistry()
	h := newTestHandle(t, 123, false)
	h.IncRef()

	r.Insert(h)

	got, ok := r.Lookup(123)
	require.True(t, ok)
	assert.Equal(t, h, got)
	assert.Equal(t, 1, r.HandleCount())
}

func TestRegistrySweepsExpiredOnInsert(t *testing.T) {
	r := NewRegistry()

	expired := newTestHandle(t, 1, false)
	// owners starts at zero: this entry is immediately expired.
	r.Insert(expired)
	assert.Equal(t, 1, r.HandleCount())

	live := newTestHandle(t, 2, false)
	live.IncRef()
	r.Insert(live)

	// The next Insert sweeps the zero-owner entry from the previous call.
	_, ok := r.Lookup(1)
	assert.False(t, ok)
	_, ok = r.Lookup(2)
	assert.True(t, ok)
}

func TestRegistryHostNeverSwept(t *testing.T) {
	r := NewRegistry()
	host := newTestHandle(t, 0, true)
	r.SetHost(host)
	r.Insert(host)

	assert.Same(t, host, r.Host())
	_, ok := r.Lookup(0)
	assert.True(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	h := newTestHandle(t, 5, false)
	h.IncRef()
	r.Insert(h)

	r.Remove(5)
	_, ok := r.Lookup(5)
	assert.False(t, ok)
}

func TestRegistrySnapshotExcludesNothingButDoesNotSweep(t *testing.T) {
	r := NewRegistry()
	h := newTestHandle(t, 7, false)
	r.Insert(h) // zero owners, would be swept on the *next* Insert

	snap := r.Snapshot()
	assert.Len(t, snap, 1)
}
