package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/network"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

func newHostHandle(t *testing.T) *network.Handle {
	t.Helper()
	nlh, err := nl.OpenCurrent()
	require.NoError(t, err)
	return network.NewHandle(nlh, 0, network.HandleOpts{IsHost: true})
}

func TestRefreshClassesProcessesQueuedContainer(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	tree.host["c1"] = true
	tree.states["c1"].NetState = types.NetStateQueued

	host := newHostHandle(t)
	subtree := reverseBFS(tree)

	err := refreshClasses(tree, host, subtree, NewContainerWaiter())
	require.NoError(t, err)

	lock := tree.NetStateLock(tree.findByID("c1"))
	lock.Lock()
	state := tree.State(tree.findByID("c1"))
	assert.Equal(t, types.NetStateSuccess, state.NetState)
	assert.Equal(t, uint64(1), state.Epoch)
	lock.Unlock()
}

func TestRefreshClassesSkipsContainerNotDueAndNotAttached(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	// Neither Queued nor need_refresh, and not attached to host.
	tree.host["c1"] = false
	tree.network["c1"] = 999

	host := newHostHandle(t)
	subtree := reverseBFS(tree)

	err := refreshClasses(tree, host, subtree, nil)
	require.NoError(t, err)

	state := tree.State(tree.findByID("c1"))
	assert.Equal(t, types.NetState(0), state.NetState) // untouched, still zero value Success
}

func TestQueuedCountCountsAcrossTree(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	tree.addChild("root", "c2")
	tree.states["c1"].NetState = types.NetStateQueued
	tree.states["c2"].NetState = types.NetStateSuccess

	w := NewWorker(network.NewRegistry(), tree, 0)
	assert.Equal(t, 1, w.QueuedCount())
}
