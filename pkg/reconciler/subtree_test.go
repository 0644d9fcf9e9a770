package reconciler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/types"
)

type fakeContainer struct{ id string }

func (f *fakeContainer) ID() string { return f.id }

type fakeTree struct {
	root     *fakeContainer
	children map[string][]types.ContainerHandle
	parent   map[string]types.ContainerHandle
	states   map[string]*types.ContainerNetState
	locks    map[string]*sync.Mutex
	network  map[string]uint64
	host     map[string]bool
}

func newFakeTree() *fakeTree {
	root := &fakeContainer{id: "root"}
	t := &fakeTree{
		root:     root,
		children: map[string][]types.ContainerHandle{},
		parent:   map[string]types.ContainerHandle{},
		states:   map[string]*types.ContainerNetState{"root": {}},
		locks:    map[string]*sync.Mutex{"root": {}},
		network:  map[string]uint64{},
		host:     map[string]bool{"root": true},
	}
	return t
}

func (t *fakeTree) addChild(parentID, id string) *fakeContainer {
	c := &fakeContainer{id: id}
	var parent types.ContainerHandle = t.root
	if parentID != "root" {
		parent = t.findByID(parentID)
	}
	t.children[parentID] = append(t.children[parentID], c)
	t.parent[id] = parent
	t.states[id] = &types.ContainerNetState{}
	t.locks[id] = &sync.Mutex{}
	return c
}

func (t *fakeTree) findByID(id string) types.ContainerHandle {
	if id == "root" {
		return t.root
	}
	for _, kids := range t.children {
		for _, k := range kids {
			if k.ID() == id {
				return k
			}
		}
	}
	return nil
}

func (t *fakeTree) Root() types.ContainerHandle { return t.root }

func (t *fakeTree) Children(c types.ContainerHandle) []types.ContainerHandle {
	return t.children[c.ID()]
}

func (t *fakeTree) Parent(c types.ContainerHandle) types.ContainerHandle {
	return t.parent[c.ID()]
}

func (t *fakeTree) State(c types.ContainerHandle) *types.ContainerNetState {
	return t.states[c.ID()]
}

func (t *fakeTree) NetStateLock(c types.ContainerHandle) types.Locker {
	return t.locks[c.ID()]
}

func (t *fakeTree) Network(c types.ContainerHandle) uint64 {
	return t.network[c.ID()]
}

func (t *fakeTree) HostNetwork(c types.ContainerHandle) bool {
	return t.host[c.ID()]
}

func TestReverseBFSOrdersLeavesFirst(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "a")
	tree.addChild("root", "b")
	tree.addChild("a", "a1")

	order := reverseBFS(tree)
	require.Len(t, order, 4)

	pos := map[string]int{}
	for i, c := range order {
		pos[c.ID()] = i
	}

	assert.Less(t, pos["a1"], pos["a"], "a1 (leaf) must come before its parent a")
	assert.Less(t, pos["a"], pos["root"], "a must come before root")
	assert.Less(t, pos["b"], pos["root"], "b must come before root")
}

func TestWalkSubtreeVisitsEveryNode(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "a")
	tree.addChild("root", "b")

	var seen []string
	walkSubtree(tree, tree.Root(), func(c types.ContainerHandle) {
		seen = append(seen, c.ID())
	})
	assert.ElementsMatch(t, []string{"root", "a", "b"}, seen)
}
