package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/types"
)

func TestSumDeviceStats(t *testing.T) {
	a := types.DeviceStats{RxBytes: 10, TxBytes: 20, TxDrops: 1}
	b := types.DeviceStats{RxBytes: 5, TxBytes: 7, TxDrops: 2}
	sum := sumDeviceStats(a, b)
	assert.Equal(t, uint64(15), sum.RxBytes)
	assert.Equal(t, uint64(27), sum.TxBytes)
	assert.Equal(t, uint64(3), sum.TxDrops)
}

type statsFakeIterator struct {
	net  map[string]uint64
	host map[string]bool
}

func (statsFakeIterator) Root() types.ContainerHandle                      { return nil }
func (statsFakeIterator) Children(types.ContainerHandle) []types.ContainerHandle { return nil }
func (statsFakeIterator) Parent(types.ContainerHandle) types.ContainerHandle    { return nil }
func (statsFakeIterator) State(types.ContainerHandle) *types.ContainerNetState  { return nil }
func (statsFakeIterator) NetStateLock(types.ContainerHandle) types.Locker       { return nil }
func (s statsFakeIterator) Network(c types.ContainerHandle) uint64 {
	return s.net[c.(*fakeStatsContainer).id]
}
func (s statsFakeIterator) HostNetwork(c types.ContainerHandle) bool {
	return s.host[c.(*fakeStatsContainer).id]
}

type fakeStatsContainer struct{ id string }

func (f *fakeStatsContainer) ID() string { return f.id }

func TestRefreshStatsNoopWithoutPreparedDevices(t *testing.T) {
	h := newTestHandleWithNAT(t, true, nil)
	defer h.Close()

	iter := statsFakeIterator{net: map[string]uint64{}, host: map[string]bool{}}
	err := h.RefreshStats(iter, nil)
	require.NoError(t, err)
}

// TestSumHfscAncestorsKeysByDevice confirms the same container handle
// on two different devices gets two distinct entries instead of one
// clobbering the other, closing the cross-device collision bug where
// byHandle was keyed on the bare TCHandle.
func TestSumHfscAncestorsKeysByDevice(t *testing.T) {
	handle := types.TCHandle(0x1000a)
	byKey := map[classKey]classEntry{
		{devIndex: 1, handle: handle}: {stats: types.DeviceStats{TxBytes: 100}},
		{devIndex: 2, handle: handle}: {stats: types.DeviceStats{TxBytes: 9000}},
	}

	out := sumHfscAncestors(byKey)

	assert.Equal(t, uint64(100), out[classKey{devIndex: 1, handle: handle}].TxBytes)
	assert.Equal(t, uint64(9000), out[classKey{devIndex: 2, handle: handle}].TxBytes)
}

// TestSumHfscAncestorsSumsOnlyHfscChildrenUpTheParentChain checks that
// an hfsc-family class's tx stats propagate into every ancestor class
// on the same device, while a sibling htb class's stats stay local.
func TestSumHfscAncestorsSumsOnlyHfscChildrenUpTheParentChain(t *testing.T) {
	root := types.TCHandle(0x10001)
	mid := types.TCHandle(0x10002)
	hfscLeaf := types.TCHandle(0x10003)
	htbLeaf := types.TCHandle(0x10004)

	byKey := map[classKey]classEntry{
		{devIndex: 1, handle: root}: {stats: types.DeviceStats{TxBytes: 0}},
		{devIndex: 1, handle: mid}:  {parent: root, stats: types.DeviceStats{TxBytes: 0}},
		{devIndex: 1, handle: hfscLeaf}: {
			parent: mid, hfsc: true,
			stats: types.DeviceStats{TxBytes: 50, TxPackets: 5},
		},
		{devIndex: 1, handle: htbLeaf}: {
			parent: mid,
			stats:  types.DeviceStats{TxBytes: 7},
		},
	}

	out := sumHfscAncestors(byKey)

	assert.Equal(t, uint64(50), out[classKey{devIndex: 1, handle: hfscLeaf}].TxBytes)
	assert.Equal(t, uint64(7), out[classKey{devIndex: 1, handle: htbLeaf}].TxBytes)
	// mid gets the hfsc leaf's stats summed in, but not the htb leaf's.
	assert.Equal(t, uint64(50), out[classKey{devIndex: 1, handle: mid}].TxBytes)
	assert.Equal(t, uint64(5), out[classKey{devIndex: 1, handle: mid}].TxPackets)
	// root inherits the same hfsc contribution one level further up.
	assert.Equal(t, uint64(50), out[classKey{devIndex: 1, handle: root}].TxBytes)
}

// TestSumHfscAncestorsStopsAtDeviceBoundary confirms a parent handle
// that only exists on a different device index never gets credited,
// even though the raw handle value matches.
func TestSumHfscAncestorsStopsAtDeviceBoundary(t *testing.T) {
	parent := types.TCHandle(0x10001)
	child := types.TCHandle(0x10002)

	byKey := map[classKey]classEntry{
		{devIndex: 2, handle: parent}: {stats: types.DeviceStats{TxBytes: 1}},
		{devIndex: 1, handle: child}: {
			parent: parent, hfsc: true,
			stats: types.DeviceStats{TxBytes: 30},
		},
	}

	out := sumHfscAncestors(byKey)

	assert.Equal(t, uint64(1), out[classKey{devIndex: 2, handle: parent}].TxBytes)
	assert.Equal(t, uint64(30), out[classKey{devIndex: 1, handle: child}].TxBytes)
}
