package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

func newTestHandleWithNAT(t *testing.T, isHost bool, nat *NATBitmap) *Handle {
	t.Helper()
	nlh, err := nl.OpenCurrent()
	require.NoError(t, err)
	return NewHandle(nlh, 0, HandleOpts{IsHost: isHost, NAT: nat})
}

func TestIncRefDecRef(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	h.IncRef()
	h.IncRef()
	assert.Equal(t, 1, h.DecRef())
	assert.Equal(t, 0, h.DecRef())
	assert.Equal(t, -1, h.DecRef())
}

func TestDeviceCounts(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	h.setDeviceLocked(types.Device{Name: "eth0", Index: 1, Managed: true, Prepared: true})
	h.setDeviceLocked(types.Device{Name: "eth1", Index: 2, Managed: true, Prepared: false})
	h.setDeviceLocked(types.Device{Name: "eth2", Index: 3, Missing: true})

	counts := h.DeviceCounts()
	assert.Equal(t, 1, counts["prepared"])
	assert.Equal(t, 1, counts["unprepared"])
	assert.Equal(t, 1, counts["missing"])
}

func TestAllocateReleaseNAT(t *testing.T) {
	h := newTestHandleWithNAT(t, false, NewNATBitmap(2))
	defer h.Close()

	off, err := h.AllocateNAT()
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, 1, h.Allocated())
	assert.Equal(t, 1, h.Free())

	h.ReleaseNAT(off)
	assert.Equal(t, 0, h.Allocated())
}

func TestAllocateNATWithoutPool(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	_, err := h.AllocateNAT()
	assert.Error(t, err)
	assert.Equal(t, 0, h.Allocated())
	assert.Equal(t, 0, h.Free())
}

func TestCommonPrefixLen(t *testing.T) {
	_, a, _ := net.ParseCIDR("10.0.0.1/24")
	_, b, _ := net.ParseCIDR("10.0.0.200/24")
	_, c, _ := net.ParseCIDR("192.168.0.1/24")

	assert.Equal(t, 24, commonPrefixLen(a, b))
	assert.Less(t, commonPrefixLen(a, c), 24)
}

func TestAddrFamily(t *testing.T) {
	assert.Equal(t, "ipv4", addrFamily(net.ParseIP("10.0.0.1")))
	assert.Equal(t, "ipv6", addrFamily(net.ParseIP("fe80::1")))
}

func TestGetGateAddressNoMatchReturnsEmpty(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	h.setDeviceLocked(types.Device{Name: "nonexistent-dev-xyz", Index: 99, Managed: true})

	_, ipnet, _ := net.ParseCIDR("203.0.113.5/24")
	gw, _, _, err := h.GetGateAddress([]*net.IPNet{ipnet})
	require.NoError(t, err)
	assert.Empty(t, gw)
}
