package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/types"
)

func TestPreparedDevicesFiltersManagedAndPrepared(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	h.setDeviceLocked(types.Device{Name: "eth0", Index: 1, Managed: true, Prepared: true})
	h.setDeviceLocked(types.Device{Name: "eth1", Index: 2, Managed: true, Prepared: false})
	h.setDeviceLocked(types.Device{Name: "eth2", Index: 3, Managed: false, Prepared: true})

	prepared := h.preparedDevices()
	require.Len(t, prepared, 1)
	assert.Equal(t, "eth0", prepared[0].Name)
}

func TestResolveUintForPrecedence(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	d := &types.Device{Name: "eth0", Group: "gpu"}

	assert.Equal(t, uint64(42), h.resolveUintFor(d, map[string]uint64{}, 42))
	assert.Equal(t, uint64(7), h.resolveUintFor(d, map[string]uint64{"group gpu": 7}, 42))
	assert.Equal(t, uint64(9), h.resolveUintFor(d, map[string]uint64{"eth0": 9, "group gpu": 7}, 42))
}

func TestDefaultRateForByContainerID(t *testing.T) {
	cfg := &config.NetworkConfig{
		PortoRate:     map[string]string{"eth0": "500"},
		ContainerRate: map[string]string{"eth0": "250"},
	}
	h := NewHandle(nil, 0, HandleOpts{Config: cfg})
	d := &types.Device{Name: "eth0", Rate: 1000}

	assert.Equal(t, uint64(1000), h.defaultRateFor(types.RootContainerID, d))
	assert.Equal(t, uint64(500), h.defaultRateFor(types.LegacyContainerID, d))
	assert.Equal(t, uint64(250), h.defaultRateFor(123, d))
}

func TestCreateTCAndDestroyTCNoopWithoutPreparedDevices(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	h.setDeviceLocked(types.Device{Name: "eth0", Index: 1, Managed: false})

	handle := types.NewTCHandle(2, 100)
	parent := types.NewTCHandle(2, 1)

	err := h.CreateTC(0, handle, parent, types.TCHandle(0), nil, nil, nil)
	assert.NoError(t, err)

	err = h.DestroyTC(handle, types.TCHandle(0))
	assert.NoError(t, err)
}
