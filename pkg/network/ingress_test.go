package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/types"
)

func TestParseUintOr(t *testing.T) {
	assert.Equal(t, uint64(123), parseUintOr("123", 9))
	assert.Equal(t, uint64(9), parseUintOr("not-a-number", 9))
	assert.Equal(t, uint64(9), parseUintOr("", 9))
	assert.Equal(t, uint64(0), parseUintOr("0", 9))
}

func TestCreateIngressQdiscSkipsZeroRateDevices(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()
	h.cfg = &config.NetworkConfig{}

	h.setDeviceLocked(types.Device{Name: "eth0", Index: 1, Managed: true, Prepared: true})

	// No entry for eth0 in the rx-limit map resolves to 0, so the
	// device is skipped entirely and no netlink call is attempted.
	err := h.CreateIngressQdisc(map[string]uint64{})
	assert.NoError(t, err)
}

func TestCreateIngressQdiscNoopWithoutPreparedDevices(t *testing.T) {
	h := newTestHandleWithNAT(t, false, nil)
	defer h.Close()

	err := h.CreateIngressQdisc(map[string]uint64{"eth0": 1000})
	assert.NoError(t, err)
}
