package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corenet/netd/pkg/config"
)

func TestAnnounceNoopWhenProxyNDPDisabled(t *testing.T) {
	h := newTestHandleWithNAT(t, true, nil)
	defer h.Close()
	h.cfg = &config.NetworkConfig{ProxyNDP: false}

	err := h.Announce(net.ParseIP("10.0.0.1"), []string{"nonexistent-dev-xyz"})
	assert.NoError(t, err)
}

func TestUnannounceToleratesMissingDevices(t *testing.T) {
	h := newTestHandleWithNAT(t, true, nil)
	defer h.Close()
	h.cfg = &config.NetworkConfig{ProxyNDP: true}

	err := h.Unannounce(net.ParseIP("10.0.0.1"), []string{"nonexistent-dev-xyz"})
	assert.NoError(t, err)
}
