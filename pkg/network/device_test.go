package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

func TestClassifyLinkKind(t *testing.T) {
	cases := []struct {
		kind string
		want types.LinkKind
	}{
		{"veth", types.LinkKindVeth},
		{"VETH", types.LinkKindVeth},
		{"tun", types.LinkKindTun},
		{"tap", types.LinkKindTap},
		{"", types.LinkKindEther},
		{"device", types.LinkKindEther},
		{"ether", types.LinkKindEther},
		{"bridge", types.LinkKindOther},
	}
	for _, c := range cases {
		got := classifyLinkKind(nl.Link{Kind: c.kind})
		assert.Equal(t, c.want, got, "kind=%q", c.kind)
	}
}

func TestIsUnmanaged(t *testing.T) {
	cfg := &config.NetworkConfig{
		UnmanagedDevice: []string{"docker*", "veth-foo"},
		UnmanagedGroup:  []string{"noshape"},
	}

	assert.True(t, isUnmanaged(cfg, "docker0", ""))
	assert.True(t, isUnmanaged(cfg, "veth-foo", ""))
	assert.True(t, isUnmanaged(cfg, "eth0", "noshape"))
	assert.False(t, isUnmanaged(cfg, "eth0", "gpu"))
	assert.False(t, isUnmanaged(nil, "eth0", ""))
}

func TestMbitConversions(t *testing.T) {
	assert.Equal(t, uint64(125000000), mbitToBytesCeil(1000))
	assert.Equal(t, uint64(112500000), mbitToBytesRate(1000))
}

func TestDeviceKeyOf(t *testing.T) {
	d := types.Device{Name: "eth0", Index: 3}
	assert.Equal(t, deviceKey{name: "eth0", index: 3}, deviceKeyOf(&d))
}

func TestResolveQdiscKind(t *testing.T) {
	cfg := &config.NetworkConfig{DeviceQdisc: map[string]string{"eth*": "hfsc", "default": "htb"}}
	assert.Equal(t, "hfsc", resolveQdiscKind(cfg, &types.Device{Name: "eth0"}))
	assert.Equal(t, "htb", resolveQdiscKind(cfg, &types.Device{Name: "wlan0"}))
}

func TestResolveDefaultRate(t *testing.T) {
	cfg := &config.NetworkConfig{DefaultRate: map[string]string{"eth0": "1000"}}
	h := NewHandle(nil, 0, HandleOpts{Config: cfg})

	d := &types.Device{Name: "eth0", Ceil: 500}
	assert.Equal(t, uint64(1000), h.resolveDefaultRate(d))

	d2 := &types.Device{Name: "eth1", Ceil: 500}
	assert.Equal(t, uint64(500), h.resolveDefaultRate(d2))
}
