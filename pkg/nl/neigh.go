package nl

import (
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// ProxyNeighAdd installs a permanent proxy neighbour cache entry for
// addr on the given link, the netlink equivalent of
// `ip neigh add proxy <addr> dev <link>`.
func (h *Handle) ProxyNeighAdd(linkIndex int, addr net.IP) error {
	family := netlink.FAMILY_V4
	if addr.To4() == nil {
		family = netlink.FAMILY_V6
	}
	n := &netlink.Neigh{
		LinkIndex: linkIndex,
		Family:    family,
		Flags:     netlink.NTF_PROXY,
		IP:        addr,
		State:     netlink.NUD_PERMANENT,
	}
	return instrument("neigh_add_proxy", h.nh.NeighAdd(n))
}

// ProxyNeighDel removes a proxy neighbour cache entry. Missing entries
// are tolerated by the caller (idempotent delete).
func (h *Handle) ProxyNeighDel(linkIndex int, addr net.IP) error {
	family := netlink.FAMILY_V4
	if addr.To4() == nil {
		family = netlink.FAMILY_V6
	}
	n := &netlink.Neigh{
		LinkIndex: linkIndex,
		Family:    family,
		Flags:     netlink.NTF_PROXY,
		IP:        addr,
	}
	return instrument("neigh_del_proxy", h.nh.NeighDel(n))
}

// PermanentNeighAdd installs a permanent (non-proxy) neighbour entry,
// used for the two-way host/gateway neighbour entries the L3 recipe
// installs.
func (h *Handle) PermanentNeighAdd(linkIndex int, addr net.IP, hwAddr net.HardwareAddr) error {
	family := netlink.FAMILY_V4
	if addr.To4() == nil {
		family = netlink.FAMILY_V6
	}
	n := &netlink.Neigh{
		LinkIndex:    linkIndex,
		Family:       family,
		State:        netlink.NUD_PERMANENT,
		IP:           addr,
		HardwareAddr: hwAddr,
	}
	return instrument("neigh_add_permanent", h.nh.NeighAdd(n))
}

// IsNotExist reports whether err indicates the kernel object was
// already absent — the idempotent-delete tolerance path used throughout
// §7's error policy.
func IsNotExist(err error) bool {
	return errIs(err, unix.ENOENT) || errIs(err, unix.ESRCH)
}
