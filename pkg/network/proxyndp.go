package network

import (
	"net"

	"github.com/corenet/netd/pkg/log"
)

// Announce publishes a proxy neighbour cache entry for addr on every
// device in devices, so the gateway answers ARP/NDP on its behalf.
// Announce rolls back any entry it already installed if a later
// device fails, so a partial announce set is never left behind for
// the reconciler to trip over.
func (h *Handle) Announce(addr net.IP, devices []string) error {
	if !h.cfg.ProxyNDP {
		return nil
	}

	installed := make([]string, 0, len(devices))
	for _, name := range devices {
		link, err := h.nlh.LinkByName(name)
		if err != nil {
			h.rollbackAnnounce(addr, installed)
			return WrapNetlink("link by name", err)
		}
		if err := h.nlh.ProxyNeighAdd(link.Index, addr); err != nil {
			h.rollbackAnnounce(addr, installed)
			return WrapNetlink("proxy neigh add", err)
		}
		installed = append(installed, name)
	}
	return nil
}

// Unannounce removes a previously published proxy neighbour entry from
// every device, tolerating devices where it was never installed.
func (h *Handle) Unannounce(addr net.IP, devices []string) error {
	var firstErr error
	for _, name := range devices {
		link, err := h.nlh.LinkByName(name)
		if err != nil {
			if !IsNotFound(WrapNetlink("link by name", err)) && firstErr == nil {
				firstErr = WrapNetlink("link by name", err)
			}
			continue
		}
		if err := h.nlh.ProxyNeighDel(link.Index, addr); err != nil {
			if werr := WrapNetlink("proxy neigh del", err); !IsNotFound(werr) && firstErr == nil {
				firstErr = werr
			}
		}
	}
	return firstErr
}

func (h *Handle) rollbackAnnounce(addr net.IP, devices []string) {
	for _, name := range devices {
		link, err := h.nlh.LinkByName(name)
		if err != nil {
			continue
		}
		if err := h.nlh.ProxyNeighDel(link.Index, addr); err != nil {
			log.WithComponent("network").Warn().Err(err).Str("device", name).Msg("rollback proxy neigh del failed")
		}
	}
}
