package network

import (
	"net"
	"sync"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

// Handle is the Network Handle: per-namespace state owning a netlink
// socket, its device list, a NAT address bitmap, and the lock
// guarding all three. Handles are built with NewHandle by their
// callers (cmd/netd for the host, ApplyRecipe for new namespaces); the
// Network Registry stores them and finds them by inode.
type Handle struct {
	mu sync.Mutex

	inode   uint64
	isHost  bool
	managed bool // true inside a managed (non-host) namespace
	owners  int  // reference count for the L3-reuse fast path

	needRefresh bool // set when RefreshDevices reports new managed devices

	nlh *nl.Handle
	ns  nl.NsHandle

	devices []types.Device
	nat     *NATBitmap

	cfg      *config.NetworkConfig
	resolver *Resolver
	iter     types.ContainerIterator
}

// HandleOpts carries the dependencies a Handle needs beyond its
// netlink socket; whoever calls NewHandle assembles one per namespace.
type HandleOpts struct {
	Inode   uint64
	IsHost  bool
	Managed bool
	Config  *config.NetworkConfig
	Groups  map[string]string
	Iter    types.ContainerIterator
	NAT     *NATBitmap
}

// NewHandle wraps an already-open netlink socket into a Network
// Handle. The caller is responsible for opening the socket in the
// right namespace via nl.Open/nl.OpenCurrent.
func NewHandle(nlh *nl.Handle, ns nl.NsHandle, opts HandleOpts) *Handle {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handle{
		inode:    opts.Inode,
		isHost:   opts.IsHost,
		managed:  opts.Managed,
		nlh:      nlh,
		ns:       ns,
		cfg:      cfg,
		resolver: NewResolver(opts.Groups),
		iter:     opts.Iter,
		nat:      opts.NAT,
	}
}

// Close releases the underlying netlink socket. It does not touch the
// namespace handle itself; Close leaves it open.
func (h *Handle) Close() {
	h.nlh.Close()
}

// Inode returns the namespace inode identifying this Handle, the key
// the Network Registry indexes it by.
func (h *Handle) Inode() uint64 { return h.inode }

// IsHost reports whether this Handle is the host network.
func (h *Handle) IsHost() bool { return h.isHost }

// IncRef/DecRef implement the reference count backing the L3-reuse
// fast path and the Network Registry's weak-reference expiry: a
// Handle with zero owners is eligible for collection on the registry's
// next sweep.
func (h *Handle) IncRef() {
	h.mu.Lock()
	h.owners++
	h.mu.Unlock()
}

func (h *Handle) DecRef() int {
	h.mu.Lock()
	h.owners--
	n := h.owners
	h.mu.Unlock()
	return n
}

// Devices returns a snapshot copy of the current device list.
func (h *Handle) Devices() []types.Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.Device, len(h.devices))
	copy(out, h.devices)
	return out
}

// DeviceCounts implements metrics.DeviceSource: counts of devices by
// prepared/unprepared/missing state, keyed for the netd_network_devices_total
// gauge vector.
func (h *Handle) DeviceCounts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := map[string]int{"prepared": 0, "unprepared": 0, "missing": 0}
	for i := range h.devices {
		d := &h.devices[i]
		switch {
		case d.Missing:
			counts["missing"]++
		case d.Prepared:
			counts["prepared"]++
		default:
			counts["unprepared"]++
		}
	}
	return counts
}

// Allocated implements metrics.NATSource.
func (h *Handle) Allocated() int {
	if h.nat == nil {
		return 0
	}
	return h.nat.Allocated()
}

// Free implements metrics.NATSource.
func (h *Handle) Free() int {
	if h.nat == nil {
		return 0
	}
	return h.nat.Free()
}

func (h *Handle) setDeviceLocked(d types.Device) {
	for i := range h.devices {
		if h.devices[i].Name == d.Name && h.devices[i].Index == d.Index {
			h.devices[i] = d
			return
		}
	}
	h.devices = append(h.devices, d)
}

// SetNeedRefresh marks this network as owing a RefreshClasses pass even
// outside of Queued containers, e.g. right after RefreshDevices brings
// a new managed device online.
func (h *Handle) SetNeedRefresh(v bool) {
	h.mu.Lock()
	h.needRefresh = v
	h.mu.Unlock()
}

// TakeNeedRefresh reports and clears the need-refresh flag atomically.
func (h *Handle) TakeNeedRefresh() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.needRefresh
	h.needRefresh = false
	return v
}

func (h *Handle) deviceByName(name string) *types.Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.devices {
		if h.devices[i].Name == name {
			return &h.devices[i]
		}
	}
	return nil
}

// AllocateNAT draws the next free offset from this network's NAT
// bitmap. It fails with ResourceNotAvailable when the pool is
// exhausted.
func (h *Handle) AllocateNAT() (int, error) {
	if h.nat == nil {
		return 0, NewResourceNotAvailable("network has no NAT pool configured")
	}
	return h.nat.Get()
}

// ReleaseNAT returns offset to this network's NAT bitmap.
func (h *Handle) ReleaseNAT(offset int) {
	if h.nat == nil {
		return
	}
	h.nat.Put(offset)
}

// GetGateAddress runs the gateway election algorithm of §4.6 over this
// network's current devices against the given container addresses. It
// returns the elected gateway per address family ("ipv4"/"ipv6"), the
// smallest MTU among the devices that supplied a gateway, and the
// group of the first such device; the error is always nil.
func (h *Handle) GetGateAddress(addrs []*net.IPNet) (map[string]net.IP, int, string, error) {
	h.mu.Lock()
	devices := make([]types.Device, len(h.devices))
	copy(devices, h.devices)
	h.mu.Unlock()

	gateways := map[string]net.IP{}
	bestPrefix := map[string]int{}
	minMTU := 0
	group := ""

	for i := range devices {
		d := &devices[i]
		hostAddrs, err := h.nlh.AddrList(d.Name)
		if err != nil {
			continue
		}
		for _, hostAddr := range hostAddrs {
			if hostAddr.Scope == nl.ScopeHost {
				continue
			}
			family := addrFamily(hostAddr.IPNet.IP)
			for _, ca := range addrs {
				if addrFamily(ca.IP) != family {
					continue
				}
				plen := commonPrefixLen(hostAddr.IPNet, ca)
				if cur, ok := bestPrefix[family]; !ok || plen > cur {
					bestPrefix[family] = plen
					gateways[family] = hostAddr.IPNet.IP
					if minMTU == 0 || d.MTU < minMTU {
						minMTU = d.MTU
					}
					if group == "" {
						group = d.Group
					}
				}
			}
		}
	}

	return gateways, minMTU, group, nil
}

func addrFamily(ip net.IP) string {
	if ip.To4() != nil {
		return "ipv4"
	}
	return "ipv6"
}

func commonPrefixLen(a, b *net.IPNet) int {
	aIP, bIP := a.IP, b.IP
	if a4 := aIP.To4(); a4 != nil {
		aIP = a4
	}
	if b4 := bIP.To4(); b4 != nil {
		bIP = b4
	}
	if len(aIP) != len(bIP) {
		return 0
	}
	n := 0
	for i := range aIP {
		x := aIP[i] ^ bIP[i]
		if x == 0 {
			n += 8
			continue
		}
		for x&0x80 == 0 {
			n++
			x <<= 1
		}
		break
	}
	return n
}
