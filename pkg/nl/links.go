package nl

import (
	"net"
	"strconv"

	"github.com/vishvananda/netlink"
)

// Link is the subset of link attributes this facade exposes, decoupled
// from vishvananda/netlink's Link interface so callers outside this
// package never import it directly.
type Link struct {
	Index        int
	Name         string
	Kind         string // "ether", "veth", "tun", "tap", bridge kind string, ...
	MTU          int
	OperUp       bool
	HardwareAddr net.HardwareAddr
	ParentIndex  int
	Group        string // IFLA_GROUP numeric id, as set by `ip link set group`

	RxBytes, RxPackets, RxDropped uint64
	TxBytes, TxPackets, TxDropped uint64
}

func fromNetlinkLink(l netlink.Link) Link {
	a := l.Attrs()
	parent := 0
	if a.ParentIndex != 0 {
		parent = a.ParentIndex
	}
	kind := l.Type()
	if kind == "" {
		kind = "other"
	}
	group := ""
	if a.Group != 0 {
		group = strconv.Itoa(int(a.Group))
	}
	out := Link{
		Index:        a.Index,
		Name:         a.Name,
		Kind:         kind,
		MTU:          a.MTU,
		OperUp:       a.OperState == netlink.OperUp,
		HardwareAddr: a.HardwareAddr,
		ParentIndex:  parent,
		Group:        group,
	}
	if s := a.Statistics; s != nil {
		out.RxBytes, out.RxPackets, out.RxDropped = s.RxBytes, s.RxPackets, s.RxDropped
		out.TxBytes, out.TxPackets, out.TxDropped = s.TxBytes, s.TxPackets, s.TxDropped
	}
	return out
}

// LinkList returns a fresh link cache from the kernel.
func (h *Handle) LinkList() ([]Link, error) {
	links, err := h.nh.LinkList()
	if err := instrument("link_list", err); err != nil {
		return nil, err
	}
	out := make([]Link, 0, len(links))
	for _, l := range links {
		out = append(out, fromNetlinkLink(l))
	}
	return out, nil
}

// LinkByName resolves one link by name.
func (h *Handle) LinkByName(name string) (Link, error) {
	l, err := h.nh.LinkByName(name)
	if err := instrument("link_by_name", err); err != nil {
		return Link{}, err
	}
	return fromNetlinkLink(l), nil
}

func (h *Handle) linkByName(name string) (netlink.Link, error) {
	l, err := h.nh.LinkByName(name)
	return l, instrument("link_by_name", err)
}

// LinkSetUp brings a link up.
func (h *Handle) LinkSetUp(name string) error {
	l, err := h.linkByName(name)
	if err != nil {
		return err
	}
	return instrument("link_set_up", h.nh.LinkSetUp(l))
}

// LinkSetMTU sets a link's MTU.
func (h *Handle) LinkSetMTU(name string, mtu int) error {
	l, err := h.linkByName(name)
	if err != nil {
		return err
	}
	return instrument("link_set_mtu", h.nh.LinkSetMTU(l, mtu))
}

// LinkSetNsFd moves a link into the namespace identified by fd.
func (h *Handle) LinkSetNsFd(name string, fd int) error {
	l, err := h.linkByName(name)
	if err != nil {
		return err
	}
	return instrument("link_set_ns_fd", h.nh.LinkSetNsFd(l, fd))
}

// LinkDel removes a link.
func (h *Handle) LinkDel(name string) error {
	l, err := h.linkByName(name)
	if err != nil {
		return err
	}
	return instrument("link_del", h.nh.LinkDel(l))
}

// VethPair describes a veth pair to create; the host end stays in this
// handle's namespace, the peer end is left unmoved (the caller moves
// it with LinkSetNsFd after creation).
type VethPair struct {
	HostName string
	PeerName string
	MTU      int
	HardwareAddr net.HardwareAddr
	MasterBridge string // non-empty to enslave the host end
}

// VethAdd creates a veth pair.
func (h *Handle) VethAdd(v VethPair) error {
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{
			Name:         v.HostName,
			MTU:          v.MTU,
			HardwareAddr: v.HardwareAddr,
		},
		PeerName: v.PeerName,
	}
	if err := instrument("veth_add", h.nh.LinkAdd(veth)); err != nil {
		return err
	}
	if v.MasterBridge != "" {
		br, err := h.linkByName(v.MasterBridge)
		if err != nil {
			return err
		}
		hostLink, err := h.linkByName(v.HostName)
		if err != nil {
			return err
		}
		if err := instrument("link_set_master", h.nh.LinkSetMaster(hostLink, br)); err != nil {
			return err
		}
	}
	return nil
}

// MacvlanAdd creates a macvlan device on top of parent.
func (h *Handle) MacvlanAdd(name, parent, mode string) error {
	p, err := h.linkByName(parent)
	if err != nil {
		return err
	}
	m := netlink.MACVLAN_MODE_BRIDGE
	if mode == "private" {
		m = netlink.MACVLAN_MODE_PRIVATE
	}
	mv := &netlink.Macvlan{
		LinkAttrs: netlink.LinkAttrs{
			Name:        name,
			ParentIndex: p.Attrs().Index,
		},
		Mode: m,
	}
	return instrument("macvlan_add", h.nh.LinkAdd(mv))
}

// IpvlanAdd creates an ipvlan device on top of parent.
func (h *Handle) IpvlanAdd(name, parent, mode string) error {
	p, err := h.linkByName(parent)
	if err != nil {
		return err
	}
	m := netlink.IPVLAN_MODE_L2
	if mode == "l3" {
		m = netlink.IPVLAN_MODE_L3
	}
	iv := &netlink.IPVlan{
		LinkAttrs: netlink.LinkAttrs{
			Name:        name,
			ParentIndex: p.Attrs().Index,
		},
		Mode: m,
	}
	return instrument("ipvlan_add", h.nh.LinkAdd(iv))
}

// IP6TnlParams configures an ipip6 tunnel.
type IP6TnlParams struct {
	Name       string
	Local      net.IP
	Remote     net.IP
	TTL        uint8
	EncapLimit uint8
	MTU        int
}

// IP6TnlAdd creates an IPv6 tunnel device.
func (h *Handle) IP6TnlAdd(p IP6TnlParams) error {
	tnl := &netlink.Ip6tnl{
		LinkAttrs: netlink.LinkAttrs{
			Name: p.Name,
			MTU:  p.MTU,
		},
		Local:      p.Local,
		Remote:     p.Remote,
		Ttl:        p.TTL,
		EncapLimit: p.EncapLimit,
	}
	return instrument("ip6tnl_add", h.nh.LinkAdd(tnl))
}

// AddrAdd assigns an address to a link.
func (h *Handle) AddrAdd(name string, ipnet *net.IPNet) error {
	l, err := h.linkByName(name)
	if err != nil {
		return err
	}
	return instrument("addr_add", h.nh.AddrAdd(l, &netlink.Addr{IPNet: ipnet}))
}

// ScopeHost matches the kernel's RT_SCOPE_HOST address scope, used to
// exclude loopback-only addresses from gateway election.
const ScopeHost = 254

// Addr is an address reported by AddrList, carrying its kernel scope
// alongside the IPNet so callers can filter out host-scoped addresses.
type Addr struct {
	IPNet *net.IPNet
	Scope int
}

// AddrList lists addresses on a link.
func (h *Handle) AddrList(name string) ([]Addr, error) {
	l, err := h.linkByName(name)
	if err != nil {
		return nil, err
	}
	addrs, err := h.nh.AddrList(l, netlink.FAMILY_ALL)
	if err := instrument("addr_list", err); err != nil {
		return nil, err
	}
	out := make([]Addr, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, Addr{IPNet: a.IPNet, Scope: a.Scope})
	}
	return out, nil
}

// RouteAdd installs a route.
func (h *Handle) RouteAdd(linkName string, dst *net.IPNet, gw net.IP) error {
	l, err := h.linkByName(linkName)
	if err != nil {
		return err
	}
	route := &netlink.Route{
		LinkIndex: l.Attrs().Index,
		Dst:       dst,
		Gw:        gw,
	}
	return instrument("route_add", h.nh.RouteAdd(route))
}

// RouteList lists routes across all links in this namespace.
func (h *Handle) RouteList() ([]netlink.Route, error) {
	routes, err := h.nh.RouteList(nil, netlink.FAMILY_ALL)
	if err := instrument("route_list", err); err != nil {
		return nil, err
	}
	return routes, nil
}
