package nl

import (
	"github.com/vishvananda/netlink"

	"github.com/corenet/netd/pkg/types"
)

// QdiscSpec describes the root qdisc to install on one device.
type QdiscSpec struct {
	Kind         string // "htb", "hfsc", or any kernel-known qdisc kind
	Handle       types.TCHandle
	DefaultMinor uint16
}

func handleToNL(h types.TCHandle) uint32 { return uint32(h) }

// QdiscReplaceRoot installs (or overwrites) the root qdisc on a device.
func (h *Handle) QdiscReplaceRoot(linkIndex int, spec QdiscSpec) error {
	attrs := netlink.QdiscAttrs{
		LinkIndex: linkIndex,
		Handle:    netlink.MakeHandle(spec.Handle.Major(), 0),
		Parent:    netlink.HANDLE_ROOT,
	}
	var q netlink.Qdisc
	switch spec.Kind {
	case "htb", "":
		htb := netlink.NewHtb(attrs)
		htb.Defcls = uint32(spec.DefaultMinor)
		q = htb
	default:
		q = &netlink.GenericQdisc{
			QdiscAttrs: attrs,
			QdiscType:  spec.Kind,
		}
	}
	return instrument("qdisc_replace_root", h.nh.QdiscReplace(q))
}

// QdiscReplaceLeaf installs a leaf qdisc under a class (the default
// class's inner discipline, or a per-container fifo).
func (h *Handle) QdiscReplaceLeaf(linkIndex int, parent types.TCHandle, kind string, limit, quantum uint32) error {
	attrs := netlink.QdiscAttrs{
		LinkIndex: linkIndex,
		Parent:    handleToNL(parent),
	}
	var q netlink.Qdisc
	switch kind {
	case "pfifo", "":
		q = netlink.NewPfifo(attrs, int(limit))
	case "sfq":
		q = netlink.NewSfq(attrs)
	default:
		q = &netlink.GenericQdisc{QdiscAttrs: attrs, QdiscType: kind}
	}
	return instrument("qdisc_replace_leaf", h.nh.QdiscReplace(q))
}

// QdiscReplaceIngress installs the special ingress qdisc.
func (h *Handle) QdiscReplaceIngress(linkIndex int) error {
	q := &netlink.Ingress{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: linkIndex,
			Parent:    netlink.HANDLE_INGRESS,
		},
	}
	return instrument("qdisc_replace_ingress", h.nh.QdiscReplace(q))
}

// QdiscDel removes the qdisc attached under parent from a device.
func (h *Handle) QdiscDel(linkIndex int, parent types.TCHandle) error {
	q := &netlink.GenericQdisc{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: linkIndex,
			Parent:    handleToNL(parent),
		},
	}
	return instrument("qdisc_del", h.nh.QdiscDel(q))
}

// QdiscList returns the qdiscs installed on a device.
func (h *Handle) QdiscList(linkIndex int) ([]netlink.Qdisc, error) {
	l, err := h.nh.LinkByIndex(linkIndex)
	if err := instrument("link_by_index", err); err != nil {
		return nil, err
	}
	qs, err := h.nh.QdiscList(l)
	if err := instrument("qdisc_list", err); err != nil {
		return nil, err
	}
	return qs, nil
}

// RootQdiscKind returns the kernel-reported kind of the root egress
// qdisc installed on a device, or "" if none is installed.
func (h *Handle) RootQdiscKind(linkIndex int) (string, error) {
	qs, err := h.QdiscList(linkIndex)
	if err != nil {
		return "", err
	}
	for _, q := range qs {
		if q.Attrs().Parent == netlink.HANDLE_ROOT {
			return q.Type(), nil
		}
	}
	return "", nil
}

// ClassSpec describes one class to install, either htb (the default)
// or hfsc-family, matching whichever kind the device's root qdisc was
// installed with.
type ClassSpec struct {
	Kind        string // "htb" (default) or "hfsc"
	Handle      types.TCHandle
	Parent      types.TCHandle
	Rate        uint64
	Ceil        uint64
	Prio        uint32
	Quantum     uint32
	RateBurst   uint32
	CeilBurst   uint32
	DefaultRate uint64 // hfsc-family linkshare default, 0 if not applicable
}

// ClassReplace installs (or overwrites) a class.
func (h *Handle) ClassReplace(linkIndex int, spec ClassSpec) error {
	attrs := netlink.ClassAttrs{
		LinkIndex: linkIndex,
		Parent:    handleToNL(spec.Parent),
		Handle:    handleToNL(spec.Handle),
	}

	var cls netlink.Class
	switch spec.Kind {
	case "hfsc":
		linkshare := spec.DefaultRate
		if linkshare == 0 {
			linkshare = spec.Rate
		}
		hfsc := &netlink.HfscClass{
			ClassAttrs: attrs,
			Rsc:        &netlink.ServiceCurve{M2: uint32(spec.Rate)},
			Fsc:        &netlink.ServiceCurve{M2: uint32(linkshare)},
		}
		if spec.Ceil > 0 {
			hfsc.Usc = &netlink.ServiceCurve{M2: uint32(spec.Ceil)}
		}
		cls = hfsc
	default:
		cls = netlink.NewHtbClass(attrs, netlink.HtbClassAttrs{
			Rate:    spec.Rate,
			Ceil:    spec.Ceil,
			Buffer:  spec.RateBurst,
			Cbuffer: spec.CeilBurst,
			Quantum: spec.Quantum,
			Prio:    spec.Prio,
		})
	}
	return instrument("class_replace", h.nh.ClassReplace(cls))
}

// ClassDel removes a class.
func (h *Handle) ClassDel(linkIndex int, parent, handle types.TCHandle) error {
	cls := &netlink.GenericClass{
		ClassAttrs: netlink.ClassAttrs{
			LinkIndex: linkIndex,
			Parent:    handleToNL(parent),
			Handle:    handleToNL(handle),
		},
	}
	return instrument("class_del", h.nh.ClassDel(cls))
}

// ClassList returns the classes installed on a device.
func (h *Handle) ClassList(linkIndex int) ([]netlink.Class, error) {
	l, err := h.nh.LinkByIndex(linkIndex)
	if err := instrument("link_by_index", err); err != nil {
		return nil, err
	}
	cs, err := h.nh.ClassList(l, netlink.MakeHandle(0, 0))
	if err := instrument("class_list", err); err != nil {
		return nil, err
	}
	return cs, nil
}

// CgroupFilterAdd installs a cgroup-net_cls classifier on the root
// qdisc so kernel-side cgroup membership selects the TC class.
func (h *Handle) CgroupFilterAdd(linkIndex int, parent types.TCHandle) error {
	filter := &netlink.Cgroup{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: linkIndex,
			Parent:    handleToNL(parent),
			Protocol:  unixETHPAll,
		},
	}
	return instrument("filter_add_cgroup", h.nh.FilterAdd(filter))
}

// PoliceFilterAdd installs an ingress police filter limiting traffic to
// rate bytes/sec with the given burst, on the ingress qdisc (handle
// ffff:).
func (h *Handle) PoliceFilterAdd(linkIndex int, mtu, rate, burst uint32) error {
	filter := &netlink.U32{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: linkIndex,
			Parent:    netlink.MakeHandle(0xffff, 0),
			Protocol:  unixETHPAll,
		},
		Actions: []netlink.Action{
			netlink.NewPoliceAction(),
		},
	}
	if act, ok := filter.Actions[0].(*netlink.PoliceAction); ok {
		act.Rate = rate
		act.Burst = burst
		act.Mtu = mtu
		act.ExceedAction = netlink.TC_POLICE_SHOT
	}
	return instrument("filter_add_police", h.nh.FilterAdd(filter))
}

// unixETHPAll is ETH_P_ALL in host byte order, the protocol value tc
// filters use to match every ethertype.
const unixETHPAll = 0x0003

// ClassStats extracts a class's handle, parent handle, and byte/packet/
// drop counters, decoupled from netlink.Class so pkg/network never
// needs to import vishvananda/netlink to read them back. The parent
// handle lets callers sum hfsc-family child class stats into their
// ancestors.
func ClassStats(c netlink.Class) (handle, parent types.TCHandle, stats DeviceClassStats, ok bool) {
	attrs := c.Attrs()
	if attrs.Statistics == nil {
		return 0, 0, DeviceClassStats{}, false
	}
	s := attrs.Statistics
	_, isHfsc := c.(*netlink.HfscClass)
	stats = DeviceClassStats{
		Bytes:   s.Basic.Bytes,
		Packets: s.Basic.Packets,
		Hfsc:    isHfsc,
	}
	if s.Queue != nil {
		stats.Drops = s.Queue.Drops
	}
	return types.TCHandle(attrs.Handle), types.TCHandle(attrs.Parent), stats, true
}

// DeviceClassStats is the subset of tc class statistics this facade
// exposes, independent of the netlink library's wire representation.
// Hfsc marks a class installed as hfsc-family, the only kind whose
// child stats get summed into their ancestors by RefreshStats.
type DeviceClassStats struct {
	Bytes   uint64
	Packets uint64
	Drops   uint32
	Hfsc    bool
}
