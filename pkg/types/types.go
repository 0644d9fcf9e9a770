package types

import (
	"fmt"
	"net"
)

// TCHandle is a 32-bit kernel identifier (major << 16 | minor) naming a
// qdisc or class.
type TCHandle uint32

// NewTCHandle builds a TCHandle from its major/minor components.
func NewTCHandle(major, minor uint16) TCHandle {
	return TCHandle(uint32(major)<<16 | uint32(minor))
}

// Major returns the handle's major number.
func (h TCHandle) Major() uint16 { return uint16(h >> 16) }

// Minor returns the handle's minor number.
func (h TCHandle) Minor() uint16 { return uint16(h) }

// Zero reports whether the handle is unset.
func (h TCHandle) Zero() bool { return h == 0 }

func (h TCHandle) String() string {
	return fmt.Sprintf("%x:%x", h.Major(), h.Minor())
}

// Well-known minors within a device's root qdisc, per the fixed TC
// hierarchy shape.
const (
	RootClassMinor    uint16 = 1
	DefaultClassMinor uint16 = 0xdddd
)

// Reserved container handles used to pick CreateTC's default_rate source.
const (
	RootContainerID   = 1
	LegacyContainerID = 2
)

// LinkKind is the kernel-reported type of a link (ether, tun, tap, veth, ...).
type LinkKind string

const (
	LinkKindEther LinkKind = "ether"
	LinkKindTun   LinkKind = "tun"
	LinkKindTap   LinkKind = "tap"
	LinkKindVeth  LinkKind = "veth"
	LinkKindOther LinkKind = "other"
)

// DeviceStats is a point-in-time counter snapshot for one device.
type DeviceStats struct {
	RxBytes   uint64
	RxPackets uint64
	RxDrops   uint64
	TxBytes   uint64
	TxPackets uint64
	TxDrops   uint64
}

// Device represents a single network interface tracked by the subsystem.
//
// Index uniquely identifies a device within one namespace for its
// lifetime. Managed is decided once at discovery time (unmanaged lists,
// or unconditionally true inside a managed namespace) and never flips
// afterward. Prepared means a root qdisc and root class are installed
// on the kernel side and match the configured kind; it is the barrier
// other containers wait behind before they can see the device.
type Device struct {
	Index      int
	Name       string
	Kind       LinkKind
	Group      string
	MTU        int
	LinkParent int // index of the parent link, 0 if none

	Managed  bool
	Prepared bool
	Missing  bool

	// Uplink marks a NAT-facing device. RefreshDevices never sets it,
	// and neither gateway election nor proxy-NDP announcement reads it.
	Uplink bool

	Rate uint64 // effective egress rate, bytes/sec
	Ceil uint64 // effective egress ceiling, bytes/sec

	Stats DeviceStats
}

// IsVethPeer reports whether name matches the internal veth peer naming
// convention used by this subsystem's own veth/L3 recipes.
func IsVethPeer(kind LinkKind, name string) bool {
	if kind != LinkKindVeth {
		return false
	}
	return hasPrefix(name, "portove-") || hasPrefix(name, "L3-")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// NetState is the tri-valued outcome of a container's last network
// reconciliation.
type NetState int

const (
	// NetStateSuccess means the container's TC state matches its
	// parameters as of the last successful RefreshClasses pass.
	NetStateSuccess NetState = iota
	// NetStateQueued means a caller requested RefreshNetwork and the
	// worker has not yet processed it.
	NetStateQueued
	// NetStateError means the last reconciliation attempt failed;
	// the error is carried separately alongside the state.
	NetStateError
)

func (s NetState) String() string {
	switch s {
	case NetStateSuccess:
		return "success"
	case NetStateQueued:
		return "queued"
	case NetStateError:
		return "error"
	default:
		return "unknown"
	}
}

// ContainerNetState is the per-container state the core reads and
// writes, but does not own — it is held by the container subsystem and
// exposed to this core through ContainerIterator.
type ContainerNetState struct {
	// Inputs, read by RefreshClasses/CreateIngressQdisc.
	NetPriorityMap map[string]uint32 // device name/group -> prio
	NetGuaranteeMap map[string]uint64 // device name/group -> guarantee, bytes/sec
	NetLimitMap     map[string]uint64 // device name/group -> limit, bytes/sec
	NetRxLimitMap   map[string]uint64 // device name/group -> ingress rate, bytes/sec

	ContainerTCHandle TCHandle // stable handle chosen at container creation
	ParentTCHandle    TCHandle // parent container's handle, or root-container handle
	LeafTCHandle      TCHandle // optional sibling leaf class, 0 if none

	// Outputs, written by the worker under the container's net-state lock.
	NetState       NetState
	NetStateError  error
	NetStatsByDevice map[string]DeviceStats

	// Epoch advances every time the worker finishes processing this
	// container, letting RefreshNetwork callers wait without risking a
	// missed wakeup (see ContainerWaiter).
	Epoch uint64
}

// ContainerHandle is an opaque reference to one container in the
// container tree, as exposed by ContainerIterator. The core never
// constructs or interprets it.
type ContainerHandle interface {
	// ID returns a stable identifier, used only for logging and lock
	// ordering tie-breaks.
	ID() string
}

// ContainerIterator is the narrow read interface the core consumes to
// walk the container tree; the tree itself lives in the container
// subsystem, out of this core's scope.
type ContainerIterator interface {
	// Root returns the root (host) container, whose NetState always
	// reads as the host network's own bookkeeping container.
	Root() ContainerHandle

	// Children returns the direct children of c, in no particular order.
	Children(c ContainerHandle) []ContainerHandle

	// Parent returns the parent of c, or nil for the root.
	Parent(c ContainerHandle) ContainerHandle

	// State returns a live pointer to c's net state. Callers must hold
	// the state's associated lock (via NetStateLock) before touching
	// its fields.
	State(c ContainerHandle) *ContainerNetState

	// NetStateLock returns the mutex guarding c's ContainerNetState.
	NetStateLock(c ContainerHandle) Locker

	// Network returns the Network Handle identity this container's
	// devices are attached to (as an inode number), or 0 for the host
	// network.
	Network(c ContainerHandle) uint64

	// HostNetwork reports whether c's traffic is additionally visible
	// on the host network (e.g. via the default class), independent of
	// Network.
	HostNetwork(c ContainerHandle) bool
}

// Locker is satisfied by *sync.Mutex; declared here so pkg/types does
// not need to import sync for a one-method interface.
type Locker interface {
	Lock()
	Unlock()
}

// AddrLabelEntry is one entry of the configured addrlabel table,
// published into each new namespace at creation.
type AddrLabelEntry struct {
	Prefix *net.IPNet
	Label  uint32
}

// RecipeKind is the tag of a Namespace Setup recipe's sum type.
type RecipeKind string

const (
	RecipeNone      RecipeKind = "none"
	RecipeInherited RecipeKind = "inherited"
	RecipeHost      RecipeKind = "host"
	RecipeSteal     RecipeKind = "steal"
	RecipeContainer RecipeKind = "container"
	RecipeNetns     RecipeKind = "netns"
	RecipeMacvlan   RecipeKind = "macvlan"
	RecipeIpvlan    RecipeKind = "ipvlan"
	RecipeVeth      RecipeKind = "veth"
	RecipeL3        RecipeKind = "L3"
	RecipeNAT       RecipeKind = "NAT"
	RecipeIPIP6     RecipeKind = "ipip6"
	RecipeMTU       RecipeKind = "MTU"
	RecipeAutoconf  RecipeKind = "autoconf"
)

// NetTuple is one parsed tuple of the container-level "net" property.
// Args holds the kind-specific arguments verbatim, already tokenized.
type NetTuple struct {
	Kind RecipeKind
	Args []string
}

// IPTuple is one parsed tuple of the container-level "ip" property:
// an interface name and an address/prefix.
type IPTuple struct {
	Iface string
	Addr  *net.IPNet
}

// GwTuple is one parsed tuple of the container-level "gw" property: an
// interface name and a gateway address.
type GwTuple struct {
	Iface string
	Addr  net.IP
}
