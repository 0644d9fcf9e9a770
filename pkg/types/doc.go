/*
Package types defines the core data structures shared across netd's
network subsystem.

This package contains the domain model consumed by pkg/network,
pkg/reconciler, and pkg/config: devices, TC handles, the per-container
network state read through a narrow iterator interface, and the
tagged-variant recipe tuples parsed from the container-level net/ip/gw
properties. These types have no behavior of their own — they are the
shared vocabulary other packages operate on.

# Architecture

The types package sits below every other netd package:

  - Device identity and policy flags (Device, DeviceStats, LinkKind)
  - TC addressing (TCHandle, the well-known root/default minors)
  - Container network state, read-only from this core's point of view
    (ContainerNetState, ContainerIterator, ContainerHandle)
  - Namespace Setup recipe tuples (NetTuple, IPTuple, GwTuple, RecipeKind)

# Core Types

Device Model:
  - Device: one interface's identity, policy flags, effective rate/ceil,
    and statistics snapshot
  - LinkKind: ether, tun, tap, veth, or other
  - DeviceStats: rx/tx byte, packet, and drop counters

TC Addressing:
  - TCHandle: 32-bit (major<<16 | minor) kernel handle, with String()
    for log output
  - RootClassMinor, DefaultClassMinor: the two fixed minors every
    device's root qdisc carries
  - RootContainerID, LegacyContainerID: the two handles CreateTC treats
    specially when picking a hfsc default_rate

Container State (consumed, not owned):
  - ContainerNetState: priority/guarantee/limit/rx-limit maps, TC
    handles, net_state, per-device stats, and the waiter epoch
  - NetState: Success / Queued / Error
  - ContainerIterator: the narrow read interface into the container
    tree this core is handed at construction time; it never owns or
    mutates the tree structure itself, only per-container net state

Recipe Tuples:
  - RecipeKind: the tag of the Namespace Setup sum type (none, host,
    steal, container, netns, macvlan, ipvlan, veth, L3, NAT, ipip6, ...)
  - NetTuple / IPTuple / GwTuple: one parsed tuple of the container's
    net / ip / gw properties

# Usage

Building a TC handle:

	h := types.NewTCHandle(1, 0x100)
	h.String() // "1:100"

Reading container net state under its lock:

	lk := iter.NetStateLock(c)
	lk.Lock()
	state := iter.State(c)
	snapshot := *state
	lk.Unlock()

# Design Patterns

Enumeration Pattern:

	Enums are typed constants for safety and clarity:
	  type NetState int
	  const (
	      NetStateSuccess NetState = iota
	      NetStateQueued
	      NetStateError
	  )

Narrow Interface Pattern:

	ContainerIterator exposes only what this core needs from the
	container tree (state, lock, parent/children, network identity) so
	the container subsystem's actual tree structure stays out of scope.

Tagged Variant Pattern:

	NetTuple carries a RecipeKind tag plus raw Args; the Namespace Setup
	dispatcher in pkg/network switches on Kind rather than modeling each
	recipe as its own Go type, mirroring the original CLI property
	grammar.

# Integration Points

This package integrates with:

  - pkg/network: Device, TCHandle, ContainerIterator, recipe tuples
  - pkg/reconciler: ContainerNetState, NetState, Epoch
  - pkg/nl: TCHandle

# Thread Safety

Types in this package carry no locks of their own. ContainerNetState
is guarded by the Locker returned from ContainerIterator.NetStateLock;
callers must hold it before reading or writing a container's state.
Device and DeviceStats are owned by a Network Handle and are only
safe to read/write under that handle's lock.

# See Also

  - pkg/network for the registry, TC engine, and namespace setup that
    operate on these types
  - pkg/reconciler for the worker loop that drives NetState transitions
*/
package types
