/*
Package network implements netd's network subsystem core: per-namespace
device discovery, hierarchical TC egress/ingress bandwidth control,
namespace setup for container network recipes, NAT address allocation,
and proxy-NDP gateway announcement.

# Architecture

	┌─────────────────────────── NETWORK CORE ───────────────────────────┐
	│                                                                      │
	│  ┌────────────────┐        ┌──────────────────────────────────┐   │
	│  │    Registry     │  owns  │   Handle (per namespace)         │   │
	│  │                 │───────▶│   - nl.Handle (netlink socket)   │   │
	│  │  inode -> Handle│        │   - device list                  │   │
	│  │  weak + swept   │        │   - NAT bitmap                   │   │
	│  └────────────────┘        │   - lock                          │   │
	│                             └────────┬─────────────────────────┘   │
	│                                      │                              │
	│         ┌────────────────────────────┼─────────────────────┐       │
	│         ▼                            ▼                     ▼       │
	│  device.go                     tc.go / ingress.go    nsconfig.go   │
	│  RefreshDevices                CreateTC / DestroyTC  ApplyRecipe   │
	│  SetupQueue                    CreateIngressQdisc     gateway      │
	│                                                       election     │
	│                                                                      │
	└──────────────────────────────────────────────────────────────────┘

# Core Components

Registry (registry.go): indexes Handles by namespace inode. Entries are
reference counted rather than backed by Go's GC weak pointers; a Handle
whose owner count drops to zero is logically expired and is evicted the
next time Insert sweeps, not immediately.

Handle (handle.go): the Network Handle. Owns a netlink socket scoped to
one namespace, the device list discovered in it, and (for networks that
hand out addresses) a NAT bitmap. Every mutating operation holds the
Handle's lock; RefreshDevices, CreateTC, DestroyTC, CreateIngressQdisc,
SetupQueue, GetGateAddress, Announce/Unannounce, and NAT allocation all
hang off it.

Device Discovery (device.go): RefreshDevices rebuilds the device list
from a fresh kernel link cache every watchdog cycle, marking managed
devices for SetupQueue when their TC shape has not yet been installed
or has drifted from configuration.

TC Engine (tc.go, ingress.go): CreateTC/DestroyTC install and tear down
one container's class (and optional leaf class) on every managed,
prepared device. CreateIngressQdisc layers an ingress policer on top of
the existing egress root qdisc without touching the egress class tree.

NAT Allocator (nat.go): an ordered sparse bitmap over a configured
address count, kept as a sorted slice of free intervals. Get takes the
lowest offset from the first interval in constant time; Put finds its
place by binary search, but inserting or merging an interval shifts
the slice, so Put is linear in the number of free runs.

Namespace Setup (nsconfig.go): ApplyRecipe dispatches a parsed
container network recipe (none/inherited/host/steal/container/netns/
macvlan/ipvlan/veth/L3/NAT/ipip6) into the concrete netlink operations
that build it, including the gateway election algorithm used by L3 and
NAT recipes.

Proxy-NDP Announcer (proxyndp.go): publishes/withdraws proxy neighbour
entries for elected gateways on the devices that should answer for
them, adapted from the rollback-on-partial-failure pattern this
subsystem uses everywhere a multi-step install can fail partway
through.

Configuration Resolver (resolver.go): resolve(cfg_map, device) -> value,
shared by every per-device policy lookup in SetupQueue, CreateTC, and
CreateIngressQdisc.

Group File Loader (groupfile.go): parses /etc/iproute2/group once at
startup into an id-to-name table, letting the resolver accept either a
numeric group id or its name in "group <name>" configuration keys.

Errors (errors.go): a typed Kind (InvalidValue, ResourceNotAvailable,
Netlink, NotFound, Unknown) wrapping netlink errno values, so callers
can branch with errors.As and idempotent teardown paths can tolerate
already-missing objects with IsNotFound.

# Usage

	registry := network.NewRegistry()
	nlh, _ := nl.OpenCurrent()
	ns, _ := nl.GetCurrentNs()
	inode, _ := nl.Inode(ns)

	host := network.NewHandle(nlh, ns, network.HandleOpts{
		Inode:  inode,
		IsHost: true,
		Config: cfg,
		Groups: groups,
		Iter:   containerTree,
		NAT:    network.NewNATBitmap(int(cfg.NATCount)),
	})
	registry.SetHost(host)

	newManaged, err := host.RefreshDevices(false)
	if err != nil {
		log.Logger.Error().Err(err).Msg("refresh devices failed")
	}

	result, netHandle, err := network.ApplyRecipe(host, containerName, tuples, ips)

# Integration Points

  - pkg/nl for every netlink-level operation; this package never imports
    github.com/vishvananda/netlink directly, only pkg/nl's facade.
  - pkg/reconciler drives RefreshDevices, CreateTC, CreateIngressQdisc,
    and RefreshStats from its watchdog loop.
  - pkg/config supplies the NetworkConfig every Resolver call reads.
  - pkg/types defines the Device, ContainerNetState, and recipe tuple
    shapes this package operates on without owning them.
  - pkg/metrics receives device/registry/NAT/TC counters from this
    package's Collector sources (DeviceCounts, HandleCount, Allocated,
    Free).

# Design Patterns

Weak registry with deferred sweep: rather than pay a GC finalizer or
background sweeper, expiry is checked only on Insert, amortizing the
cost across the operation that is already taking the registry lock.

Narrow netlink facade: this package never constructs a
github.com/vishvananda/netlink type directly; every operation goes
through pkg/nl so the kernel-errno-to-Kind mapping and metrics
instrumentation happen in exactly one place.

Idempotent teardown: DestroyTC and Unannounce treat a missing object as
success, since the same teardown path runs on both deliberate removal
and drift-recovery after an operator deletes kernel state out of band.

Rollback on partial failure: Announce removes the proxy entries it
already installed before returning an error. The L3 recipe does not
roll back: on a later error, a NAT offset it already drew stays
allocated and a veth pair it already created stays in place.

# Concurrency

Every Handle serializes its own mutating calls behind its lock. The
Registry's lock is independent and only ever held briefly, for map
operations. Lock ordering across the two, where both are needed, is:
registry, then the Handle in question — never the reverse.

# See Also

  - pkg/nl for the netlink facade
  - pkg/reconciler for the watchdog loop driving this package
  - pkg/config for the configuration object
  - pkg/types for the Device and recipe data model
*/
package network
