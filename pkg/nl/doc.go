/*
Package nl is a typed facade over the netlink transport library this
core is handed as an external collaborator, not implemented here.

It narrows github.com/vishvananda/netlink's general-purpose surface
down to exactly the link, qdisc, class, filter, address, neighbour, and
route operations the network subsystem issues, wraps each call with
metrics and logging instrumentation, and hides vishvananda/netlink's
own types behind small package-local ones so the rest of netd never
imports it directly.

# Architecture

	┌──────────────────── NETLINK FACADE ───────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              nl.Handle                      │          │
	│  │  - wraps *netlink.Handle, namespace-scoped  │          │
	│  │  - Open(ns) / OpenCurrent() / Close()       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Operation Groups                 │          │
	│  │  links.go:  Link/Veth/Macvlan/Ipvlan/Ip6tnl  │          │
	│  │  tc.go:     Qdisc/Class/Filter (htb or hfsc) │          │
	│  │  neigh.go:  proxy-NDP + permanent neighbours │          │
	│  │  netns.go:  namespace open/create/inode      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         instrument() / wrap()                │          │
	│  │  - netd_netlink_ops_total{op}                │          │
	│  │  - netd_netlink_errors_total{op}              │          │
	│  │  - zerolog debug line on failure             │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Handle:
  - One netlink socket per namespace, matching the Network Handle's
    "owns a netlink socket" invariant — callers never share a Handle
    across namespaces.

Link operations (links.go):
  - LinkList/LinkByName for device discovery
  - VethAdd/MacvlanAdd/IpvlanAdd/IP6TnlAdd for Namespace Setup recipes
  - AddrAdd/AddrList, RouteAdd/RouteList

TC operations (tc.go):
  - QdiscReplaceRoot/QdiscReplaceLeaf/QdiscReplaceIngress/QdiscDel
  - ClassReplace/ClassDel for the htb or hfsc class tree
  - CgroupFilterAdd, PoliceFilterAdd

Neighbour operations (neigh.go):
  - ProxyNeighAdd/ProxyNeighDel for proxy-NDP announcements
  - PermanentNeighAdd for the L3 recipe's two-way gateway entries
  - IsNotExist for the idempotent-delete tolerance path

Namespace operations (netns.go):
  - NewNamedNs/GetNamedNs/GetCurrentNs
  - Inode, the registry's key
  - WithNamespace, scoping a function call to one namespace on the
    calling goroutine's OS thread

# Error Mapping

Every operation funnels its error through instrument(), which records
the op-labeled counters and wraps the error with the operation name.
pkg/network's error type unwraps the underlying syscall.Errno with
errors.As (see nl.Errno) to build its own Netlink(errno, desc) kind.

# Integration Points

This package integrates with:

  - pkg/network: every component that touches the kernel goes through
    an nl.Handle
  - pkg/metrics: op-labeled counters
  - pkg/log: debug-level failure logging

# See Also

  - github.com/vishvananda/netlink godoc
  - pkg/network/errors.go for the Kind mapping built on top of this
*/
package nl
