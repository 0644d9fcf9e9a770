/*
Package config loads netd's network configuration object from YAML,
the concrete Go realization of the external configuration interface
the network subsystem is handed rather than owns.

# Architecture

	┌──────────────────── CONFIGURATION ────────────────────────┐
	│                                                            │
	│  network.yaml (operator-authored)                         │
	│         │                                                  │
	│         ▼  yaml.v3 Unmarshal                                │
	│  config.NetworkConfig                                      │
	│         │                                                  │
	│         ▼  consumed by                                     │
	│  pkg/network's Configuration Resolver (glob/group/default) │
	└────────────────────────────────────────────────────────────┘

# Core Components

NetworkConfig:
  - Device-pattern maps (device_qdisc/rate/ceil/...), keyed by glob,
    "group <name>", or "default", resolved by pkg/network's resolver
  - NAT pool bounds (nat_first_ipv4/ipv6, nat_count)
  - ipip6 tunnel defaults (ttl, encap_limit)
  - addrlabel table, published into every new namespace
  - Feature flags: proxy_ndp, l3_migration_hack

Default:
  - Scalar defaults only (watchdog_ms, ipip6 ttl/encap_limit); the maps
    stay nil, and per-device fallbacks come from each resolver call site

# Usage

	cfg, err := config.Load("/etc/netd/network.yaml")
	if err != nil {
	    log.Fatal(err.Error())
	}

	rate := resolver.ResolveUint(network.OrderedKeys(cfg.DeviceRate), cfg.DeviceRate, device, 0)

# Design Notes

Map values are uniformly map[string]string, even for fields that are
logically integers (device_rate, nat_count's per-device analogues),
so the Configuration Resolver can serve both string- and
integer-valued configuration off one code path instead of maintaining
parallel string and uint resolvers.

# Integration Points

This package integrates with:

  - pkg/network: resolver, NAT allocator, namespace setup all read
    NetworkConfig fields
  - cmd/netd: loads the config file at process startup

# See Also

  - pkg/network/resolver.go for how these maps are resolved per device
*/
package config
