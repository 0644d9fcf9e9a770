// Package config loads the network subsystem's configuration object:
// the device-pattern rules, NAT pool bounds, watchdog period, and the
// handful of feature flags the rest of netd resolves policy against.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// AddrLabelEntry is one entry of the addrlabel table published into
// every new namespace at creation.
type AddrLabelEntry struct {
	Prefix string `yaml:"prefix"`
	Label  uint32 `yaml:"label"`
}

// NetworkConfig is the concrete realization of the configuration
// object §6 describes: device-pattern rules resolved by the
// Configuration Resolver, NAT pool bounds, and process-wide feature
// flags. Map-valued fields use map[string]string uniformly so the
// resolver can serve both string- and integer-valued lookups off one
// code path.
type NetworkConfig struct {
	UnmanagedDevice []string `yaml:"unmanaged_device"`
	UnmanagedGroup  []string `yaml:"unmanaged_group"`

	DeviceQdisc     map[string]string `yaml:"device_qdisc"`
	DeviceRate      map[string]string `yaml:"device_rate"`
	DeviceCeil      map[string]string `yaml:"device_ceil"`
	DeviceRateBurst map[string]string `yaml:"device_rate_burst"`
	DeviceCeilBurst map[string]string `yaml:"device_ceil_burst"`
	DeviceQuantum   map[string]string `yaml:"device_quantum"`

	DefaultRate    map[string]string `yaml:"default_rate"`
	DefaultQdisc   map[string]string `yaml:"default_qdisc"`
	DefaultLimit   map[string]string `yaml:"default_limit"`
	DefaultQuantum map[string]string `yaml:"default_quantum"`

	ContainerQdisc   map[string]string `yaml:"container_qdisc"`
	ContainerLimit   map[string]string `yaml:"container_limit"`
	ContainerQuantum map[string]string `yaml:"container_quantum"`
	ContainerRate    map[string]string `yaml:"container_rate"`

	PortoRate    map[string]string `yaml:"porto_rate"`
	IngressBurst map[string]string `yaml:"ingress_burst"`

	WatchdogMs uint `yaml:"watchdog_ms"`

	NATFirstIPv4 string `yaml:"nat_first_ipv4"`
	NATFirstIPv6 string `yaml:"nat_first_ipv6"`
	NATCount     uint   `yaml:"nat_count"`

	IPIP6TTL        uint `yaml:"ipip6_ttl"`
	IPIP6EncapLimit uint `yaml:"ipip6_encap_limit"`

	AddrLabel []AddrLabelEntry `yaml:"addrlabel"`

	ProxyNDP        bool `yaml:"proxy_ndp"`
	L3MigrationHack bool `yaml:"l3_migration_hack"`
}

// Default returns a NetworkConfig with the scalar defaults set
// (watchdog period, ipip6 ttl and encap limit) and every map left nil.
// Per-device fallbacks for absent map keys are supplied by each
// Configuration Resolver call site in pkg/network, not by this value.
func Default() *NetworkConfig {
	return &NetworkConfig{
		WatchdogMs:      5000,
		NATCount:        0,
		IPIP6TTL:        64,
		IPIP6EncapLimit: 4,
	}
}

// Load reads and parses a NetworkConfig from a YAML file at path.
func Load(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that must parse as addresses before the
// rest of the subsystem relies on them.
func (c *NetworkConfig) Validate() error {
	if c.NATFirstIPv4 != "" {
		if ip := net.ParseIP(c.NATFirstIPv4); ip == nil || ip.To4() == nil {
			return fmt.Errorf("nat_first_ipv4: invalid IPv4 address %q", c.NATFirstIPv4)
		}
	}
	if c.NATFirstIPv6 != "" {
		if ip := net.ParseIP(c.NATFirstIPv6); ip == nil {
			return fmt.Errorf("nat_first_ipv6: invalid IPv6 address %q", c.NATFirstIPv6)
		}
	}
	for _, e := range c.AddrLabel {
		if _, _, err := net.ParseCIDR(e.Prefix); err != nil {
			return fmt.Errorf("addrlabel: invalid prefix %q: %w", e.Prefix, err)
		}
	}
	return nil
}
