package network

import (
	"path/filepath"
	"strconv"

	"github.com/corenet/netd/pkg/types"
)

// Resolver implements the Configuration Resolver: resolve(cfg_map,
// device) -> value. The same algorithm serves string-valued and
// integer-valued configuration, since cfg_map is always
// map[string]string.
type Resolver struct {
	// groups maps a group id to its name, loaded from /etc/iproute2/group.
	groups map[string]string
}

// NewResolver builds a Resolver over the given group-id-to-name table.
func NewResolver(groups map[string]string) *Resolver {
	if groups == nil {
		groups = map[string]string{}
	}
	return &Resolver{groups: groups}
}

// ResolveString implements §4.1's algorithm: (1) the first key of
// order that glob-matches device.Name (keys absent from order are not
// tried, so a nil order skips this step); (2) "group <name>"; (3)
// "default"; (4) def.
func (r *Resolver) ResolveString(order []string, cfgMap map[string]string, device *types.Device, def string) string {
	for _, key := range order {
		if globMatch(key, device.Name) {
			return cfgMap[key]
		}
	}
	if device.Group != "" {
		if v, ok := cfgMap["group "+device.Group]; ok {
			return v
		}
	}
	if v, ok := cfgMap["default"]; ok {
		return v
	}
	return def
}

// ResolveUint is ResolveString with the result parsed as an unsigned
// integer; a malformed value resolves to def, matching the "bad
// configuration is terminal for the request, not for the process"
// propagation policy at the call site, not here.
func (r *Resolver) ResolveUint(order []string, cfgMap map[string]string, device *types.Device, def uint64) uint64 {
	s := r.ResolveString(order, cfgMap, device, "")
	if s == "" {
		return def
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// OrderedKeys returns m's keys in Go map iteration order, which is not
// the order the keys were written in the configuration file and can
// differ from one call to the next. When more than one glob key matches
// the same device, which of them ResolveString picks is therefore not
// defined.
func OrderedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// globMatch implements shell fnmatch semantics with * and ?.
func globMatch(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return ok
}

// GroupName resolves a numeric group id to its name, or returns id
// unchanged if it is not present in the group table (e.g. it was
// already a name, not a numeric id).
func (r *Resolver) GroupName(id string) string {
	if name, ok := r.groups[id]; ok {
		return name
	}
	return id
}
