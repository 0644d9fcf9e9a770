package network

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/log"
	"github.com/corenet/netd/pkg/metrics"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

// NetMaxRate is the egress rate assumed for a device whose reported
// link speed is unknown or below 100Mb/s, and for every device inside
// a managed (non-host) namespace, where /sys speed probing does not
// apply.
const NetMaxRate uint64 = 32 * 1000 * 1000 * 1000 / 8 // 32Gbit/s in bytes/sec

// mbitToBytesCeil / mbitToBytesRate convert a /sys/class/net speed
// reading (megabits/sec) into the ceil and 90%-of-ceil rate used by
// SetupQueue, per §4.3.
func mbitToBytesCeil(mbit uint64) uint64 { return mbit * 125000 }
func mbitToBytesRate(mbit uint64) uint64 { return mbit * 112500 }

// RefreshDevices rebuilds h's device list from a fresh kernel link
// cache. It reports whether any managed device transitioned to
// prepared during this call, which callers use to raise need_refresh
// on the containers attached to this network.
func (h *Handle) RefreshDevices(force bool) (newManaged bool, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RefreshDevicesDuration)

	links, err := h.nlh.LinkList()
	if err != nil {
		return false, WrapNetlink("link list", err)
	}

	h.mu.Lock()
	existing := h.devices
	for i := range existing {
		existing[i].Missing = true
	}

	byKey := make(map[deviceKey]*types.Device, len(existing))
	for i := range existing {
		byKey[deviceKeyOf(&existing[i])] = &existing[i]
	}

	var result []types.Device
	for _, l := range links {
		if l.Name == "lo" {
			continue
		}
		kind := classifyLinkKind(l)
		if !h.managed && !l.OperUp {
			continue
		}
		if types.IsVethPeer(kind, l.Name) {
			continue
		}

		cand := types.Device{
			Index:      l.Index,
			Name:       l.Name,
			Kind:       kind,
			Group:      h.resolver.GroupName(l.Group),
			MTU:        l.MTU,
			LinkParent: l.ParentIndex,
			Stats: types.DeviceStats{
				RxBytes: l.RxBytes, RxPackets: l.RxPackets, RxDrops: l.RxDropped,
				TxBytes: l.TxBytes, TxPackets: l.TxPackets, TxDrops: l.TxDropped,
			},
		}
		if h.managed {
			cand.Managed = true
		} else {
			cand.Managed = !isUnmanaged(h.cfg, l.Name, cand.Group)
		}

		key := deviceKey{name: l.Name, index: l.Index}
		if prev, ok := byKey[key]; ok {
			prev.Missing = false
			prev.MTU = cand.MTU
			prev.Kind = cand.Kind
			prev.Managed = cand.Managed
			prev.Stats = cand.Stats

			if prev.Managed && force {
				prev.Prepared = false
			} else if prev.Managed {
				currentKind, kerr := h.installedQdiscKind(l.Index)
				if kerr == nil && currentKind != "" && currentKind != resolveQdiscKind(h.cfg, &cand) {
					prev.Prepared = false
				}
			}
			result = append(result, *prev)
		} else {
			result = append(result, cand)
		}
	}

	// result already excludes anything still marked missing: evicted
	// devices never made it past the kernel link cache loop above.
	kept := result
	var missingNames []string
	for i := range existing {
		if existing[i].Missing {
			missingNames = append(missingNames, existing[i].Name)
		}
	}
	metrics.NetworkDevicesMissingTotal.Add(float64(len(missingNames)))
	if h.isHost && len(missingNames) > 0 && h.iter != nil {
		root := h.iter.Root()
		state := h.iter.State(root)
		lock := h.iter.NetStateLock(root)
		lock.Lock()
		for _, name := range missingNames {
			delete(state.NetLimitMap, name)
			delete(state.NetGuaranteeMap, name)
		}
		lock.Unlock()
	}

	h.devices = kept
	h.mu.Unlock()

	for i := range kept {
		d := &kept[i]
		if !d.Managed || d.Prepared {
			continue
		}
		if setupErr := h.SetupQueue(d); setupErr != nil {
			log.WithComponent("network").Warn().Err(setupErr).Str("device", d.Name).Msg("setup queue failed")
			continue
		}
		d.Prepared = true
		newManaged = true
	}

	h.mu.Lock()
	for i := range kept {
		h.setDeviceLocked(kept[i])
	}
	h.mu.Unlock()

	return newManaged, nil
}

type deviceKey struct {
	name  string
	index int
}

func deviceKeyOf(d *types.Device) deviceKey { return deviceKey{name: d.Name, index: d.Index} }

func classifyLinkKind(l nl.Link) types.LinkKind {
	switch strings.ToLower(l.Kind) {
	case "veth":
		return types.LinkKindVeth
	case "tun":
		return types.LinkKindTun
	case "tap":
		return types.LinkKindTap
	case "", "device", "ether":
		return types.LinkKindEther
	default:
		return types.LinkKindOther
	}
}

func isUnmanaged(cfg *config.NetworkConfig, name, group string) bool {
	if cfg == nil {
		return false
	}
	for _, pat := range cfg.UnmanagedDevice {
		if globMatch(pat, name) {
			return true
		}
	}
	for _, g := range cfg.UnmanagedGroup {
		if g == group {
			return true
		}
	}
	return false
}

func resolveQdiscKind(cfg *config.NetworkConfig, d *types.Device) string {
	resolver := NewResolver(nil)
	order := OrderedKeys(cfg.DeviceQdisc)
	return resolver.ResolveString(order, cfg.DeviceQdisc, d, "htb")
}

func (h *Handle) installedQdiscKind(linkIndex int) (string, error) {
	kind, err := h.nlh.RootQdiscKind(linkIndex)
	if err != nil {
		return "", WrapNetlink("qdisc list", err)
	}
	return kind, nil
}

// SetupQueue installs the root TC shape on one managed device, per
// §4.3. It is idempotent: re-running it against an already-prepared
// device recreates the same shape.
func (h *Handle) SetupQueue(d *types.Device) error {
	rate, ceil := h.probeSpeed(d)
	d.Rate, d.Ceil = rate, ceil

	qdiscKind := resolveQdiscKind(h.cfg, d)
	defRate := h.resolveDefaultRate(d)

	root := types.NewTCHandle(uint16(d.Index)+1, 0)
	rootClass := types.NewTCHandle(uint16(d.Index)+1, types.RootClassMinor)
	defClass := types.NewTCHandle(uint16(d.Index)+1, types.DefaultClassMinor)

	if err := h.nlh.QdiscReplaceRoot(d.Index, nl.QdiscSpec{
		Kind:         qdiscKind,
		Handle:       root,
		DefaultMinor: types.DefaultClassMinor,
	}); err != nil {
		return WrapNetlink("qdisc replace root", err)
	}

	if err := h.nlh.CgroupFilterAdd(d.Index, root); err != nil {
		return WrapNetlink("cgroup filter add", err)
	}

	if err := h.nlh.ClassReplace(d.Index, nl.ClassSpec{
		Kind:   qdiscKind,
		Handle: rootClass,
		Parent: root,
		Rate:   d.Ceil,
		Ceil:   d.Ceil,
	}); err != nil {
		return WrapNetlink("root class replace", err)
	}

	if err := h.nlh.ClassReplace(d.Index, nl.ClassSpec{
		Kind:        qdiscKind,
		Handle:      defClass,
		Parent:      rootClass,
		Rate:        defRate,
		Ceil:        0,
		DefaultRate: defRate,
	}); err != nil {
		return WrapNetlink("default class replace", err)
	}

	if h.managed {
		limit := uint32(20 * d.MTU)
		quantum := uint32(2 * d.MTU)
		containerQdisc := h.resolver.ResolveString(OrderedKeys(h.cfg.ContainerQdisc), h.cfg.ContainerQdisc, d, "pfifo")
		if err := h.nlh.QdiscReplaceLeaf(d.Index, defClass, containerQdisc, limit, quantum); err != nil {
			return WrapNetlink("container qdisc replace", err)
		}
	}

	if h.isHost && h.iter != nil {
		root := h.iter.Root()
		state := h.iter.State(root)
		lock := h.iter.NetStateLock(root)
		lock.Lock()
		if state.NetLimitMap == nil {
			state.NetLimitMap = map[string]uint64{}
		}
		if state.NetGuaranteeMap == nil {
			state.NetGuaranteeMap = map[string]uint64{}
		}
		state.NetLimitMap[d.Name] = d.Ceil
		state.NetGuaranteeMap[d.Name] = d.Rate
		lock.Unlock()
	}

	return nil
}

func (h *Handle) probeSpeed(d *types.Device) (rate, ceil uint64) {
	if h.managed {
		return NetMaxRate, NetMaxRate
	}
	mbit, err := readLinkSpeed(d.Name)
	if err != nil || mbit < 100 {
		return NetMaxRate, NetMaxRate
	}
	return mbitToBytesRate(mbit), mbitToBytesCeil(mbit)
}

func readLinkSpeed(name string) (uint64, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/sys/class/net/%s/speed", name))
	if err != nil {
		return 0, err
	}
	mbit, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || mbit < 0 {
		return 0, fmt.Errorf("network: parse link speed for %s: %w", name, err)
	}
	return uint64(mbit), nil
}

func (h *Handle) resolveDefaultRate(d *types.Device) uint64 {
	order := OrderedKeys(h.cfg.DefaultRate)
	return h.resolver.ResolveUint(order, h.cfg.DefaultRate, d, d.Ceil)
}
