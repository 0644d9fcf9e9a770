package network

import (
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

// classKey identifies one TC class by the device it lives on plus its
// handle; the same container TC handle exists identically on every
// device of a network, so the device index must be part of the key.
type classKey struct {
	devIndex int
	handle   types.TCHandle
}

type classEntry struct {
	parent types.TCHandle
	hfsc   bool
	stats  types.DeviceStats
}

// RefreshStats samples TC class statistics for every managed+prepared
// device on this network and writes them into the containers the
// given iterator exposes, keyed by device name, plus a per-group
// aggregate under "group <name>". Device-level rx counters (which TC
// classes never carry, since classes only measure egress) are copied
// into each container's per-device entry alongside its own class's
// tx-side counters, and an hfsc-family class's tx stats are summed
// into every ancestor up its parent chain, per §4.7's RefreshStats
// description.
func (h *Handle) RefreshStats(iter types.ContainerIterator, subtree []types.ContainerHandle) error {
	devices := h.preparedDevices()

	byKey := map[classKey]classEntry{}
	for i := range devices {
		d := &devices[i]
		classes, err := h.nlh.ClassList(d.Index)
		if err != nil {
			return WrapNetlink("class list", err)
		}
		for _, c := range classes {
			handle, parent, cs, ok := nl.ClassStats(c)
			if !ok {
				continue
			}
			byKey[classKey{d.Index, handle}] = classEntry{
				parent: parent,
				hfsc:   cs.Hfsc,
				stats: types.DeviceStats{
					RxBytes:   d.Stats.RxBytes,
					RxPackets: d.Stats.RxPackets,
					RxDrops:   d.Stats.RxDrops,
					TxBytes:   cs.Bytes,
					TxPackets: cs.Packets,
					TxDrops:   uint64(cs.Drops),
				},
			}
		}
	}

	byHandle := sumHfscAncestors(byKey)

	for _, c := range subtree {
		net := iter.Network(c)
		if net != h.inode && !(h.isHost && iter.HostNetwork(c)) {
			continue
		}

		lock := iter.NetStateLock(c)
		lock.Lock()
		state := iter.State(c)
		if state.NetStatsByDevice == nil {
			state.NetStatsByDevice = map[string]types.DeviceStats{}
		}
		groupTotals := map[string]types.DeviceStats{}
		for i := range devices {
			d := &devices[i]
			handle := state.ContainerTCHandle
			stats, ok := byHandle[classKey{d.Index, handle}]
			if !ok {
				continue
			}
			state.NetStatsByDevice[d.Name] = stats
			if d.Group != "" {
				agg := groupTotals[d.Group]
				agg = sumDeviceStats(agg, stats)
				groupTotals[d.Group] = agg
			}
		}
		for group, agg := range groupTotals {
			state.NetStatsByDevice["group "+group] = agg
		}
		lock.Unlock()
	}

	return nil
}

// sumHfscAncestors starts every class at its own stats, then walks
// each hfsc-family class's parent chain summing its tx-side stats into
// every ancestor class on the same device. A depth cap guards against
// a malformed parent chain ever looping back on itself.
func sumHfscAncestors(byKey map[classKey]classEntry) map[classKey]types.DeviceStats {
	out := make(map[classKey]types.DeviceStats, len(byKey))
	for key, entry := range byKey {
		out[key] = sumDeviceStats(out[key], entry.stats)
	}
	for key, entry := range byKey {
		if !entry.hfsc {
			continue
		}
		childStats := types.DeviceStats{
			TxBytes:   entry.stats.TxBytes,
			TxPackets: entry.stats.TxPackets,
			TxDrops:   entry.stats.TxDrops,
		}
		parent := entry.parent
		for depth := 0; !parent.Zero() && depth < len(byKey); depth++ {
			parentKey := classKey{key.devIndex, parent}
			parentEntry, ok := byKey[parentKey]
			if !ok {
				break
			}
			out[parentKey] = sumDeviceStats(out[parentKey], childStats)
			parent = parentEntry.parent
		}
	}
	return out
}

func sumDeviceStats(a, b types.DeviceStats) types.DeviceStats {
	return types.DeviceStats{
		RxBytes:   a.RxBytes + b.RxBytes,
		RxPackets: a.RxPackets + b.RxPackets,
		RxDrops:   a.RxDrops + b.RxDrops,
		TxBytes:   a.TxBytes + b.TxBytes,
		TxPackets: a.TxPackets + b.TxPackets,
		TxDrops:   a.TxDrops + b.TxDrops,
	}
}
