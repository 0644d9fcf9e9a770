package network

import (
	"github.com/corenet/netd/pkg/metrics"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/types"
)

// CreateTC installs a container's class (and optional leaf class) on
// every managed+prepared device of this network, per §4.4. It keeps
// going after a device-level failure so one bad device never blocks
// the rest from getting the container's class, returning the first
// error encountered.
func (h *Handle) CreateTC(containerID int, handle, parent, leaf types.TCHandle, prioMap map[string]uint32, rateMap, ceilMap map[string]uint64) error {
	devices := h.preparedDevices()

	var firstErr error
	for i := range devices {
		d := &devices[i]
		timer := metrics.NewTimer()
		spec := nl.ClassSpec{
			Kind:        resolveQdiscKind(h.cfg, d),
			Handle:      handle,
			Parent:      parent,
			Rate:        h.resolveUintFor(d, rateMap, d.Rate),
			Ceil:        h.resolveUintFor(d, ceilMap, d.Ceil),
			Prio:        prioMap[d.Name],
			Quantum:     uint32(2 * d.MTU),
			RateBurst:   uint32(10 * d.MTU),
			CeilBurst:   uint32(10 * d.MTU),
			DefaultRate: h.defaultRateFor(containerID, d),
		}

		if err := h.nlh.ClassReplace(d.Index, spec); err != nil {
			metrics.TCClassInstallRetriesTotal.Inc()
			_ = h.nlh.ClassDel(d.Index, parent, handle)
			if err := h.nlh.ClassReplace(d.Index, spec); err != nil {
				if firstErr == nil {
					firstErr = WrapNetlink("class replace", err)
				}
				continue
			}
		}

		if leaf.Zero() {
			timer.ObserveDuration(metrics.TCClassInstallDuration)
			continue
		}

		leafSpec := nl.ClassSpec{
			Kind:   spec.Kind,
			Handle: leaf,
			Parent: handle,
			Rate:   0,
			Ceil:   0,
		}
		if err := h.nlh.ClassReplace(d.Index, leafSpec); err != nil {
			if firstErr == nil {
				firstErr = WrapNetlink("leaf class replace", err)
			}
			continue
		}

		containerQdisc := h.resolver.ResolveString(OrderedKeys(h.cfg.ContainerQdisc), h.cfg.ContainerQdisc, d, "pfifo")
		limit := uint32(h.resolver.ResolveUint(OrderedKeys(h.cfg.ContainerLimit), h.cfg.ContainerLimit, d, uint64(20*d.MTU)))
		quantum := uint32(h.resolver.ResolveUint(OrderedKeys(h.cfg.ContainerQuantum), h.cfg.ContainerQuantum, d, uint64(2*d.MTU)))
		if err := h.nlh.QdiscReplaceLeaf(d.Index, leaf, containerQdisc, limit, quantum); err != nil {
			if firstErr == nil {
				firstErr = WrapNetlink("container leaf qdisc replace", err)
			}
			continue
		}
		timer.ObserveDuration(metrics.TCClassInstallDuration)
	}

	return firstErr
}

// DestroyTC tears down a container's class tree, tolerating missing
// objects, per §4.4.
func (h *Handle) DestroyTC(handle, leaf types.TCHandle) error {
	devices := h.preparedDevices()

	var firstErr error
	for i := range devices {
		d := &devices[i]

		if !leaf.Zero() {
			if err := h.nlh.QdiscDel(d.Index, leaf); err != nil {
				if werr := WrapNetlink("container qdisc del", err); !IsNotFound(werr) && firstErr == nil {
					firstErr = werr
				}
			}
			if err := h.nlh.ClassDel(d.Index, handle, leaf); err != nil {
				if werr := WrapNetlink("leaf class del", err); !IsNotFound(werr) && firstErr == nil {
					firstErr = werr
				}
			}
		}

		if err := h.nlh.ClassDel(d.Index, types.TCHandle(0), handle); err != nil {
			if werr := WrapNetlink("class del", err); !IsNotFound(werr) && firstErr == nil {
				firstErr = werr
			}
		}
	}

	return firstErr
}

func (h *Handle) preparedDevices() []types.Device {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.Device, 0, len(h.devices))
	for _, d := range h.devices {
		if d.Managed && d.Prepared {
			out = append(out, d)
		}
	}
	return out
}

func (h *Handle) resolveUintFor(d *types.Device, m map[string]uint64, def uint64) uint64 {
	if v, ok := m[d.Name]; ok {
		return v
	}
	if v, ok := m["group "+d.Group]; ok {
		return v
	}
	return def
}

// defaultRateFor picks CreateTC's hfsc-family default_rate source per
// §4.4: the device's own rate for the root container, the configured
// porto_rate for the legacy container id, else the configured
// container_rate.
func (h *Handle) defaultRateFor(containerID int, d *types.Device) uint64 {
	switch containerID {
	case types.RootContainerID:
		return d.Rate
	case types.LegacyContainerID:
		return h.resolver.ResolveUint(OrderedKeys(h.cfg.PortoRate), h.cfg.PortoRate, d, d.Rate)
	default:
		return h.resolver.ResolveUint(OrderedKeys(h.cfg.ContainerRate), h.cfg.ContainerRate, d, d.Rate)
	}
}
