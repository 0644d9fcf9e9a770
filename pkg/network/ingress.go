package network

import "github.com/corenet/netd/pkg/types"

var ingressHandle = types.NewTCHandle(0xffff, 0)

// CreateIngressQdisc installs the ingress policer for a container's
// rx-limit map across every managed, prepared device of this network,
// per §4.5.
// A device whose resolved rx rate is 0 is left without ingress
// policing; ingress is layered on top of the existing egress root
// qdisc and never touches the egress class tree.
func (h *Handle) CreateIngressQdisc(rxLimitMap map[string]uint64) error {
	devices := h.preparedDevices()

	for i := range devices {
		d := &devices[i]
		rate := h.resolveUintFor(d, rxLimitMap, 0)
		if rate == 0 {
			continue
		}

		if err := h.nlh.QdiscDel(d.Index, ingressHandle); err != nil && !IsNotFound(WrapNetlink("ingress qdisc del", err)) {
			return WrapNetlink("ingress qdisc del", err)
		}
		if err := h.nlh.QdiscReplaceIngress(d.Index); err != nil {
			return WrapNetlink("ingress qdisc replace", err)
		}

		const mtu = 65536
		burst := uint32(mtu * 10)
		if minBurst := uint32(rate / 10); minBurst > burst {
			burst = minBurst
		}
		if override, ok := h.cfg.IngressBurst[d.Name]; ok {
			if v := parseUintOr(override, 0); v > 0 {
				burst = uint32(v)
			}
		}

		if err := h.nlh.PoliceFilterAdd(d.Index, mtu, uint32(rate), burst); err != nil {
			return WrapNetlink("police filter add", err)
		}
	}

	return nil
}

func parseUintOr(s string, def uint64) uint64 {
	var v uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		v = v*10 + uint64(c-'0')
	}
	if v == 0 && s != "0" {
		return def
	}
	return v
}
