package reconciler

import (
	"github.com/corenet/netd/pkg/network"
	"github.com/corenet/netd/pkg/types"
)

// refreshClasses implements §4.7's RefreshClasses: for every container
// attached to n (directly, or via the host-network flag) that either
// owes a refresh or is sitting in net_state=Queued, reinstall its TC
// class tree and notify whoever is waiting on it.
//
// A failure gets one soft retry (just CreateTC again) and, failing
// that, one hard retry (RefreshDevices with force=true, then CreateTC
// again). If both retries fail, the network's need_refresh flag is set
// so the next cycle picks it back up, and the error is returned so the
// caller re-raises work-pending.
func refreshClasses(iter types.ContainerIterator, n *network.Handle, subtree []types.ContainerHandle, waiter *ContainerWaiter) error {
	needRefresh := n.TakeNeedRefresh()
	var firstErr error

	for _, c := range subtree {
		attached := iter.Network(c) == n.Inode() || (n.IsHost() && iter.HostNetwork(c))
		if !attached {
			continue
		}

		lock := iter.NetStateLock(c)
		lock.Lock()
		state := iter.State(c)
		due := needRefresh || state.NetState == types.NetStateQueued
		if !due {
			lock.Unlock()
			continue
		}
		handle := state.ContainerTCHandle
		parent := state.ParentTCHandle
		leaf := state.LeafTCHandle
		prioMap := copyUint32Map(state.NetPriorityMap)
		rateMap := copyUint64Map(state.NetGuaranteeMap)
		ceilMap := copyUint64Map(state.NetLimitMap)
		rxLimitMap := copyUint64Map(state.NetRxLimitMap)
		lock.Unlock()

		containerID := containerIDFor(c)
		err := n.CreateTC(containerID, handle, parent, leaf, prioMap, rateMap, ceilMap)
		if err == nil && !n.IsHost() && len(rxLimitMap) > 0 {
			err = n.CreateIngressQdisc(rxLimitMap)
		}

		if err != nil {
			err = retrySoft(n, containerID, handle, parent, leaf, prioMap, rateMap, ceilMap, rxLimitMap)
		}
		if err != nil {
			err = retryHard(n, containerID, handle, parent, leaf, prioMap, rateMap, ceilMap, rxLimitMap)
		}

		lock.Lock()
		state = iter.State(c)
		if err != nil {
			state.NetState = types.NetStateError
			state.NetStateError = err
			state.Epoch++
			n.SetNeedRefresh(true)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			state.NetState = types.NetStateSuccess
			state.NetStateError = nil
			state.Epoch++
		}
		if waiter != nil {
			waiter.Notify(c, iter)
		}
		lock.Unlock()
	}

	return firstErr
}

func retrySoft(n *network.Handle, containerID int, handle, parent, leaf types.TCHandle, prioMap map[string]uint32, rateMap, ceilMap, rxLimitMap map[string]uint64) error {
	err := n.CreateTC(containerID, handle, parent, leaf, prioMap, rateMap, ceilMap)
	if err == nil && !n.IsHost() && len(rxLimitMap) > 0 {
		err = n.CreateIngressQdisc(rxLimitMap)
	}
	return err
}

func retryHard(n *network.Handle, containerID int, handle, parent, leaf types.TCHandle, prioMap map[string]uint32, rateMap, ceilMap, rxLimitMap map[string]uint64) error {
	if _, err := n.RefreshDevices(true); err != nil {
		return err
	}
	return retrySoft(n, containerID, handle, parent, leaf, prioMap, rateMap, ceilMap, rxLimitMap)
}

func containerIDFor(c types.ContainerHandle) int {
	switch c.ID() {
	case "root":
		return types.RootContainerID
	case "legacy":
		return types.LegacyContainerID
	default:
		return 0
	}
}

func copyUint32Map(m map[string]uint32) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyUint64Map(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
