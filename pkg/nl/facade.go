// Package nl is a typed facade over github.com/vishvananda/netlink, the
// netlink transport library this core is handed rather than implements
// itself. It narrows the library's general-purpose surface down to the
// link/qdisc/class/filter/addr/neighbour operations the network
// subsystem actually issues, instruments every call with metrics and
// logging, and maps kernel errno values onto the subsystem's own error
// kinds.
package nl

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/corenet/netd/pkg/log"
	"github.com/corenet/netd/pkg/metrics"
)

// Handle wraps a netlink.Handle scoped to one network namespace. The
// zero value is not usable; construct with Open or OpenCurrent.
type Handle struct {
	nh *netlink.Handle
}

// OpenCurrent returns a Handle bound to the calling goroutine's current
// network namespace. Callers that need a specific namespace must lock
// the OS thread and switch namespaces with netns.Set before calling
// this, then restore the original namespace afterward.
func OpenCurrent() (*Handle, error) {
	nh, err := netlink.NewHandle()
	if err != nil {
		return nil, wrap("open_handle", err)
	}
	return &Handle{nh: nh}, nil
}

// Open returns a Handle bound to the given namespace handle, without
// disturbing the calling goroutine's current namespace.
func Open(ns netns.NsHandle) (*Handle, error) {
	nh, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, wrap("open_handle_at", err)
	}
	return &Handle{nh: nh}, nil
}

// Close releases the underlying netlink socket.
func (h *Handle) Close() {
	if h.nh != nil {
		h.nh.Delete()
	}
}

func instrument(op string, err error) error {
	metrics.NetlinkOpsTotal.WithLabelValues(op).Inc()
	if err != nil {
		metrics.NetlinkErrorsTotal.WithLabelValues(op).Inc()
		log.WithComponent("nl").Debug().Str("op", op).Err(err).Msg("netlink operation failed")
		return wrap(op, err)
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("nl: %s: %w", op, err)
}
