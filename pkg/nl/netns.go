package nl

import (
	"fmt"
	"runtime"
	"syscall"

	"github.com/vishvananda/netns"
)

// NsHandle re-exports netns.NsHandle so callers outside this package
// never import vishvananda/netns directly.
type NsHandle = netns.NsHandle

// NewNamedNs creates (or opens, if it already exists) a persistent
// namespace under /var/run/netns/<name>, the same location `ip netns`
// uses, and returns a handle to it.
func NewNamedNs(name string) (NsHandle, error) {
	ns, err := netns.NewNamed(name)
	if err != nil {
		return 0, fmt.Errorf("nl: new named namespace %q: %w", name, err)
	}
	return ns, nil
}

// GetNamedNs opens an existing namespace at /var/run/netns/<name>.
func GetNamedNs(name string) (NsHandle, error) {
	ns, err := netns.GetFromName(name)
	if err != nil {
		return 0, fmt.Errorf("nl: get named namespace %q: %w", name, err)
	}
	return ns, nil
}

// GetCurrentNs returns a handle to the calling OS thread's current
// namespace.
func GetCurrentNs() (NsHandle, error) {
	ns, err := netns.Get()
	if err != nil {
		return 0, fmt.Errorf("nl: get current namespace: %w", err)
	}
	return ns, nil
}

// Inode returns the namespace identity the registry keys on: the inode
// number of the namespace's /proc/self/ns/net symlink target.
func Inode(ns NsHandle) (uint64, error) {
	var stat syscall.Stat_t
	if err := syscall.Fstat(int(ns), &stat); err != nil {
		return 0, fmt.Errorf("nl: stat namespace handle: %w", err)
	}
	return stat.Ino, nil
}

// WithNamespace runs fn with the calling goroutine's OS thread switched
// into ns, restoring the original namespace (and unlocking the thread)
// afterward. The goroutine is locked to its OS thread for the duration,
// since namespace membership is per-thread in Linux.
func WithNamespace(ns NsHandle, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		return fmt.Errorf("nl: save current namespace: %w", err)
	}
	defer orig.Close()

	if err := netns.Set(ns); err != nil {
		return fmt.Errorf("nl: switch namespace: %w", err)
	}
	defer netns.Set(orig)

	return fn()
}
