package nl

import (
	"errors"
	"syscall"
)

func errIs(err error, target syscall.Errno) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == target
	}
	return errors.Is(err, target)
}

// Errno extracts the underlying syscall.Errno from a wrapped netlink
// error, if any. ok is false for errors with no errno (e.g. a
// marshalling failure before the request reached the kernel).
func Errno(err error) (errno syscall.Errno, ok bool) {
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
