package network

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/corenet/netd/pkg/nl"
)

// Kind classifies a network subsystem error for callers that need to
// branch on it (errors.As down to *Error, then switch on Kind).
type Kind int

const (
	// InvalidValue marks bad user configuration.
	InvalidValue Kind = iota
	// ResourceNotAvailable marks exhaustion of a finite resource, e.g.
	// the NAT pool.
	ResourceNotAvailable
	// Netlink marks a kernel rejection of a netlink request; Errno
	// carries the rejection code.
	Netlink
	// NotFound marks a missing device or namespace.
	NotFound
	// Unknown marks any other syscall failure.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case InvalidValue:
		return "invalid_value"
	case ResourceNotAvailable:
		return "resource_not_available"
	case Netlink:
		return "netlink"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the network subsystem's error type. It implements error and
// Unwrap so call sites can errors.As down to the Kind and errors.Is
// through Cause for the "tolerate missing object" paths used in TC
// teardown and namespace setup.
type Error struct {
	Kind  Kind
	Errno syscall.Errno // only meaningful when Kind == Netlink
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// NewInvalidValue builds an InvalidValue error.
func NewInvalidValue(msg string) *Error {
	return &Error{Kind: InvalidValue, Msg: msg}
}

// NewResourceNotAvailable builds a ResourceNotAvailable error.
func NewResourceNotAvailable(msg string) *Error {
	return &Error{Kind: ResourceNotAvailable, Msg: msg}
}

// NewNotFound builds a NotFound error.
func NewNotFound(msg string) *Error {
	return &Error{Kind: NotFound, Msg: msg}
}

// WrapNetlink classifies an error returned from pkg/nl into the
// appropriate Kind, extracting the syscall.Errno when present.
func WrapNetlink(op string, err error) error {
	if err == nil {
		return nil
	}
	if errno, ok := nl.Errno(err); ok {
		switch errno {
		case syscall.ENOENT, syscall.ENODEV:
			return &Error{Kind: NotFound, Msg: op, Errno: errno, Cause: err}
		default:
			return &Error{Kind: Netlink, Msg: op, Errno: errno, Cause: err}
		}
	}
	return &Error{Kind: Unknown, Msg: op, Cause: err}
}

// IsNotFound reports whether err (or anything it wraps) is a NotFound
// network error, or a bare syscall.ENOENT/ENODEV — the idempotent-
// delete tolerance check used throughout DestroyTC and Unannounce.
func IsNotFound(err error) bool {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Kind == NotFound
	}
	return errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ENODEV)
}
