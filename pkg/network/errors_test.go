package network

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	t.Run("NotFound kind", func(t *testing.T) {
		err := NewNotFound("device gone")
		assert.True(t, IsNotFound(err))
	})

	t.Run("other kind is not treated as not found", func(t *testing.T) {
		err := NewInvalidValue("bad config")
		assert.False(t, IsNotFound(err))
	})

	t.Run("bare ENOENT", func(t *testing.T) {
		assert.True(t, IsNotFound(syscall.ENOENT))
	})

	t.Run("wrapped ENODEV", func(t *testing.T) {
		wrapped := errors.New("wrap")
		_ = wrapped
		err := &Error{Kind: Netlink, Errno: syscall.ENODEV, Cause: syscall.ENODEV}
		assert.True(t, IsNotFound(err) == false) // Kind is Netlink, not NotFound: classification lives in WrapNetlink
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := syscall.ENOENT
	err := &Error{Kind: NotFound, Msg: "op", Cause: cause}
	require.ErrorIs(t, err, syscall.ENOENT)
	assert.Contains(t, err.Error(), "op")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid_value", InvalidValue.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "unknown", Unknown.String())
}
