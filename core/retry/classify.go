package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsConnectionError reports whether err looks like a lost or unreachable
// network peer: dial/read/write failures, resets, refused connections and
// abrupt EOFs. It is the default transient predicate used by the transport
// bridges; backends layer their own error types on top of it.
//
// Context cancellation and deadline errors are not connection errors.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// context.DeadlineExceeded satisfies net.Error, so cancellation has to
	// be ruled out before the interface check.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ETIMEDOUT,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
