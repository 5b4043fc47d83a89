package retry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/relay/core/retry"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return true }

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "nil", err: nil, transient: false},
		{name: "EOF", err: io.EOF, transient: true},
		{name: "unexpected EOF", err: io.ErrUnexpectedEOF, transient: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, transient: true},
		{name: "connection reset", err: syscall.ECONNRESET, transient: true},
		{name: "broken pipe", err: syscall.EPIPE, transient: true},
		{name: "host unreachable", err: syscall.EHOSTUNREACH, transient: true},
		{name: "wrapped syscall error", err: fmt.Errorf("write failed: %w", syscall.ECONNRESET), transient: true},
		{
			name: "op error",
			err: &net.OpError{
				Op:  "dial",
				Err: &net.DNSError{Err: "no such host", Name: "redis.invalid"},
			},
			transient: true,
		},
		{name: "net.Error implementation", err: fakeNetError{}, transient: true},
		{name: "context canceled", err: context.Canceled, transient: false},
		{name: "context deadline", err: context.DeadlineExceeded, transient: false},
		{name: "wrapped context deadline", err: fmt.Errorf("receive: %w", context.DeadlineExceeded), transient: false},
		{name: "plain error", err: errors.New("malformed payload"), transient: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.transient, retry.IsConnectionError(tt.err))
		})
	}
}

func TestIsConnectionError_AsTransientPredicate(t *testing.T) {
	t.Parallel()

	var calls int
	p := retry.Policy{
		MaxAttempts:     5,
		InitialInterval: time.Microsecond,
		Transient:       retry.IsConnectionError,
	}

	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return syscall.ECONNREFUSED
		}
		return errors.New("schema violation")
	})

	assert.EqualError(t, err, "schema violation")
	assert.Equal(t, 3, calls, "retries stop as soon as the error class changes")
}
