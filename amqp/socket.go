package amqp

import (
	"math"
	"time"

	"github.com/peake100/lamqp-go/native"
)

// Socket is a non-owning reference to a native socket. The native socket belongs to
// the connection it was created on and is released with it; from then on every
// operation on the Socket fails with ErrInvalidHandle.
//
// For a given native socket at most one Socket exists at a time, so callers may
// compare sockets by pointer and attach state to them.
type Socket struct {
	binding *Binding
	handle  native.SocketPtr
	owner   *handleCell
}

func (sock *Socket) validate(funcName string) error {
	if sock.handle == 0 || sock.owner.get() == 0 {
		return invalidSocket(funcName)
	}
	return nil
}

// Timeout is an optional socket open timeout. The zero value is NoTimeout.
type Timeout struct {
	seconds float64
	set     bool
}

// NoTimeout blocks until the operating system gives up.
var NoTimeout = Timeout{}

// TimeoutSeconds returns a timeout of the given fractional seconds. Positive infinity
// is NoTimeout.
func TimeoutSeconds(seconds float64) Timeout {
	if math.IsInf(seconds, 1) {
		return NoTimeout
	}
	return Timeout{seconds: seconds, set: true}
}

// TimeoutDuration returns a timeout of duration.
func TimeoutDuration(duration time.Duration) Timeout {
	return TimeoutSeconds(duration.Seconds())
}

// IsSet reports whether the timeout bounds the operation.
func (timeout Timeout) IsSet() bool {
	return timeout.set
}

// Timeval splits the timeout into whole seconds and a microsecond remainder, both
// floored. NoTimeout yields a nil *native.Timeval.
func (timeout Timeout) Timeval() (*native.Timeval, error) {
	if !timeout.set {
		return nil, nil
	}

	seconds := timeout.seconds
	if math.IsNaN(seconds) || seconds < 0 {
		return nil, ErrInvalidTimeout
	}

	whole := math.Floor(seconds)
	if whole >= math.MaxInt64 {
		return nil, ErrInvalidTimeout
	}

	return &native.Timeval{
		Sec:  int64(whole),
		Usec: int64(math.Floor((seconds - whole) * 1e6)),
	}, nil
}

// OpenNoblock connects the socket to host:port, giving up after timeout. Network
// failures are reported in the Result; an invalid socket or timeout is an error.
func (sock *Socket) OpenNoblock(host string, port int, timeout Timeout) (Result, error) {
	if err := sock.validate("open_noblock"); err != nil {
		return Result{}, err
	}

	timeval, err := timeout.Timeval()
	if err != nil {
		return Result{}, &ArgumentError{
			Func:     "open_noblock",
			Position: 4,
			Reason:   err.Error(),
			Err:      err,
		}
	}

	lib := sock.binding.lib
	status := lib.SocketOpenNoblock(sock.handle, host, port, timeval)

	if sock.binding.logger.Debug().Enabled() {
		event := sock.binding.logger.Debug().
			Uint64("SOCKET", uint64(sock.handle)).
			Str("HOST", host).
			Int("PORT", port).
			Int("STATUS", int(status))
		if timeval != nil {
			event = event.Int64("TIMEOUT_SEC", timeval.Sec).Int64("TIMEOUT_USEC", timeval.Usec)
		}
		event.Msg("socket open")
	}

	return fromStatus(lib, status), nil
}
