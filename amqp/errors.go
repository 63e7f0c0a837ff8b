package amqp

import (
	"errors"
	"fmt"

	"github.com/peake100/lamqp-go/native"
)

// Usage errors. These are returned as Go errors and never as a Result: they mean the
// caller made a mistake, not that the broker or the network did.
var (
	// ErrInvalidHandle is returned when a connection has already been destroyed, or
	// when a socket's connection has.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrOutOfMemory is returned when the native library cannot allocate a
	// connection.
	ErrOutOfMemory = errors.New("no memory")
	// ErrInvalidTimeout is returned for negative, NaN or out-of-range timeouts.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// ArgumentError reports which argument of which operation was rejected. Position
// counts the receiver as argument 1, so it lines up with the scripting surface.
type ArgumentError struct {
	Func     string
	Position int
	Reason   string
	// Err is the sentinel error this argument error wraps.
	Err error
}

// Implements builtins.error
func (err *ArgumentError) Error() string {
	return fmt.Sprintf("bad argument #%d to '%s' (%s)", err.Position, err.Func, err.Reason)
}

// Unwrap returns the wrapped sentinel.
func (err *ArgumentError) Unwrap() error {
	return err.Err
}

// ErrUnexpectedReply is returned when the native library hands back an RPC reply with
// a type the binding does not know. It indicates a broken library, not a broker
// failure.
type ErrUnexpectedReply struct {
	ReplyType native.ResponseType
}

// Implements builtins.error
func (err *ErrUnexpectedReply) Error() string {
	return fmt.Sprintf("unexpected rpc reply type %v", err.ReplyType)
}

func invalidConnection(funcName string) error {
	return &ArgumentError{
		Func:     funcName,
		Position: 1,
		Reason:   "invalid connection",
		Err:      ErrInvalidHandle,
	}
}

func invalidSocket(funcName string) error {
	return &ArgumentError{
		Func:     funcName,
		Position: 1,
		Reason:   "invalid socket",
		Err:      ErrInvalidHandle,
	}
}
