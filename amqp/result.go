package amqp

import (
	"fmt"

	"github.com/peake100/lamqp-go/native"
)

// Outcome tags the shape of a Result.
type Outcome int

const (
	// OutcomeOK is a success. Message and Code are empty.
	OutcomeOK Outcome = iota
	// OutcomeFailure is a status or protocol failure described by Message and Code.
	OutcomeFailure
	// OutcomeNotApplicable means the operation was skipped because it could not
	// apply, as when closing a connection that has no socket.
	OutcomeNotApplicable
)

// serverExceptionMessage is the Message of every server exception failure.
const serverExceptionMessage = "server exception"

// Result is the outcome of a fallible operation. Protocol failures, such as a
// refused connection or a broker closing the session, are always reported here and
// never as an error.
type Result struct {
	Outcome Outcome
	Message string
	Code    int
}

// OK reports whether the operation succeeded.
func (result Result) OK() bool {
	return result.Outcome == OutcomeOK
}

// Values renders the result as host-visible return values: (true) on success,
// (nil, message, code) on failure and (false) when not applicable.
func (result Result) Values() []interface{} {
	switch result.Outcome {
	case OutcomeOK:
		return []interface{}{true}
	case OutcomeFailure:
		return []interface{}{nil, result.Message, result.Code}
	default:
		return []interface{}{false}
	}
}

// String implements fmt.Stringer.
func (result Result) String() string {
	switch result.Outcome {
	case OutcomeOK:
		return "ok"
	case OutcomeFailure:
		return fmt.Sprintf("%s (%d)", result.Message, result.Code)
	default:
		return "not applicable"
	}
}

// resultOK is the success Result.
func resultOK() Result {
	return Result{Outcome: OutcomeOK}
}

// fromStatus translates a status enum.
func fromStatus(lib native.Library, status native.Status) Result {
	if status == native.StatusOK {
		return resultOK()
	}
	return Result{
		Outcome: OutcomeFailure,
		Message: lib.ErrorString(status),
		Code:    int(status),
	}
}

// fromReply translates an RPC reply. Library exceptions are reported as their status.
// A reply of unknown type is a broken library and is returned as an error.
func fromReply(lib native.Library, reply native.RPCReply) (Result, error) {
	switch reply.ReplyType {
	case native.ResponseNormal:
		return resultOK(), nil
	case native.ResponseServerException:
		return Result{
			Outcome: OutcomeFailure,
			Message: serverExceptionMessage,
			Code:    int(reply.Reply.ID),
		}, nil
	case native.ResponseLibraryException:
		return fromStatus(lib, reply.LibraryError), nil
	default:
		return Result{}, &ErrUnexpectedReply{ReplyType: reply.ReplyType}
	}
}
