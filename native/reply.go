package native

import "fmt"

// ResponseType tags which member of an RPCReply is meaningful.
type ResponseType int

const (
	// ResponseNone is the zero value and is never produced by a completed call.
	ResponseNone ResponseType = iota
	// ResponseNormal means the server answered with the expected method.
	ResponseNormal
	// ResponseLibraryException means the call failed inside the library. See
	// RPCReply.LibraryError.
	ResponseLibraryException
	// ResponseServerException means the server answered with a close method. See
	// RPCReply.Reply.
	ResponseServerException
)

func (kind ResponseType) String() string {
	switch kind {
	case ResponseNone:
		return "NONE"
	case ResponseNormal:
		return "NORMAL"
	case ResponseLibraryException:
		return "LIBRARY_EXCEPTION"
	case ResponseServerException:
		return "SERVER_EXCEPTION"
	default:
		return fmt.Sprintf("RESPONSE_TYPE(%d)", int(kind))
	}
}

// MethodNumber is the packed class-id / method-id of an AMQP method.
type MethodNumber uint32

// Method numbers the library reports in server exceptions.
const (
	MethodConnectionClose MethodNumber = 0x000A0032
	MethodChannelClose    MethodNumber = 0x00140028
)

// ReplySuccess is the AMQP reply-success code, the code of a normal close.
const ReplySuccess = 200

// CloseReason is the decoded body of a connection.close or channel.close method.
type CloseReason struct {
	ReplyCode int
	ReplyText string
}

// Method is a decoded AMQP method.
type Method struct {
	ID      MethodNumber
	Decoded interface{}
}

// RPCReply is the three-way outcome of a request / response call.
type RPCReply struct {
	ReplyType    ResponseType
	Reply        Method
	LibraryError Status
}

// ReplyNormal builds a successful reply.
func ReplyNormal() RPCReply {
	return RPCReply{ReplyType: ResponseNormal}
}

// ReplyLibraryError builds a reply for a failure that happened inside the library.
func ReplyLibraryError(status Status) RPCReply {
	return RPCReply{ReplyType: ResponseLibraryException, LibraryError: status}
}

// ReplyServerClose builds a reply for a server-initiated close.
func ReplyServerClose(id MethodNumber, code int, text string) RPCReply {
	return RPCReply{
		ReplyType: ResponseServerException,
		Reply: Method{
			ID:      id,
			Decoded: CloseReason{ReplyCode: code, ReplyText: text},
		},
	}
}
