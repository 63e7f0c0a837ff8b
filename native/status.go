package native

// Status mirrors the status enum returned by library calls. StatusOK is the only
// success value; every other value is an error with a fixed description available from
// ErrorString.
type Status int

const (
	StatusOK                          Status = 0
	StatusNoMemory                    Status = -0x0001
	StatusBadAMQPData                 Status = -0x0002
	StatusUnknownClass                Status = -0x0003
	StatusUnknownMethod               Status = -0x0004
	StatusHostnameResolutionFailed    Status = -0x0005
	StatusIncompatibleAMQPVersion     Status = -0x0006
	StatusConnectionClosed            Status = -0x0007
	StatusBadURL                      Status = -0x0008
	StatusSocketError                 Status = -0x0009
	StatusInvalidParameter            Status = -0x000A
	StatusTableTooBig                 Status = -0x000B
	StatusWrongMethod                 Status = -0x000C
	StatusTimeout                     Status = -0x000D
	StatusTimerFailure                Status = -0x000E
	StatusHeartbeatTimeout            Status = -0x000F
	StatusUnexpectedState             Status = -0x0010
	StatusSocketClosed                Status = -0x0011
	StatusSocketInUse                 Status = -0x0012
	StatusBrokerUnsupportedSASLMethod Status = -0x0013
	StatusUnsupported                 Status = -0x0014

	StatusTCPError                Status = -0x0100
	StatusTCPSocketLibInitError   Status = -0x0101
	StatusSSLError                Status = -0x0200
	StatusSSLHostnameVerifyFailed Status = -0x0201
	StatusSSLPeerVerifyFailed     Status = -0x0202
	StatusSSLConnectionFailed     Status = -0x0203
)

const unknownErrorString = "(unknown error)"

var baseErrorStrings = map[Status]string{
	StatusOK:                          "operation completed successfully",
	StatusNoMemory:                    "could not allocate memory",
	StatusBadAMQPData:                 "invalid AMQP data",
	StatusUnknownClass:                "unknown AMQP class id",
	StatusUnknownMethod:               "unknown AMQP method id",
	StatusHostnameResolutionFailed:    "hostname lookup failed",
	StatusIncompatibleAMQPVersion:     "incompatible AMQP version",
	StatusConnectionClosed:            "connection closed unexpectedly",
	StatusBadURL:                      "could not parse AMQP URL",
	StatusSocketError:                 "a socket error occurred",
	StatusInvalidParameter:            "invalid parameter",
	StatusTableTooBig:                 "table too large for buffer",
	StatusWrongMethod:                 "unexpected method received",
	StatusTimeout:                     "request timed out",
	StatusTimerFailure:                "system timer has failed",
	StatusHeartbeatTimeout:            "heartbeat timeout, connection closed",
	StatusUnexpectedState:             "unexpected protocol state",
	StatusSocketClosed:                "socket is closed",
	StatusSocketInUse:                 "socket already open",
	StatusBrokerUnsupportedSASLMethod: "broker does not support the requested SASL mechanism",
	StatusUnsupported:                 "parameter is unsupported in this version",
}

var tcpErrorStrings = map[Status]string{
	StatusTCPError:              "a socket error occurred",
	StatusTCPSocketLibInitError: "socket library initialization failed",
}

var sslErrorStrings = map[Status]string{
	StatusSSLError:                "a SSL error occurred",
	StatusSSLHostnameVerifyFailed: "SSL hostname verification failed",
	StatusSSLPeerVerifyFailed:     "SSL peer cert verification failed",
	StatusSSLConnectionFailed:     "SSL handshake failed",
}

// ErrorString returns the library's description of status. Unknown values yield
// "(unknown error)" rather than an empty string.
func ErrorString(status Status) string {
	var table map[Status]string

	// The high byte of the magnitude selects the error category.
	switch (-status) & 0xFF00 {
	case 0:
		table = baseErrorStrings
	case 0x0100:
		table = tcpErrorStrings
	case 0x0200:
		table = sslErrorStrings
	default:
		return unknownErrorString
	}

	if text, ok := table[status]; ok {
		return text
	}
	return unknownErrorString
}

// String implements fmt.Stringer.
func (status Status) String() string {
	return ErrorString(status)
}
