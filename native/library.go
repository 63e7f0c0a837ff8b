package native

import "fmt"

// ConnectionState is an opaque connection handle. The zero value is NULL.
type ConnectionState uintptr

// SocketPtr is an opaque socket handle. Sockets belong to the connection they were
// created on and are released when it is destroyed. The zero value is NULL.
type SocketPtr uintptr

// Timeval is a timeout split into whole seconds and a microsecond remainder. A nil
// *Timeval passed to a library call means "block without a timeout".
type Timeval struct {
	Sec  int64
	Usec int64
}

// Version of this library. VersionNumber packs it as major<<24 | minor<<16 |
// patch<<8 | release, where release is 1 for tagged builds.
const (
	VersionMajor   = 0
	VersionMinor   = 4
	VersionPatch   = 0
	VersionRelease = 1
)

// VersionNumber returns the packed library version.
func VersionNumber() uint32 {
	return VersionMajor<<24 | VersionMinor<<16 | VersionPatch<<8 | VersionRelease
}

// Version returns the library version as text.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if VersionRelease == 0 {
		version += "-pre"
	}
	return version
}

// LoginParams holds the arguments of Library.Login.
type LoginParams struct {
	Vhost     string
	User      string
	Password  string
	FrameMax  int
	Heartbeat int
}

// Library is the call surface of the native AMQP client. Every method is
// synchronous and may block for the duration of the call.
//
// Handles are never validated by the caller's type system: passing a NULL or stale
// handle yields StatusInvalidParameter (or a NULL result for constructors) instead of
// undefined behaviour.
type Library interface {
	VersionNumber() uint32
	Version() string
	ErrorString(status Status) string

	// NewConnection allocates a connection. Returns NULL when no more connections can
	// be allocated.
	NewConnection() ConnectionState
	// DestroyConnection releases conn together with any socket attached to it.
	DestroyConnection(conn ConnectionState) Status

	// TCPSocketNew creates a plain socket and attaches it to conn, replacing and
	// closing any socket that was attached before. Returns NULL on failure.
	TCPSocketNew(conn ConnectionState) SocketPtr
	// SSLSocketNew is TCPSocketNew for a TLS socket.
	SSLSocketNew(conn ConnectionState) SocketPtr
	// GetSocket returns the socket attached to conn, or NULL.
	GetSocket(conn ConnectionState) SocketPtr
	// GetSockfd returns the file descriptor of conn's open socket, or -1.
	GetSockfd(conn ConnectionState) int

	// SocketOpenNoblock connects sock to host:port. A nil timeout blocks until the
	// operating system gives up.
	SocketOpenNoblock(sock SocketPtr, host string, port int, timeout *Timeval) Status

	// Login runs the AMQP handshake on conn's open socket.
	Login(conn ConnectionState, params LoginParams) RPCReply
	// ConnectionClose closes the AMQP session on conn with the given reply code.
	ConnectionClose(conn ConnectionState, code int) RPCReply
}
