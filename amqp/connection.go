package amqp

import (
	"runtime"
	"sync"

	"github.com/peake100/lamqp-go/native"
)

// handleCell holds a connection's native handle. It is shared by the Connection, its
// sockets and its cleanup, and is the single place a handle is invalidated. It must
// not reference the Connection, or the cleanup would keep it alive.
type handleCell struct {
	lock   sync.Mutex
	handle native.ConnectionState
}

// get returns the native handle, or 0 once invalidated.
func (cell *handleCell) get() native.ConnectionState {
	cell.lock.Lock()
	defer cell.lock.Unlock()
	return cell.handle
}

// destroy forwards to the native destroy and then invalidates the handle regardless
// of the status. Returns false without calling the library if the handle is already
// invalid.
func (cell *handleCell) destroy(lib native.Library) (status native.Status, ok bool) {
	cell.lock.Lock()
	defer cell.lock.Unlock()

	if cell.handle == 0 {
		return 0, false
	}

	status = lib.DestroyConnection(cell.handle)
	cell.handle = 0
	return status, true
}

// finalizer is the argument of a connection's cleanup.
type finalizer struct {
	binding *Binding
	cell    *handleCell
}

// finalizeConnection runs when a Connection becomes unreachable.
func finalizeConnection(final finalizer) {
	handle := final.cell.get()
	status, ok := final.cell.destroy(final.binding.lib)
	if !ok {
		return
	}

	logger := final.binding.logger
	if status != native.StatusOK {
		logger.Warn().
			Uint64("CONNECTION", uint64(handle)).
			Str("STATUS", final.binding.lib.ErrorString(status)).
			Msg("error destroying collected connection")
		return
	}

	if logger.Debug().Enabled() {
		logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Msg("collected connection destroyed")
	}
}

// Connection owns one native connection.
//
// Lifecycle: a connection is created, gets a socket attached with NewTCPSocket or
// NewTLSSocket, is opened through that socket, and is finally closed and destroyed.
// Destroy may be called in any state; Close does not release the native resource.
type Connection struct {
	binding *Binding
	cell    *handleCell
	cleanup runtime.Cleanup
}

// validate returns the live native handle, or an invalid-connection error naming
// funcName. Callers that go on to pass the handle to the library must keep conn alive
// until the call returns, or its cleanup may destroy the handle mid-call.
func (conn *Connection) validate(funcName string) (native.ConnectionState, error) {
	handle := conn.cell.get()
	if handle == 0 {
		return 0, invalidConnection(funcName)
	}
	return handle, nil
}

// Destroy releases the native connection and every socket attached to it. The
// connection is invalid afterwards even if the library reports a failure; calling
// Destroy again returns an ErrInvalidHandle error.
func (conn *Connection) Destroy() (Result, error) {
	handle, err := conn.validate("destroy")
	if err != nil {
		return Result{}, err
	}
	defer runtime.KeepAlive(conn)

	status, ok := conn.cell.destroy(conn.binding.lib)
	if !ok {
		return Result{}, invalidConnection("destroy")
	}
	conn.cleanup.Stop()

	if conn.binding.logger.Debug().Enabled() {
		conn.binding.logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Int("STATUS", int(status)).
			Msg("connection destroyed")
	}
	return fromStatus(conn.binding.lib, status), nil
}

// NewTCPSocket attaches a new plain socket to the connection. A nil socket with a nil
// error means the library declined to create one.
func (conn *Connection) NewTCPSocket() (*Socket, error) {
	handle, err := conn.validate("tcp_socket_new")
	if err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(conn)
	return conn.attached(conn.binding.lib.TCPSocketNew(handle)), nil
}

// NewTLSSocket attaches a new TLS socket to the connection. A nil socket with a nil
// error means the library declined to create one.
func (conn *Connection) NewTLSSocket() (*Socket, error) {
	handle, err := conn.validate("ssl_socket_new")
	if err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(conn)
	return conn.attached(conn.binding.lib.SSLSocketNew(handle)), nil
}

// Socket returns the socket attached to the connection, or nil if there is none. The
// returned wrapper is the same object NewTCPSocket or NewTLSSocket returned for as
// long as the caller holds on to it.
func (conn *Connection) Socket() (*Socket, error) {
	handle, err := conn.validate("get_socket")
	if err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(conn)
	return conn.attached(conn.binding.lib.GetSocket(handle)), nil
}

func (conn *Connection) attached(handle native.SocketPtr) *Socket {
	if handle == 0 {
		return nil
	}
	return conn.binding.canonicalSocket(handle, conn.cell)
}

// SocketDescriptor returns the operating system descriptor of the connection's open
// socket. ok is false when no socket is open.
func (conn *Connection) SocketDescriptor() (fd int, ok bool, err error) {
	handle, err := conn.validate("get_sockfd")
	if err != nil {
		return 0, false, err
	}
	defer runtime.KeepAlive(conn)

	fd = conn.binding.lib.GetSockfd(handle)
	if fd == -1 {
		return 0, false, nil
	}
	return fd, true, nil
}

// Close closes the AMQP connection with ReplySuccess. See CloseWithCode.
func (conn *Connection) Close() (Result, error) {
	return conn.CloseWithCode(ReplySuccess)
}

// CloseWithCode closes the AMQP connection with the given reply code. A connection
// with no socket attached is not closed and yields an OutcomeNotApplicable result.
// The native connection stays allocated until Destroy.
func (conn *Connection) CloseWithCode(code int) (Result, error) {
	handle, err := conn.validate("close")
	if err != nil {
		return Result{}, err
	}
	defer runtime.KeepAlive(conn)

	// The native close path faults on a connection that never had a socket.
	if conn.binding.lib.GetSocket(handle) == 0 {
		return Result{Outcome: OutcomeNotApplicable}, nil
	}

	return fromReply(conn.binding.lib, conn.binding.lib.ConnectionClose(handle, code))
}

// LoginOptions holds the parameters of Connection.Login.
type LoginOptions struct {
	Vhost    string
	User     string
	Password string
	// FrameMax is the largest frame size to negotiate. 0 leaves it to the broker.
	FrameMax int
	// Heartbeat is the heartbeat interval in seconds. 0 uses the library default.
	Heartbeat int
}

// DefaultLoginOptions returns the broker's stock credentials on the default vhost.
func DefaultLoginOptions() LoginOptions {
	return LoginOptions{
		Vhost:    "/",
		User:     "guest",
		Password: "guest",
	}
}

// Login runs the AMQP handshake over the connection's open socket.
func (conn *Connection) Login(opts LoginOptions) (Result, error) {
	handle, err := conn.validate("login")
	if err != nil {
		return Result{}, err
	}
	defer runtime.KeepAlive(conn)

	reply := conn.binding.lib.Login(handle, native.LoginParams{
		Vhost:     opts.Vhost,
		User:      opts.User,
		Password:  opts.Password,
		FrameMax:  opts.FrameMax,
		Heartbeat: opts.Heartbeat,
	})
	return fromReply(conn.binding.lib, reply)
}
