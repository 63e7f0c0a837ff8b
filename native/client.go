package native

import (
	"net"
	"sync"

	"github.com/rs/zerolog"
	streadway "github.com/streadway/amqp"
)

// connection is the state behind a ConnectionState handle.
type connection struct {
	handle ConnectionState
	// socket is the currently attached socket, if any.
	socket *socket
	// session is the AMQP session established by Login.
	session *streadway.Connection
}

// socket is the state behind a SocketPtr handle.
type socket struct {
	handle SocketPtr
	secure bool
	// netConn is non-nil once the socket has been opened.
	netConn net.Conn
	// opening is set while a dial is in flight for this socket.
	opening bool
	// released is set once the socket has been detached from its connection. A dial
	// that completes after release closes its result instead of attaching it.
	released bool
}

// Client is an in-process Library. Handles are allocated from a single counter and
// are never reused, so a stale handle can never alias a live resource.
type Client struct {
	config Config

	lock        sync.Mutex
	lastHandle  uintptr
	connections map[ConnectionState]*connection
	sockets     map[SocketPtr]*socket
	closed      bool

	logger zerolog.Logger
}

var _ Library = (*Client)(nil)

// NewClient returns a Client configured with config.
func NewClient(config Config) *Client {
	return &Client{
		config:      config,
		connections: make(map[ConnectionState]*connection),
		sockets:     make(map[SocketPtr]*socket),
		logger:      config.Logger.With().Str("COMPONENT", "NATIVE").Logger(),
	}
}

// VersionNumber implements Library.
func (client *Client) VersionNumber() uint32 {
	return VersionNumber()
}

// Version implements Library.
func (client *Client) Version() string {
	return Version()
}

// ErrorString implements Library.
func (client *Client) ErrorString(status Status) string {
	return ErrorString(status)
}

// nextHandle must be called with the lock held.
func (client *Client) nextHandle() uintptr {
	client.lastHandle++
	return client.lastHandle
}

// NewConnection implements Library.
func (client *Client) NewConnection() ConnectionState {
	client.lock.Lock()
	defer client.lock.Unlock()

	if client.closed {
		return 0
	}

	limit := client.config.MaxConnections
	if limit > 0 && len(client.connections) >= limit {
		client.logger.Warn().
			Int("MAX_CONNECTIONS", limit).
			Msg("connection allocation refused")
		return 0
	}

	conn := &connection{handle: ConnectionState(client.nextHandle())}
	client.connections[conn.handle] = conn

	if client.logger.Debug().Enabled() {
		client.logger.Debug().
			Uint64("CONNECTION", uint64(conn.handle)).
			Msg("connection allocated")
	}
	return conn.handle
}

// DestroyConnection implements Library. The AMQP session, if any, is not closed
// gracefully: the socket is torn down and the broker sees a dropped connection.
func (client *Client) DestroyConnection(handle ConnectionState) Status {
	client.lock.Lock()
	defer client.lock.Unlock()

	conn, ok := client.connections[handle]
	if !ok {
		return StatusInvalidParameter
	}

	delete(client.connections, handle)
	client.releaseSocket(conn)

	if client.logger.Debug().Enabled() {
		client.logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Msg("connection destroyed")
	}
	return StatusOK
}

// releaseSocket detaches and closes the socket attached to conn. Must be called with
// the lock held.
func (client *Client) releaseSocket(conn *connection) {
	sock := conn.socket
	if sock == nil {
		return
	}

	conn.socket = nil
	conn.session = nil
	sock.released = true
	delete(client.sockets, sock.handle)

	if sock.netConn != nil {
		// Closing the transport also stops the reader of any AMQP session on it.
		if err := sock.netConn.Close(); err != nil {
			client.logger.Debug().Err(err).Msg("error closing released socket")
		}
		sock.netConn = nil
	}
}

func (client *Client) newSocket(handle ConnectionState, secure bool) SocketPtr {
	client.lock.Lock()
	defer client.lock.Unlock()

	conn, ok := client.connections[handle]
	if !ok {
		return 0
	}

	client.releaseSocket(conn)

	sock := &socket{
		handle: SocketPtr(client.nextHandle()),
		secure: secure,
	}
	client.sockets[sock.handle] = sock
	conn.socket = sock

	if client.logger.Debug().Enabled() {
		client.logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Uint64("SOCKET", uint64(sock.handle)).
			Bool("TLS", secure).
			Msg("socket attached")
	}
	return sock.handle
}

// TCPSocketNew implements Library.
func (client *Client) TCPSocketNew(conn ConnectionState) SocketPtr {
	return client.newSocket(conn, false)
}

// SSLSocketNew implements Library.
func (client *Client) SSLSocketNew(conn ConnectionState) SocketPtr {
	return client.newSocket(conn, true)
}

// GetSocket implements Library.
func (client *Client) GetSocket(handle ConnectionState) SocketPtr {
	client.lock.Lock()
	defer client.lock.Unlock()

	conn, ok := client.connections[handle]
	if !ok || conn.socket == nil {
		return 0
	}
	return conn.socket.handle
}

// GetSockfd implements Library.
func (client *Client) GetSockfd(handle ConnectionState) int {
	client.lock.Lock()
	defer client.lock.Unlock()

	conn, ok := client.connections[handle]
	if !ok || conn.socket == nil || conn.socket.netConn == nil {
		return -1
	}
	return descriptor(conn.socket.netConn)
}

// Close destroys every live connection and makes NewConnection return NULL from then
// on.
func (client *Client) Close() error {
	client.lock.Lock()
	defer client.lock.Unlock()

	if client.closed {
		return nil
	}
	client.closed = true

	for handle, conn := range client.connections {
		client.releaseSocket(conn)
		delete(client.connections, handle)
	}
	return nil
}
