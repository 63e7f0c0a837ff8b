package amqp

import (
	"runtime"

	"github.com/peake100/lamqp-go/internal/identity"
	"github.com/peake100/lamqp-go/native"
	"github.com/rs/zerolog"
)

// Binding is the entry point to a native AMQP library. It owns the socket identity
// cache, so every Socket handed out by connections created through the same Binding
// is canonical for its native socket.
type Binding struct {
	lib     native.Library
	sockets *identity.Cache[native.SocketPtr, Socket]
	logger  zerolog.Logger
}

// New returns a Binding for config. A nil config.Library is replaced by a
// native.Client with default settings.
func New(config Config) *Binding {
	lib := config.Library
	if lib == nil {
		lib = native.NewClient(native.DefaultConfig())
	}

	return &Binding{
		lib:     lib,
		sockets: identity.New[native.SocketPtr, Socket](),
		logger:  config.Logger.With().Str("COMPONENT", componentBinding).Logger(),
	}
}

// VersionNumber returns the packed version of the native library.
func (binding *Binding) VersionNumber() uint32 {
	return binding.lib.VersionNumber()
}

// VersionString returns the version of the native library as text.
func (binding *Binding) VersionString() string {
	return binding.lib.Version()
}

// NewConnection allocates a native connection. The connection is destroyed when
// Destroy is called or, failing that, once the returned *Connection is garbage
// collected.
func (binding *Binding) NewConnection() (*Connection, error) {
	handle := binding.lib.NewConnection()
	if handle == 0 {
		return nil, ErrOutOfMemory
	}

	cell := &handleCell{handle: handle}
	conn := &Connection{binding: binding, cell: cell}
	conn.cleanup = runtime.AddCleanup(
		conn, finalizeConnection, finalizer{binding: binding, cell: cell},
	)

	if binding.logger.Debug().Enabled() {
		binding.logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Msg("connection created")
	}
	return conn, nil
}

// canonicalSocket returns the one Socket wrapper for handle, creating it if no live
// wrapper exists. A live wrapper owned by another connection is stale: the library
// has reused the pointer of a destroyed connection's socket, so the entry is rebound.
func (binding *Binding) canonicalSocket(handle native.SocketPtr, owner *handleCell) *Socket {
	if stale := binding.sockets.Get(handle); stale != nil && stale.owner != owner {
		binding.sockets.Forget(handle)
		if binding.logger.Debug().Enabled() {
			binding.logger.Debug().
				Uint64("SOCKET", uint64(handle)).
				Msg("reused socket pointer, stale wrapper dropped")
		}
	}

	sock, created := binding.sockets.GetOrCreate(handle, func() *Socket {
		return &Socket{binding: binding, handle: handle, owner: owner}
	})

	if binding.logger.Debug().Enabled() {
		binding.logger.Debug().
			Uint64("SOCKET", uint64(handle)).
			Bool("CACHE_HIT", !created).
			Msg("socket wrapper resolved")
	}
	return sock
}
