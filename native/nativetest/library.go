// Package nativetest provides a scriptable in-memory native.Library for testing code
// that sits on top of the native package.
package nativetest

import (
	"sync"

	"github.com/peake100/lamqp-go/native"
)

// Script holds the results the fake Library hands back. Zero-valued statuses are
// native.StatusOK.
type Script struct {
	// FailAllocation makes NewConnection return NULL.
	FailAllocation bool
	// FailSocket makes TCPSocketNew and SSLSocketNew return NULL.
	FailSocket bool

	DestroyStatus native.Status
	OpenStatus    native.Status
	LoginReply    native.RPCReply
	CloseReply    native.RPCReply

	// Sockfd is reported by GetSockfd once a socket has been opened.
	Sockfd int

	// FixedSocket, when non-zero, is the pointer of every new socket, as from a
	// library that hands freed memory straight back out.
	FixedSocket native.SocketPtr
}

// OpenCall records the arguments of one SocketOpenNoblock call.
type OpenCall struct {
	Socket native.SocketPtr
	Host   string
	Port   int
	// Timeout is a copy of the forwarded timeout, nil when none was forwarded.
	Timeout *native.Timeval
}

// CloseCall records the arguments of one ConnectionClose call.
type CloseCall struct {
	Connection native.ConnectionState
	Code       int
}

type fakeConn struct {
	socket native.SocketPtr
	secure bool
	open   bool
}

// Library is a native.Library that keeps all state in memory and records every call.
// It is safe for concurrent use, as connection cleanups run on their own goroutine.
type Library struct {
	lock   sync.Mutex
	script Script

	lastHandle uintptr
	conns      map[native.ConnectionState]*fakeConn

	destroyed  []native.ConnectionState
	openCalls  []OpenCall
	closeCalls []CloseCall
	loginCalls []native.LoginParams
}

var _ native.Library = (*Library)(nil)

// New returns a Library whose calls all succeed.
func New() *Library {
	return &Library{
		script: Script{
			LoginReply: native.ReplyNormal(),
			CloseReply: native.ReplyNormal(),
			Sockfd:     3,
		},
		conns: make(map[native.ConnectionState]*fakeConn),
	}
}

// Script lets edit change the scripted results.
func (lib *Library) Script(edit func(script *Script)) {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	edit(&lib.script)
}

// VersionNumber implements native.Library.
func (lib *Library) VersionNumber() uint32 { return native.VersionNumber() }

// Version implements native.Library.
func (lib *Library) Version() string { return native.Version() }

// ErrorString implements native.Library.
func (lib *Library) ErrorString(status native.Status) string {
	return native.ErrorString(status)
}

// NewConnection implements native.Library.
func (lib *Library) NewConnection() native.ConnectionState {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	if lib.script.FailAllocation {
		return 0
	}
	lib.lastHandle++
	handle := native.ConnectionState(lib.lastHandle)
	lib.conns[handle] = new(fakeConn)
	return handle
}

// DestroyConnection implements native.Library.
func (lib *Library) DestroyConnection(conn native.ConnectionState) native.Status {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	lib.destroyed = append(lib.destroyed, conn)
	if _, ok := lib.conns[conn]; !ok {
		return native.StatusInvalidParameter
	}
	delete(lib.conns, conn)
	return lib.script.DestroyStatus
}

func (lib *Library) newSocket(conn native.ConnectionState, secure bool) native.SocketPtr {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	state, ok := lib.conns[conn]
	if !ok || lib.script.FailSocket {
		return 0
	}
	if lib.script.FixedSocket != 0 {
		state.socket = lib.script.FixedSocket
	} else {
		lib.lastHandle++
		state.socket = native.SocketPtr(lib.lastHandle)
	}
	state.secure = secure
	state.open = false
	return state.socket
}

// TCPSocketNew implements native.Library.
func (lib *Library) TCPSocketNew(conn native.ConnectionState) native.SocketPtr {
	return lib.newSocket(conn, false)
}

// SSLSocketNew implements native.Library.
func (lib *Library) SSLSocketNew(conn native.ConnectionState) native.SocketPtr {
	return lib.newSocket(conn, true)
}

// GetSocket implements native.Library.
func (lib *Library) GetSocket(conn native.ConnectionState) native.SocketPtr {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	if state, ok := lib.conns[conn]; ok {
		return state.socket
	}
	return 0
}

// GetSockfd implements native.Library.
func (lib *Library) GetSockfd(conn native.ConnectionState) int {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	if state, ok := lib.conns[conn]; ok && state.open {
		return lib.script.Sockfd
	}
	return -1
}

// SocketOpenNoblock implements native.Library.
func (lib *Library) SocketOpenNoblock(
	sock native.SocketPtr, host string, port int, timeout *native.Timeval,
) native.Status {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	call := OpenCall{Socket: sock, Host: host, Port: port}
	if timeout != nil {
		copied := *timeout
		call.Timeout = &copied
	}
	lib.openCalls = append(lib.openCalls, call)

	for _, state := range lib.conns {
		if state.socket != sock {
			continue
		}
		if lib.script.OpenStatus == native.StatusOK {
			state.open = true
		}
		return lib.script.OpenStatus
	}
	return native.StatusInvalidParameter
}

// Login implements native.Library.
func (lib *Library) Login(
	conn native.ConnectionState, params native.LoginParams,
) native.RPCReply {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	lib.loginCalls = append(lib.loginCalls, params)
	return lib.script.LoginReply
}

// ConnectionClose implements native.Library.
func (lib *Library) ConnectionClose(conn native.ConnectionState, code int) native.RPCReply {
	lib.lock.Lock()
	defer lib.lock.Unlock()

	lib.closeCalls = append(lib.closeCalls, CloseCall{Connection: conn, Code: code})
	return lib.script.CloseReply
}

// Destroyed returns every handle passed to DestroyConnection, in call order.
func (lib *Library) Destroyed() []native.ConnectionState {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	return append([]native.ConnectionState(nil), lib.destroyed...)
}

// OpenCalls returns every SocketOpenNoblock call, in call order.
func (lib *Library) OpenCalls() []OpenCall {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	return append([]OpenCall(nil), lib.openCalls...)
}

// CloseCalls returns every ConnectionClose call, in call order.
func (lib *Library) CloseCalls() []CloseCall {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	return append([]CloseCall(nil), lib.closeCalls...)
}

// LoginCalls returns the parameters of every Login call, in call order.
func (lib *Library) LoginCalls() []native.LoginParams {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	return append([]native.LoginParams(nil), lib.loginCalls...)
}

// LiveConnections returns the number of connections not yet destroyed.
func (lib *Library) LiveConnections() int {
	lib.lock.Lock()
	defer lib.lock.Unlock()
	return len(lib.conns)
}
