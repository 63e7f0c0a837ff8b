/*
Package amqplua exposes an amqp.Binding to Lua scripts run by github.com/yuin/gopher-lua.

After Preload, scripts load the binding with require("amqp"):

	local amqp = require("amqp")
	local conn = amqp.new_connection()
	local sock = conn:tcp_socket_new()
	local ok, err, code = sock:open_noblock("localhost", 5672, 0.25)

Fallible calls return true on success and nil, message, code on failure. Misuse, such
as calling a method on a destroyed connection, raises a Lua error.

conn:close(code) defaults code to 200, the AMQP reply-success code. The bundled
native.Client closes sessions through github.com/streadway/amqp, which always sends
200: any other code is logged as a warning and not passed on to the broker.

gopher-lua has no __gc metamethod. Connections are destroyed by the Go runtime once
their userdata is unreachable, or explicitly with conn:destroy().
*/
package amqplua

import (
	"errors"

	"github.com/peake100/lamqp-go/amqp"
	"github.com/peake100/lamqp-go/internal/identity"
	lua "github.com/yuin/gopher-lua"
)

const (
	// ModuleName is the name scripts require.
	ModuleName = "amqp"

	connectionTypeName = "amqp.connection"
	socketTypeName     = "amqp.socket"
)

// module is the per-state half of the binding. It keeps its own identity cache so
// that a socket is also represented by a single userdata.
type module struct {
	binding *amqp.Binding
	sockets *identity.Cache[*amqp.Socket, lua.LUserData]
}

// Loader returns the module loader for binding. Each Lua state that loads the module
// gets its own socket userdata cache.
func Loader(binding *amqp.Binding) lua.LGFunction {
	return func(L *lua.LState) int {
		mod := &module{
			binding: binding,
			sockets: identity.New[*amqp.Socket, lua.LUserData](),
		}
		mod.registerTypes(L)

		table := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"version_number": mod.versionNumber,
			"version":        mod.version,
			"new_connection": mod.newConnection,
		})
		L.Push(table)
		return 1
	}
}

// Preload makes require("amqp") load binding in L.
func Preload(L *lua.LState, binding *amqp.Binding) {
	L.PreloadModule(ModuleName, Loader(binding))
}

func (mod *module) registerTypes(L *lua.LState) {
	connMeta := L.NewTypeMetatable(connectionTypeName)
	L.SetField(connMeta, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"tcp_socket_new": mod.tcpSocketNew,
		"ssl_socket_new": mod.sslSocketNew,
		"get_socket":     mod.getSocket,
		"get_sockfd":     mod.getSockfd,
		"close":          mod.close,
		"destroy":        mod.destroy,
		"login":          mod.login,
	}))
	L.SetField(connMeta, "__tostring", L.NewFunction(typeToString(connectionTypeName)))

	sockMeta := L.NewTypeMetatable(socketTypeName)
	L.SetField(sockMeta, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"open_noblock": mod.openNoblock,
	}))
	L.SetField(sockMeta, "__tostring", L.NewFunction(typeToString(socketTypeName)))
}

func (mod *module) versionNumber(L *lua.LState) int {
	L.Push(lua.LNumber(mod.binding.VersionNumber()))
	return 1
}

func (mod *module) version(L *lua.LState) int {
	L.Push(lua.LString(mod.binding.VersionString()))
	return 1
}

func (mod *module) newConnection(L *lua.LState) int {
	conn, err := mod.binding.NewConnection()
	if err != nil {
		raise(L, err)
		return 0
	}

	ud := L.NewUserData()
	ud.Value = conn
	L.SetMetatable(ud, L.GetTypeMetatable(connectionTypeName))
	L.Push(ud)
	return 1
}

// raise converts a binding error into a Lua error. Argument errors keep their
// position so the message reads like any other bad-argument error.
func raise(L *lua.LState, err error) {
	var argErr *amqp.ArgumentError
	if errors.As(err, &argErr) {
		L.ArgError(argErr.Position, argErr.Reason)
		return
	}
	L.RaiseError("%s", err.Error())
}

// pushResult pushes the host tuple of result and returns how many values it pushed.
func pushResult(L *lua.LState, result amqp.Result) int {
	values := result.Values()
	for _, value := range values {
		switch value := value.(type) {
		case nil:
			L.Push(lua.LNil)
		case bool:
			L.Push(lua.LBool(value))
		case string:
			L.Push(lua.LString(value))
		case int:
			L.Push(lua.LNumber(value))
		default:
			L.RaiseError("unsupported result value %T", value)
		}
	}
	return len(values)
}
