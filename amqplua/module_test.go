package amqplua

import (
	"testing"

	"github.com/peake100/lamqp-go/amqp"
	"github.com/peake100/lamqp-go/amqptest"
	"github.com/peake100/lamqp-go/native"
	"github.com/peake100/lamqp-go/native/nativetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

// newState returns a Lua state with the module preloaded over lib.
func newState(t *testing.T, lib native.Library) *lua.LState {
	L := lua.NewState()
	t.Cleanup(L.Close)

	binding := amqp.New(amqp.Config{Library: lib, Logger: zerolog.Nop()})
	Preload(L, binding)
	return L
}

func runScript(t *testing.T, L *lua.LState, script string) {
	err := L.DoString(script)
	if !assert.NoError(t, err, "run script") {
		t.FailNow()
	}
}

func TestModule_Version(t *testing.T) {
	assert := assert.New(t)
	L := newState(t, nativetest.New())

	runScript(t, L, `
		local amqp = require("amqp")
		number = amqp.version_number()
		text = amqp.version()
	`)

	assert.Equal(lua.LNumber(native.VersionNumber()), L.GetGlobal("number"))
	assert.Equal(lua.LString(native.Version()), L.GetGlobal("text"))
}

func TestModule_SocketIdentity(t *testing.T) {
	L := newState(t, nativetest.New())

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		local sock = conn:tcp_socket_new()
		created_same = conn:get_socket() == sock
		lookup_same = conn:get_socket() == conn:get_socket()

		local replacement = conn:ssl_socket_new()
		replaced = replacement ~= sock and conn:get_socket() == replacement
	`)

	assert.Equal(t, lua.LTrue, L.GetGlobal("created_same"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("lookup_same"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("replaced"))
}

func TestModule_NoSocket(t *testing.T) {
	L := newState(t, nativetest.New())

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		sock = conn:get_socket()
		fd = conn:get_sockfd()
		closed = conn:close()
	`)

	assert.Equal(t, lua.LNil, L.GetGlobal("sock"))
	assert.Equal(t, lua.LNil, L.GetGlobal("fd"))
	assert.Equal(t, lua.LFalse, L.GetGlobal("closed"), "close without socket")
}

func TestModule_DestroyTwice(t *testing.T) {
	assert := assert.New(t)
	lib := nativetest.New()
	L := newState(t, lib)

	err := L.DoString(`
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		first = conn:destroy()
		conn:destroy()
	`)

	assert.Equal(lua.LTrue, L.GetGlobal("first"))
	if assert.Error(err, "second destroy raises") {
		assert.Contains(err.Error(), "bad argument #1")
		assert.Contains(err.Error(), "invalid connection")
	}
	assert.Len(lib.Destroyed(), 1)
}

func TestModule_SocketAfterDestroy(t *testing.T) {
	L := newState(t, nativetest.New())

	err := L.DoString(`
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		local sock = conn:tcp_socket_new()
		conn:destroy()
		sock:open_noblock("localhost", 5672)
	`)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "invalid socket")
	}
}

func TestModule_OpenNoblock_Timeout(t *testing.T) {
	lib := nativetest.New()
	L := newState(t, lib)

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		local sock = conn:tcp_socket_new()
		with_timeout = sock:open_noblock("broker.local", 5672, 1.5)
		without_timeout = sock:open_noblock("broker.local", 5672)
		fd = conn:get_sockfd()
	`)

	assert.Equal(t, lua.LTrue, L.GetGlobal("with_timeout"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("without_timeout"))
	assert.Equal(t, lua.LNumber(3), L.GetGlobal("fd"))

	calls := lib.OpenCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, &native.Timeval{Sec: 1, Usec: 500000}, calls[0].Timeout)
	assert.Nil(t, calls[1].Timeout, "omitted timeout is no timeout")
}

func TestModule_OpenNoblock_NegativeTimeout(t *testing.T) {
	lib := nativetest.New()
	L := newState(t, lib)

	err := L.DoString(`
		local amqp = require("amqp")
		local sock = amqp.new_connection():tcp_socket_new()
		sock:open_noblock("localhost", 5672, -1)
	`)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "bad argument #4")
	}
	assert.Empty(t, lib.OpenCalls())
}

func TestModule_FailureTuple(t *testing.T) {
	assert := assert.New(t)
	lib := nativetest.New()
	lib.Script(func(script *nativetest.Script) {
		script.OpenStatus = native.StatusSocketError
		script.CloseReply = native.ReplyServerClose(native.MethodConnectionClose, 320, "forced")
	})
	L := newState(t, lib)

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		local sock = conn:tcp_socket_new()
		open_ok, open_msg, open_code = sock:open_noblock("localhost", 5672, 0)
		close_ok, close_msg, close_code = conn:close(320)
	`)

	assert.Equal(lua.LNil, L.GetGlobal("open_ok"))
	assert.Equal(lua.LString("a socket error occurred"), L.GetGlobal("open_msg"))
	assert.Equal(lua.LNumber(native.StatusSocketError), L.GetGlobal("open_code"))

	assert.Equal(lua.LNil, L.GetGlobal("close_ok"))
	assert.Equal(lua.LString("server exception"), L.GetGlobal("close_msg"))
	assert.Equal(lua.LNumber(native.MethodConnectionClose), L.GetGlobal("close_code"))

	calls := lib.CloseCalls()
	require.Len(t, calls, 1)
	assert.Equal(320, calls[0].Code)
}

func TestModule_Login(t *testing.T) {
	lib := nativetest.New()
	L := newState(t, lib)

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		default_ok = conn:login()
		custom_ok = conn:login({vhost = "orders", user = "app", heartbeat = 10})
	`)

	assert.Equal(t, lua.LTrue, L.GetGlobal("default_ok"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("custom_ok"))

	calls := lib.LoginCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, native.LoginParams{Vhost: "/", User: "guest", Password: "guest"}, calls[0])
	assert.Equal(
		t,
		native.LoginParams{Vhost: "orders", User: "app", Password: "guest", Heartbeat: 10},
		calls[1],
	)
}

func TestModule_OutOfMemory(t *testing.T) {
	lib := nativetest.New()
	lib.Script(func(script *nativetest.Script) {
		script.FailAllocation = true
	})
	L := newState(t, lib)

	err := L.DoString(`require("amqp").new_connection()`)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "no memory")
	}
}

func TestModule_WrongReceiver(t *testing.T) {
	L := newState(t, nativetest.New())

	err := L.DoString(`
		local amqp = require("amqp")
		local sock = amqp.new_connection():tcp_socket_new()
		local conn_methods = getmetatable(amqp.new_connection()).__index
		conn_methods.destroy(sock)
	`)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "amqp.connection expected")
	}
}

func TestModule_ClosedPort(t *testing.T) {
	client := native.NewClient(native.DefaultConfig())
	t.Cleanup(func() { _ = client.Close() })
	L := newState(t, client)

	port := amqptest.ClosedPort(t)
	L.SetGlobal("port", lua.LNumber(port))

	runScript(t, L, `
		local amqp = require("amqp")
		local conn = amqp.new_connection()
		local sock = conn:tcp_socket_new()
		ok, msg, code = sock:open_noblock("127.0.0.1", port, 0.25)
		destroyed = conn:destroy()
	`)

	assert.Equal(t, lua.LNil, L.GetGlobal("ok"))
	assert.NotEqual(t, lua.LNil, L.GetGlobal("msg"))
	assert.NotEqual(t, lua.LNumber(0), L.GetGlobal("code"))
	assert.Equal(t, lua.LTrue, L.GetGlobal("destroyed"))
}

func TestModule_CloseDefaultCode(t *testing.T) {
	lib := nativetest.New()
	L := newState(t, lib)

	runScript(t, L, `
		local conn = require("amqp").new_connection()
		conn:tcp_socket_new()
		closed = conn:close()
	`)

	assert.Equal(t, lua.LTrue, L.GetGlobal("closed"))
	calls := lib.CloseCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 200, calls[0].Code, "reply-success by default")
}
