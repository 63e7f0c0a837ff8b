package amqplua

import (
	"fmt"

	"github.com/peake100/lamqp-go/amqp"
	lua "github.com/yuin/gopher-lua"
)

func typeToString(typeName string) lua.LGFunction {
	return func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		L.Push(lua.LString(fmt.Sprintf("%s: %p", typeName, ud)))
		return 1
	}
}

func checkConnection(L *lua.LState, n int) *amqp.Connection {
	ud := L.CheckUserData(n)
	if conn, ok := ud.Value.(*amqp.Connection); ok {
		return conn
	}
	L.ArgError(n, connectionTypeName+" expected")
	return nil
}

// pushSocket pushes the one userdata that represents sock in this state, or nil.
func (mod *module) pushSocket(L *lua.LState, sock *amqp.Socket) int {
	if sock == nil {
		L.Push(lua.LNil)
		return 1
	}

	ud, _ := mod.sockets.GetOrCreate(sock, func() *lua.LUserData {
		ud := L.NewUserData()
		ud.Value = sock
		L.SetMetatable(ud, L.GetTypeMetatable(socketTypeName))
		return ud
	})
	L.Push(ud)
	return 1
}

func (mod *module) tcpSocketNew(L *lua.LState) int {
	sock, err := checkConnection(L, 1).NewTCPSocket()
	if err != nil {
		raise(L, err)
		return 0
	}
	return mod.pushSocket(L, sock)
}

func (mod *module) sslSocketNew(L *lua.LState) int {
	sock, err := checkConnection(L, 1).NewTLSSocket()
	if err != nil {
		raise(L, err)
		return 0
	}
	return mod.pushSocket(L, sock)
}

func (mod *module) getSocket(L *lua.LState) int {
	sock, err := checkConnection(L, 1).Socket()
	if err != nil {
		raise(L, err)
		return 0
	}
	return mod.pushSocket(L, sock)
}

func (mod *module) getSockfd(L *lua.LState) int {
	fd, ok, err := checkConnection(L, 1).SocketDescriptor()
	if err != nil {
		raise(L, err)
		return 0
	}

	if !ok {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(fd))
	}
	return 1
}

func (mod *module) close(L *lua.LState) int {
	conn := checkConnection(L, 1)
	code := L.OptInt(2, amqp.ReplySuccess)

	result, err := conn.CloseWithCode(code)
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushResult(L, result)
}

func (mod *module) destroy(L *lua.LState) int {
	result, err := checkConnection(L, 1).Destroy()
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushResult(L, result)
}

func stringField(table *lua.LTable, key string, fallback string) string {
	if value, ok := table.RawGetString(key).(lua.LString); ok {
		return string(value)
	}
	return fallback
}

func intField(table *lua.LTable, key string, fallback int) int {
	if value, ok := table.RawGetString(key).(lua.LNumber); ok {
		return int(value)
	}
	return fallback
}

// login takes an optional table with vhost, user, password, frame_max and heartbeat.
func (mod *module) login(L *lua.LState) int {
	conn := checkConnection(L, 1)
	params := L.OptTable(2, L.NewTable())

	defaults := amqp.DefaultLoginOptions()
	opts := amqp.LoginOptions{
		Vhost:     stringField(params, "vhost", defaults.Vhost),
		User:      stringField(params, "user", defaults.User),
		Password:  stringField(params, "password", defaults.Password),
		FrameMax:  intField(params, "frame_max", defaults.FrameMax),
		Heartbeat: intField(params, "heartbeat", defaults.Heartbeat),
	}

	result, err := conn.Login(opts)
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushResult(L, result)
}
