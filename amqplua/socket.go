package amqplua

import (
	"math"

	"github.com/peake100/lamqp-go/amqp"
	lua "github.com/yuin/gopher-lua"
)

func checkSocket(L *lua.LState, n int) *amqp.Socket {
	ud := L.CheckUserData(n)
	if sock, ok := ud.Value.(*amqp.Socket); ok {
		return sock
	}
	L.ArgError(n, socketTypeName+" expected")
	return nil
}

// openNoblock takes host, port and an optional timeout in fractional seconds. An
// omitted timeout means no timeout, not zero.
func (mod *module) openNoblock(L *lua.LState) int {
	sock := checkSocket(L, 1)
	host := L.CheckString(2)
	port := L.CheckInt(3)
	timeout := L.OptNumber(4, lua.LNumber(math.Inf(1)))

	result, err := sock.OpenNoblock(host, port, amqp.TimeoutSeconds(float64(timeout)))
	if err != nil {
		raise(L, err)
		return 0
	}
	return pushResult(L, result)
}
