//revive:disable:import-shadowing

package amqptest

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	// BrokerEnvKey names the environment variable holding host:port of a test broker.
	// Tests that need a live broker are skipped when it is unset.
	BrokerEnvKey = "LAMQP_TEST_BROKER"
)

// BrokerAddress returns the host and port of the test broker, calling t.Skip() if
// none is configured.
func BrokerAddress(t *testing.T) (host string, port int) {
	address := os.Getenv(BrokerEnvKey)
	if address == "" {
		t.Skipf("%v not set, skipping broker test", BrokerEnvKey)
	}

	host, portText, err := net.SplitHostPort(address)
	if !assert.NoError(t, err, "parse %v", BrokerEnvKey) {
		t.FailNow()
	}

	port, err = net.LookupPort("tcp", portText)
	if !assert.NoError(t, err, "parse broker port") {
		t.FailNow()
	}
	return host, port
}

// ClosedPort returns a loopback port that nothing listens on.
//
// t.FailNow() is called on any errors.
func ClosedPort(t *testing.T) int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err, "reserve port") {
		t.FailNow()
	}

	port := listener.Addr().(*net.TCPAddr).Port
	if !assert.NoError(t, listener.Close(), "release port") {
		t.FailNow()
	}
	return port
}

// Listen starts a loopback listener that accepts connections and hands each to
// handle on its own goroutine. The listener is closed when the test ends.
//
// t.FailNow() is called on any errors.
func Listen(t *testing.T, handle func(conn net.Conn)) (host string, port int) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err, "listen") {
		t.FailNow()
	}
	t.Cleanup(func() {
		_ = listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handle(conn)
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// HoldOpen is a Listen handler that keeps connections open until the peer closes
// them.
func HoldOpen(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

// HangUp is a Listen handler that closes every connection straight away.
func HangUp(conn net.Conn) {
	_ = conn.Close()
}
