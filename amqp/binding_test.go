package amqp_test

import (
	"testing"

	"github.com/peake100/lamqp-go/amqp"
	"github.com/peake100/lamqp-go/amqptest"
	"github.com/peake100/lamqp-go/native"
	"github.com/stretchr/testify/suite"
)

type BindingSuite struct {
	amqptest.BindingSuite
}

func (suite *BindingSuite) Test0010_Lifecycle() {
	conn, sock := suite.NewTCPSocket()

	result, err := sock.OpenNoblock("localhost", 5672, amqp.TimeoutSeconds(2))
	suite.NoError(err, "open")
	suite.True(result.OK(), "open result")

	result, err = conn.Login(amqp.DefaultLoginOptions())
	suite.NoError(err, "login")
	suite.True(result.OK(), "login result")

	result, err = conn.Close()
	suite.NoError(err, "close")
	suite.True(result.OK(), "close result")

	result, err = conn.Destroy()
	suite.NoError(err, "destroy")
	suite.True(result.OK(), "destroy result")

	suite.Equal(0, suite.Fake().LiveConnections())
}

func (suite *BindingSuite) Test0020_CollectedConnection() {
	fake := suite.Fake()

	func() {
		suite.NewTCPSocket()
	}()

	suite.EventuallyCollected(
		func() bool { return fake.LiveConnections() == 0 },
		"connection destroyed by collector",
	)
	suite.Len(fake.Destroyed(), 1)
}

func (suite *BindingSuite) Test0030_SocketOutlivesDestroyedConnection() {
	var sock *amqp.Socket

	func() {
		var conn *amqp.Connection
		conn, sock = suite.NewTCPSocket()
		_, err := conn.Destroy()
		suite.NoError(err)
	}()

	_, err := sock.OpenNoblock("localhost", 5672, amqp.NoTimeout)
	suite.ErrorIs(err, amqp.ErrInvalidHandle)
}

func (suite *BindingSuite) Test0040_SocketOutlivesCollectedConnection() {
	fake := suite.Fake()
	var sock *amqp.Socket

	func() {
		_, sock = suite.NewTCPSocket()
	}()

	suite.EventuallyCollected(
		func() bool { return fake.LiveConnections() == 0 },
		"connection destroyed by collector while its socket is held",
	)

	_, err := sock.OpenNoblock("localhost", 5672, amqp.NoTimeout)
	suite.ErrorIs(err, amqp.ErrInvalidHandle)
	suite.Empty(fake.OpenCalls(), "nothing forwarded to the library")
}

func TestBindingSuite(t *testing.T) {
	suite.Run(t, new(BindingSuite))
}

type RealLibrarySuite struct {
	amqptest.BindingSuite
}

func (suite *RealLibrarySuite) SetupSuite() {
	suite.Opts = amqptest.NewBindingSuiteOpts().
		WithRealLibrary(native.DefaultConfig())
}

func (suite *RealLibrarySuite) Test0010_ClosedPort() {
	conn, sock := suite.NewTCPSocket()
	port := amqptest.ClosedPort(suite.T())

	result, err := sock.OpenNoblock("127.0.0.1", port, amqp.TimeoutSeconds(0.25))
	suite.NoError(err, "network failure is not an error")
	suite.AssertFailure(result, "open closed port")

	_, ok, err := conn.SocketDescriptor()
	suite.NoError(err)
	suite.False(ok, "no open socket")

	result, err = conn.Destroy()
	suite.NoError(err)
	suite.True(result.OK())

	_, err = conn.Destroy()
	suite.ErrorIs(err, amqp.ErrInvalidHandle)
}

func (suite *RealLibrarySuite) Test0020_HeldOpenPort() {
	host, port := amqptest.Listen(suite.T(), amqptest.HoldOpen)
	conn, sock := suite.NewTCPSocket()

	result, err := sock.OpenNoblock(host, port, amqp.TimeoutSeconds(2))
	suite.NoError(err)
	suite.True(result.OK(), "open")

	fd, ok, err := conn.SocketDescriptor()
	suite.NoError(err)
	suite.True(ok, "socket open")
	suite.GreaterOrEqual(fd, 0)

	result, err = conn.Close()
	suite.NoError(err)
	suite.True(result.OK(), "close without session")
}

func (suite *RealLibrarySuite) Test0030_Broker() {
	host, port := amqptest.BrokerAddress(suite.T())
	conn, sock := suite.NewTCPSocket()

	result, err := sock.OpenNoblock(host, port, amqp.TimeoutSeconds(5))
	suite.NoError(err)
	if !suite.True(result.OK(), "open: %v", result) {
		suite.T().FailNow()
	}

	result, err = conn.Login(amqp.DefaultLoginOptions())
	suite.NoError(err)
	suite.True(result.OK(), "login: %v", result)

	result, err = conn.Close()
	suite.NoError(err)
	suite.True(result.OK(), "close: %v", result)
}

func TestRealLibrarySuite(t *testing.T) {
	suite.Run(t, new(RealLibrarySuite))
}
