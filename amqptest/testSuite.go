//revive:disable:import-shadowing

package amqptest

import (
	"runtime"
	"time"

	"github.com/peake100/lamqp-go/amqp"
	"github.com/peake100/lamqp-go/native"
	"github.com/peake100/lamqp-go/native/nativetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

// BindingSuiteOpts is used to configure BindingSuite.
type BindingSuiteOpts struct {
	realLibrary  bool
	clientConfig native.Config
	logger       zerolog.Logger
}

// WithRealLibrary makes the suite bind a native.Client configured with config
// instead of the recording fake.
func (opts *BindingSuiteOpts) WithRealLibrary(config native.Config) *BindingSuiteOpts {
	opts.realLibrary = true
	opts.clientConfig = config
	return opts
}

// WithLogger sets the logger handed to the binding.
// Default: zerolog.Nop()
func (opts *BindingSuiteOpts) WithLogger(logger zerolog.Logger) *BindingSuiteOpts {
	opts.logger = logger
	return opts
}

// NewBindingSuiteOpts returns a new BindingSuiteOpts with default values.
func NewBindingSuiteOpts() *BindingSuiteOpts {
	return new(BindingSuiteOpts).WithLogger(zerolog.Nop())
}

// BindingSuite Embed into other suite types to have a fresh amqp.Binding set up for
// every test, backed either by a nativetest.Library or by a real native.Client.
type BindingSuite struct {
	// Suite is the embedded suite type.
	suite.Suite

	// Opts is our Options object and can be set on suite instantiation or during setup.
	Opts *BindingSuiteOpts

	binding *amqp.Binding
	fake    *nativetest.Library
	client  *native.Client
}

// SetupTest creates the binding for the next test.
func (suite *BindingSuite) SetupTest() {
	if suite.Opts == nil {
		suite.Opts = NewBindingSuiteOpts()
	}

	var lib native.Library
	if suite.Opts.realLibrary {
		config := suite.Opts.clientConfig
		config.Logger = suite.Opts.logger
		suite.client = native.NewClient(config)
		suite.fake = nil
		lib = suite.client
	} else {
		suite.fake = nativetest.New()
		suite.client = nil
		lib = suite.fake
	}

	suite.binding = amqp.New(amqp.Config{Library: lib, Logger: suite.Opts.logger})
}

// TearDownTest releases every native resource of the finished test.
func (suite *BindingSuite) TearDownTest() {
	if suite.client != nil {
		_ = suite.client.Close()
	}
}

// Binding returns the binding of the current test.
func (suite *BindingSuite) Binding() *amqp.Binding {
	return suite.binding
}

// Fake returns the recording library of the current test, or nil when the suite runs
// against a real library.
func (suite *BindingSuite) Fake() *nativetest.Library {
	return suite.fake
}

// NewConnection creates a connection, failing the test on error.
func (suite *BindingSuite) NewConnection() *amqp.Connection {
	conn, err := suite.binding.NewConnection()
	if !suite.NoError(err, "new connection") {
		suite.T().FailNow()
	}
	return conn
}

// NewTCPSocket creates a connection with a TCP socket attached, failing the test on
// error.
func (suite *BindingSuite) NewTCPSocket() (*amqp.Connection, *amqp.Socket) {
	conn := suite.NewConnection()
	sock, err := conn.NewTCPSocket()
	if !suite.NoError(err, "new tcp socket") || !suite.NotNil(sock, "socket") {
		suite.T().FailNow()
	}
	return conn, sock
}

// AssertFailure asserts that result is a failure with a message and a non-zero code.
func (suite *BindingSuite) AssertFailure(result amqp.Result, msgAndArgs ...interface{}) bool {
	return suite.Equal(amqp.OutcomeFailure, result.Outcome, msgAndArgs...) &&
		suite.NotEmpty(result.Message, msgAndArgs...) &&
		suite.NotZero(result.Code, msgAndArgs...)
}

// EventuallyCollected runs the garbage collector until condition holds or the wait
// times out.
func (suite *BindingSuite) EventuallyCollected(condition func() bool, msgAndArgs ...interface{}) bool {
	return suite.Eventually(
		func() bool {
			runtime.GC()
			return condition()
		},
		3*time.Second,
		10*time.Millisecond,
		msgAndArgs...,
	)
}
