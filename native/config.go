package native

import (
	"crypto/tls"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	streadway "github.com/streadway/amqp"
)

// Copy of defaults from streadway amqp.
const (
	defaultHeartbeat        = 10 * time.Second
	defaultLocale           = "en_US"
	defaultHandshakeTimeout = 30 * time.Second
)

// Config tunes a Client.
type Config struct {
	// MaxConnections caps the number of live connections. NewConnection returns NULL
	// once the cap is reached. 0 means unlimited.
	MaxConnections int

	// TLSClientConfig is used by sockets created with SSLSocketNew. If ServerName is
	// empty, the host passed to SocketOpenNoblock is used.
	TLSClientConfig *tls.Config

	// Heartbeat is offered to the broker during Login when LoginParams.Heartbeat is
	// 0. Less than 1s uses the server's interval.
	Heartbeat time.Duration

	// Locale sent during Login.
	Locale string

	// HandshakeTimeout bounds the AMQP handshake run by Login. 0 means no bound.
	HandshakeTimeout time.Duration

	// Properties is the client-properties table advertised to the broker.
	Properties streadway.Table

	// The logger to use for internal logging.
	Logger zerolog.Logger
}

// DefaultConfig returns the default Client configuration.
func DefaultConfig() Config {
	return Config{
		Heartbeat:        defaultHeartbeat,
		Locale:           defaultLocale,
		HandshakeTimeout: defaultHandshakeTimeout,
		Logger:           log.Logger,
	}
}
