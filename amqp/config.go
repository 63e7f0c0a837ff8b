package amqp

import (
	"github.com/peake100/lamqp-go/native"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is used by New to build a Binding.
type Config struct {
	// Library is the native AMQP client the binding forwards to. If nil, a
	// native.Client with native.DefaultConfig() is used.
	Library native.Library

	// The logger to use for internal logging. If none, the default zerolog logger will
	// be used.
	Logger zerolog.Logger
}

// DefaultConfig returns a Config backed by a fresh native.Client.
func DefaultConfig() Config {
	return Config{
		Library: native.NewClient(native.DefaultConfig()),
		Logger:  log.Logger,
	}
}
