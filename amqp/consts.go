package amqp

import "github.com/peake100/lamqp-go/native"

// ReplySuccess is the AMQP reply-success code sent by Connection.Close.
const ReplySuccess = native.ReplySuccess

// Component names used in log fields.
const (
	componentBinding = "BINDING"
)
