package native

import (
	"errors"
	"io"
	"time"

	streadway "github.com/streadway/amqp"
)

// Login implements Library. The handshake is delegated to streadway/amqp and runs on
// the socket's existing transport.
func (client *Client) Login(handle ConnectionState, params LoginParams) RPCReply {
	client.lock.Lock()
	conn, ok := client.connections[handle]
	switch {
	case !ok:
		client.lock.Unlock()
		return ReplyLibraryError(StatusInvalidParameter)
	case conn.socket == nil || conn.socket.netConn == nil:
		client.lock.Unlock()
		return ReplyLibraryError(StatusSocketClosed)
	case conn.session != nil:
		client.lock.Unlock()
		return ReplyLibraryError(StatusUnexpectedState)
	}
	sock := conn.socket
	netConn := sock.netConn
	client.lock.Unlock()

	heartbeat := client.config.Heartbeat
	if params.Heartbeat > 0 {
		heartbeat = time.Duration(params.Heartbeat) * time.Second
	}

	config := streadway.Config{
		SASL: []streadway.Authentication{
			&streadway.PlainAuth{Username: params.User, Password: params.Password},
		},
		Vhost:      params.Vhost,
		FrameSize:  params.FrameMax,
		Heartbeat:  heartbeat,
		Properties: client.config.Properties,
		Locale:     client.config.Locale,
	}

	if client.config.HandshakeTimeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(client.config.HandshakeTimeout))
	}

	session, err := streadway.Open(netConn, config)

	client.lock.Lock()
	defer client.lock.Unlock()

	if err != nil {
		client.logger.Debug().
			Err(err).
			Uint64("CONNECTION", uint64(handle)).
			Msg("login failed")

		// A failed handshake leaves the transport in an unknown state.
		if !sock.released && sock.netConn != nil {
			_ = sock.netConn.Close()
			sock.netConn = nil
		}
		return replyFromError(err)
	}

	if sock.released {
		_ = session.Close()
		return ReplyLibraryError(StatusSocketClosed)
	}

	_ = netConn.SetDeadline(time.Time{})
	conn.session = session

	if client.logger.Debug().Enabled() {
		client.logger.Debug().
			Uint64("CONNECTION", uint64(handle)).
			Str("VHOST", params.Vhost).
			Msg("login succeeded")
	}
	return ReplyNormal()
}

// ConnectionClose implements Library. The socket is closed in every case; a
// connection that has only an opened socket and no AMQP session closes the socket and
// reports a normal reply.
//
// streadway/amqp always sends reply code 200 on close, so other codes are logged and
// not forwarded to the broker.
func (client *Client) ConnectionClose(handle ConnectionState, code int) RPCReply {
	client.lock.Lock()
	conn, ok := client.connections[handle]
	switch {
	case !ok:
		client.lock.Unlock()
		return ReplyLibraryError(StatusInvalidParameter)
	case conn.socket == nil || conn.socket.netConn == nil:
		client.lock.Unlock()
		return ReplyLibraryError(StatusSocketClosed)
	}
	session := conn.session
	netConn := conn.socket.netConn
	conn.session = nil
	conn.socket.netConn = nil
	client.lock.Unlock()

	if session == nil {
		if err := netConn.Close(); err != nil {
			return ReplyLibraryError(StatusSocketError)
		}
		return ReplyNormal()
	}

	if code != ReplySuccess {
		client.logger.Warn().
			Int("REPLY_CODE", code).
			Uint64("CONNECTION", uint64(handle)).
			Msg("close reply code not forwarded, broker receives 200")
	}

	err := session.Close()
	_ = netConn.Close()
	if err != nil {
		return replyFromError(err)
	}
	return ReplyNormal()
}

// replyFromError maps an error returned by streadway/amqp onto an RPCReply.
func replyFromError(err error) RPCReply {
	var amqpErr *streadway.Error
	if errors.As(err, &amqpErr) {
		switch {
		case amqpErr == streadway.ErrSASL:
			return ReplyLibraryError(StatusBrokerUnsupportedSASLMethod)
		case amqpErr == streadway.ErrSyntax, amqpErr == streadway.ErrFrame:
			return ReplyLibraryError(StatusBadAMQPData)
		case amqpErr.Server,
			amqpErr == streadway.ErrCredentials,
			amqpErr == streadway.ErrVhost:
			return ReplyServerClose(MethodConnectionClose, amqpErr.Code, amqpErr.Reason)
		default:
			return ReplyLibraryError(StatusConnectionClosed)
		}
	}

	switch {
	case isTimeout(err):
		return ReplyLibraryError(StatusTimeout)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ReplyLibraryError(StatusConnectionClosed)
	default:
		return ReplyLibraryError(StatusSocketError)
	}
}
