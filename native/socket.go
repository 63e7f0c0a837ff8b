package native

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"math"
	"net"
	"strconv"
	"syscall"
	"time"
)

// maxTimevalSec is the first whole second count a time.Duration cannot hold.
const maxTimevalSec = int64(math.MaxInt64 / int64(time.Second))

// Duration converts tv to a time.Duration. Values too large for a Duration clamp to
// the largest one.
func (tv Timeval) Duration() time.Duration {
	if tv.Sec >= maxTimevalSec {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}

// SocketOpenNoblock implements Library. The lock is not held while dialing, so a
// concurrent DestroyConnection releases the socket and the finished dial is discarded.
func (client *Client) SocketOpenNoblock(
	handle SocketPtr, host string, port int, timeout *Timeval,
) Status {
	client.lock.Lock()
	sock, ok := client.sockets[handle]
	switch {
	case !ok:
		client.lock.Unlock()
		return StatusInvalidParameter
	case sock.netConn != nil || sock.opening:
		client.lock.Unlock()
		return StatusSocketInUse
	}
	sock.opening = true
	client.lock.Unlock()

	netConn, status := client.dial(sock.secure, host, port, timeout)

	client.lock.Lock()
	defer client.lock.Unlock()

	sock.opening = false
	if status != StatusOK {
		if client.logger.Debug().Enabled() {
			client.logger.Debug().
				Uint64("SOCKET", uint64(handle)).
				Str("HOST", host).
				Int("PORT", port).
				Int("STATUS", int(status)).
				Msg("socket open failed")
		}
		return status
	}

	if sock.released {
		_ = netConn.Close()
		return StatusSocketClosed
	}

	sock.netConn = netConn
	if client.logger.Debug().Enabled() {
		client.logger.Debug().
			Uint64("SOCKET", uint64(handle)).
			Str("HOST", host).
			Int("PORT", port).
			Msg("socket opened")
	}
	return StatusOK
}

func (client *Client) dial(
	secure bool, host string, port int, timeout *Timeval,
) (net.Conn, Status) {
	if host == "" || port <= 0 || port > 65535 {
		return nil, StatusInvalidParameter
	}
	if timeout != nil && (timeout.Sec < 0 || timeout.Usec < 0 || timeout.Usec >= 1e6) {
		return nil, StatusInvalidParameter
	}

	ctx := context.Background()
	if timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout.Duration())
		defer cancel()
	}

	dialer := new(net.Dialer)
	netConn, err := dialer.DialContext(
		ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)),
	)
	if err != nil {
		return nil, dialStatus(err)
	}

	if !secure {
		return netConn, StatusOK
	}

	var tlsConfig *tls.Config
	if client.config.TLSClientConfig != nil {
		tlsConfig = client.config.TLSClientConfig.Clone()
	} else {
		tlsConfig = new(tls.Config)
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = host
	}

	tlsConn := tls.Client(netConn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = netConn.Close()
		return nil, handshakeStatus(err)
	}
	return tlsConn, StatusOK
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
}

// dialStatus maps a TCP dial error onto the status enum.
func dialStatus(err error) Status {
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return StatusHostnameResolutionFailed
	case isTimeout(err):
		return StatusTimeout
	default:
		return StatusSocketError
	}
}

// handshakeStatus maps a TLS handshake error onto the status enum.
func handshakeStatus(err error) Status {
	var hostnameErr x509.HostnameError
	var authorityErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError

	switch {
	case errors.As(err, &hostnameErr):
		return StatusSSLHostnameVerifyFailed
	case errors.As(err, &authorityErr), errors.As(err, &invalidErr):
		return StatusSSLPeerVerifyFailed
	case isTimeout(err):
		return StatusTimeout
	default:
		return StatusSSLConnectionFailed
	}
}

// descriptor returns the operating system descriptor behind netConn, or -1.
func descriptor(netConn net.Conn) int {
	if tlsConn, ok := netConn.(*tls.Conn); ok {
		netConn = tlsConn.NetConn()
	}

	sysConn, ok := netConn.(syscall.Conn)
	if !ok {
		return -1
	}

	raw, err := sysConn.SyscallConn()
	if err != nil {
		return -1
	}

	fd := -1
	if err := raw.Control(func(sysfd uintptr) { fd = int(sysfd) }); err != nil {
		return -1
	}
	return fd
}
