/*
Package native is the AMQP client library that the binding layer in
github.com/peake100/lamqp-go/amqp wraps.

The package deliberately keeps a C-shaped surface: connections and sockets are opaque
integer handles where 0 means NULL, fallible calls return a Status enum or an RPCReply
union rather than a Go error, and socket timeouts are expressed as a seconds +
microseconds Timeval. Everything above this package is responsible for turning those
shapes into something friendlier.

Client is the concrete Library. It opens TCP and TLS sockets with the net and crypto/tls
packages and runs the AMQP handshake with github.com/streadway/amqp.
*/
package native
