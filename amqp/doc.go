/*
Package amqp binds a native AMQP client library, as described by the
github.com/peake100/lamqp-go/native package, for use from garbage-collected host code.

The binding is responsible for three things the native library leaves to its caller:

Handle lifetime. A Connection owns exactly one native connection. It is destroyed
either by an explicit Destroy or, once the Connection is unreachable, by a runtime
cleanup. Both paths go through the same invalidation, so the native connection is
destroyed exactly once and a destroyed Connection reports ErrInvalidHandle instead of
touching freed memory.

Socket identity. The native library hands out the same socket pointer many times.
The Binding keeps a weak map from native socket to *Socket, so NewTCPSocket followed by
any number of Socket calls returns the very same *Socket while the caller holds it,
without the map keeping it alive.

Result translation. Native calls report through a status enum or an RPC reply union.
Both are translated into a Result: OutcomeOK, or OutcomeFailure with a message and a
numeric code. Misuse of the binding (invalid handles, bad timeouts, allocation
failure) is reported through the error return instead.

The binding does no threading of its own. Every call is forwarded synchronously and
may block for as long as the native call does.
*/
package amqp
