// Package transport implements the byte-stream framing layer beneath an
// adapter: line-oriented stdio, HTTP-over-stdio (Content-Length framed),
// and a single-peer WebSocket transport for remote front-ends.
package transport

import "errors"

// Transport exposes the three operations every adapter drives its wire
// format through. Send must be atomic at the granularity of one message
// so that concurrent request replies and events never interleave on the
// wire.
type Transport interface {
	// ReadLine returns bytes up to and including the next newline.
	ReadLine() ([]byte, error)
	// Read returns exactly n bytes, failing on EOF with fewer.
	Read(n int) ([]byte, error)
	// Send writes bytes and flushes, atomically with respect to other
	// Send calls.
	Send(b []byte) error
}

// Framing error kinds.
var (
	ErrMissingHeader  = errors.New("transport: missing Content-Length header")
	ErrMissingDelim   = errors.New("transport: missing header/body delimiter")
	ErrBadLength      = errors.New("transport: Content-Length is not an integer")
	ErrLengthTooSmall = errors.New("transport: Content-Length below minimum of 2")
	ErrLengthTooLarge = errors.New("transport: Content-Length exceeds internal bound")
	ErrUnknownHeader  = errors.New("transport: unrecognized header")
)

// MaxBodyBytes bounds the Content-Length a HTTPStdio transport accepts,
// guarding against a malicious or malfunctioning peer declaring an
// unbounded body.
const MaxBodyBytes = 64 << 20 // 64 MiB
