package transport

import (
	"crypto/tls"
	"net"
	"time"
)

// Connection is the surface shared by both ends of a framed TLS
// connection.
type Connection interface {
	Send(payload []byte) error
	Close() error
	RemoteAddr() net.Addr
	ConnectionState() tls.ConnectionState
}

// ReceivingConnection is a connection that supports synchronous
// receives with a timeout.
type ReceivingConnection interface {
	Connection
	Receive(timeout time.Duration) ([]byte, error)
}

// FrameReadWriter reads and writes length-prefixed frames.
type FrameReadWriter interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
}

// Compile-time interface checks.
var (
	_ Connection          = (*ServerConn)(nil)
	_ ReceivingConnection = (*ClientConn)(nil)
	_ FrameReadWriter     = (*Framer)(nil)
)
