package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// Client errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrReceiveTimeout   = errors.New("receive timeout")
)

// ClientConfig holds the controller-side transport configuration.
type ClientConfig struct {
	// TLSConfig is the TLS configuration. Required. Use
	// NewPinnedClientTLSConfig for fingerprint-authenticated hosts.
	TLSConfig *tls.Config

	// MaxMessageSize limits frame payloads. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize uint32

	// Logger receives transport events. Optional.
	Logger log.Logger

	// DialTimeout bounds the TCP+TLS dial. Zero means 10 seconds.
	DialTimeout time.Duration
}

// Client dials HostLink hosts.
type Client struct {
	config ClientConfig
}

// NewClient creates a client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.TLSConfig == nil {
		return nil, errors.New("TLS config is required")
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 10 * time.Second
	}
	return &Client{config: config}, nil
}

// Connect dials the host and completes the TLS handshake.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.config.DialTimeout},
		Config:    c.config.TLSConfig,
	}

	raw, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	tlsConn := raw.(*tls.Conn)
	if err := VerifyConnection(tlsConn.ConnectionState()); err != nil {
		tlsConn.Close()
		return nil, err
	}

	conn := &ClientConn{
		conn:   tlsConn,
		framer: NewFramerWithMaxSize(tlsConn, c.config.MaxMessageSize),
	}
	if c.config.Logger != nil {
		conn.framer.SetLogger(c.config.Logger, address)
	}
	return conn, nil
}

// ClientConn is an established connection to a host.
type ClientConn struct {
	conn   *tls.Conn
	framer *Framer

	closeOnce sync.Once
	closed    atomic.Bool
}

// RemoteAddr returns the host's network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ConnectionState returns the TLS state of the connection.
func (c *ClientConn) ConnectionState() tls.ConnectionState {
	return c.conn.ConnectionState()
}

// Send writes a frame to the host.
func (c *ClientConn) Send(payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return c.framer.WriteFrame(payload)
}

// Receive reads the next frame. A zero timeout blocks until a frame
// arrives or the connection closes.
func (c *ClientConn) Receive(timeout time.Duration) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	if timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}

	payload, err := c.framer.ReadFrame()
	if err != nil {
		if c.closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, ErrConnectionClosed
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrReceiveTimeout
		}
		return nil, err
	}
	return payload, nil
}

// Close closes the connection. Safe to call multiple times.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}
