package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// Server errors.
var (
	ErrServerRunning    = errors.New("server already running")
	ErrServerNotRunning = errors.New("server not running")
)

// ServerConfig holds the host-side transport configuration.
type ServerConfig struct {
	// TLSConfig is the TLS configuration. Required.
	TLSConfig *tls.Config

	// Address to listen on, e.g. ":8460". Required.
	Address string

	// MaxMessageSize limits frame payloads. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize uint32

	// Logger receives transport events. Optional.
	Logger log.Logger

	// OnConnect is called when a connection completes the TLS
	// handshake. Optional.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection closes. Optional.
	OnDisconnect func(conn *ServerConn, err error)

	// OnMessage is called for every received frame. Required to be
	// useful; frames are dropped if nil.
	OnMessage func(conn *ServerConn, payload []byte)

	// OnError is called for per-connection errors that do not close
	// the connection. Optional.
	OnError func(conn *ServerConn, err error)
}

// Server accepts TLS connections from controllers and delivers frames
// to the configured handler.
type Server struct {
	config   ServerConfig
	listener net.Listener
	running  atomic.Bool

	mu    sync.RWMutex
	conns map[string]*ServerConn

	wg sync.WaitGroup
}

// NewServer creates a server. Call Start to begin accepting.
func NewServer(config ServerConfig) (*Server, error) {
	if config.TLSConfig == nil {
		return nil, errors.New("TLS config is required")
	}
	if config.Address == "" {
		return nil, errors.New("listen address is required")
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		config: config,
		conns:  make(map[string]*ServerConn),
	}, nil
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}

	listener, err := tls.Listen("tcp", s.config.Address, s.config.TLSConfig)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all active connections.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}

	err := s.listener.Close()

	s.mu.Lock()
	conns := make([]*ServerConn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	s.wg.Wait()
	return err
}

// Address returns the actual listen address, useful when the
// configured address used port 0.
func (s *Server) Address() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(raw net.Conn) {
	tlsConn, ok := raw.(*tls.Conn)
	if !ok {
		raw.Close()
		return
	}

	if err := tlsConn.Handshake(); err != nil {
		tlsConn.Close()
		return
	}
	if err := VerifyConnection(tlsConn.ConnectionState()); err != nil {
		tlsConn.Close()
		return
	}

	conn := &ServerConn{
		id:     uuid.NewString(),
		conn:   tlsConn,
		framer: NewFramerWithMaxSize(tlsConn, s.config.MaxMessageSize),
		server: s,
	}
	if s.config.Logger != nil {
		conn.framer.SetLogger(s.config.Logger, conn.id)
	}

	s.mu.Lock()
	s.conns[conn.id] = conn
	s.mu.Unlock()

	s.logState(conn, "", "CONNECTED", "tls handshake complete")
	if s.config.OnConnect != nil {
		s.config.OnConnect(conn)
	}

	err := conn.readLoop()

	s.mu.Lock()
	delete(s.conns, conn.id)
	s.mu.Unlock()

	conn.Close()
	s.logState(conn, "CONNECTED", "DISCONNECTED", errReason(err))
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(conn, err)
	}
}

func (s *Server) logState(conn *ServerConn, oldState, newState, reason string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: conn.id,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func errReason(err error) string {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return "connection closed"
	}
	return err.Error()
}

// ServerConn is one controller connection accepted by a Server.
type ServerConn struct {
	id     string
	conn   *tls.Conn
	framer *Framer
	server *Server

	closeOnce sync.Once
	closed    atomic.Bool
}

// ID returns the unique connection identifier.
func (c *ServerConn) ID() string {
	return c.id
}

// RemoteAddr returns the controller's network address.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ConnectionState returns the TLS state of the connection.
func (c *ServerConn) ConnectionState() tls.ConnectionState {
	return c.conn.ConnectionState()
}

// Send writes a frame to the controller.
func (c *ServerConn) Send(payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return c.framer.WriteFrame(payload)
}

// Close closes the connection. Safe to call multiple times.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}

func (c *ServerConn) readLoop() error {
	for {
		payload, err := c.framer.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || c.closed.Load() {
				return nil
			}
			if errors.Is(err, ErrMessageTooLarge) || errors.Is(err, ErrMessageEmpty) {
				if c.server.config.OnError != nil {
					c.server.config.OnError(c, err)
				}
				return err
			}
			return err
		}

		if c.server.config.OnMessage != nil {
			c.server.config.OnMessage(c, payload)
		}
	}
}
