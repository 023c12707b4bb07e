package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/cert"
	"github.com/hostlink-protocol/hostlink-go/pkg/dispatch"
	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/transport"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// DefaultCallbackTimeout bounds how long a host waits for a controller
// to answer an invokeCallback request.
const DefaultCallbackTimeout = 30 * time.Second

// HostConfig configures the host side of the bridge.
type HostConfig struct {
	// Dispatcher executes requests. Required.
	Dispatcher *dispatch.Dispatcher

	// Marshaller converts callback arguments and results. Must share
	// the dispatcher's handle registry. Required.
	Marshaller *marshal.Marshaller

	// Identity is the host's TLS identity. Required.
	Identity *cert.Identity

	// Address to listen on. Empty means ":8460".
	Address string

	// AppName tags log events with the application-host name.
	AppName string

	// Logger receives protocol events. Optional.
	Logger log.Logger

	// MaxMessageSize limits frame payloads. Zero means the transport
	// default.
	MaxMessageSize uint32

	// CallbackTimeout bounds controller callback round trips. Zero
	// means DefaultCallbackTimeout.
	CallbackTimeout time.Duration
}

// Host serves a capability surface to connected controllers.
type Host struct {
	config HostConfig
	server *transport.Server

	mu    sync.Mutex
	conns map[string]*hostConn
}

// hostConn tracks one controller connection and the host-initiated
// callback requests awaiting its responses.
type hostConn struct {
	conn   *transport.ServerConn
	nextID atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *wire.Response
}

// NewHost creates a host. The dispatcher's callback invoker is wired to
// route callbacks through whichever connection carried the triggering
// request.
func NewHost(config HostConfig) (*Host, error) {
	if config.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if config.Marshaller == nil {
		return nil, errors.New("marshaller is required")
	}
	if config.Identity == nil {
		return nil, errors.New("identity is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", transport.DefaultPort)
	}
	if config.CallbackTimeout <= 0 {
		config.CallbackTimeout = DefaultCallbackTimeout
	}

	h := &Host{
		config: config,
		conns:  make(map[string]*hostConn),
	}

	server, err := transport.NewServer(transport.ServerConfig{
		TLSConfig:      transport.NewServerTLSConfig(config.Identity, nil),
		Address:        config.Address,
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.Logger,
		OnConnect:      h.onConnect,
		OnDisconnect:   h.onDisconnect,
		OnMessage:      h.onMessage,
	})
	if err != nil {
		return nil, err
	}
	h.server = server

	config.Dispatcher.SetCallbackInvoker(h)
	return h, nil
}

// Start begins serving.
func (h *Host) Start() error {
	return h.server.Start()
}

// Stop closes the listener and all controller connections.
func (h *Host) Stop() error {
	return h.server.Stop()
}

// Address returns the actual listen address.
func (h *Host) Address() net.Addr {
	return h.server.Address()
}

// ConnectionCount returns the number of connected controllers.
func (h *Host) ConnectionCount() int {
	return h.server.ConnectionCount()
}

func (h *Host) onConnect(conn *transport.ServerConn) {
	hc := &hostConn{
		conn:    conn,
		pending: make(map[uint32]chan *wire.Response),
	}
	h.mu.Lock()
	h.conns[conn.ID()] = hc
	h.mu.Unlock()
}

func (h *Host) onDisconnect(conn *transport.ServerConn, _ error) {
	h.mu.Lock()
	hc := h.conns[conn.ID()]
	delete(h.conns, conn.ID())
	remaining := len(h.conns)
	h.mu.Unlock()

	if hc != nil {
		hc.failPending()
	}

	// Handle ids are only meaningful to the controllers that received
	// them. Once the last controller is gone, bulk-revoke the registry
	// so the host stops pinning object graphs for ended sessions.
	if remaining == 0 {
		h.config.Marshaller.Handles().RevokeAll()
	}
}

func (h *Host) onMessage(conn *transport.ServerConn, payload []byte) {
	h.mu.Lock()
	hc := h.conns[conn.ID()]
	h.mu.Unlock()
	if hc == nil {
		return
	}

	mt, err := wire.PeekMessageType(payload)
	if err != nil {
		h.logEvent(errorEvent(log.RoleHost, conn.ID(), h.config.AppName, err, "peek message"))
		return
	}

	switch mt {
	case wire.MessageTypeRequest:
		// Served off the read loop so a long-running invocation never
		// blocks the cancel request that aborts it.
		go h.serveRequest(hc, payload)
	case wire.MessageTypeResponse:
		resp, err := wire.DecodeResponse(payload)
		if err != nil {
			h.logEvent(errorEvent(log.RoleHost, conn.ID(), h.config.AppName, err, "decode response"))
			return
		}
		h.logEvent(responseEvent(log.RoleHost, conn.ID(), h.config.AppName, log.DirectionIn, resp, 0, log.CategoryMessage))
		hc.resolve(resp)
	default:
		h.logEvent(errorEvent(log.RoleHost, conn.ID(), h.config.AppName,
			errors.New("unrecognized envelope"), "peek message"))
	}
}

func (h *Host) serveRequest(hc *hostConn, payload []byte) {
	connID := hc.conn.ID()

	req, err := wire.DecodeRequest(payload)
	if err != nil {
		resp := &wire.Response{
			MessageID: peekMessageID(payload),
			Status:    wire.StatusContractViolation,
			Error:     &wire.ErrorPayload{Message: err.Error()},
		}
		h.sendResponse(hc, resp, 0, log.CategoryMessage)
		return
	}

	h.logEvent(requestEvent(log.RoleHost, connID, h.config.AppName, log.DirectionIn, req))

	start := time.Now()
	ctx := withHostConn(context.Background(), hc)
	resp := h.config.Dispatcher.Handle(ctx, req)
	h.sendResponse(hc, resp, time.Since(start), categoryFor(req.Op))
}

func (h *Host) sendResponse(hc *hostConn, resp *wire.Response, processingTime time.Duration, category log.Category) {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		h.logEvent(errorEvent(log.RoleHost, hc.conn.ID(), h.config.AppName, err, "encode response"))
		return
	}
	if err := hc.conn.Send(data); err != nil {
		h.logEvent(errorEvent(log.RoleHost, hc.conn.ID(), h.config.AppName, err, "send response"))
		return
	}
	h.logEvent(responseEvent(log.RoleHost, hc.conn.ID(), h.config.AppName, log.DirectionOut, resp, processingTime, category))
}

func (h *Host) logEvent(event log.Event) {
	if h.config.Logger != nil {
		h.config.Logger.Log(event)
	}
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// InvokeCallback sends an invokeCallback request to the controller
// whose request is currently being served, and waits for its reply.
// Implements dispatch.CallbackInvoker.
func (h *Host) InvokeCallback(ctx context.Context, callbackID string, args ...any) (any, error) {
	hc := hostConnFrom(ctx)
	if hc == nil {
		return nil, errors.New("no controller connection in context")
	}

	wireArgs := make([]wire.Value, len(args))
	for i, arg := range args {
		v, err := h.config.Marshaller.ToWire(arg)
		if err != nil {
			return nil, fmt.Errorf("callback argument %d: %w", i, err)
		}
		wireArgs[i] = v
	}

	req := &wire.Request{
		MessageID:  hc.nextID.Add(1),
		Op:         wire.OpInvokeCallback,
		CallbackID: callbackID,
		Args:       wireArgs,
	}

	ch := hc.expect(req.MessageID)
	defer hc.forget(req.MessageID)

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := hc.conn.Send(data); err != nil {
		return nil, err
	}
	h.logEvent(requestEvent(log.RoleHost, hc.conn.ID(), h.config.AppName, log.DirectionOut, req))

	timer := time.NewTimer(h.config.CallbackTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("callback %q timed out", callbackID)
	case resp, ok := <-ch:
		if !ok {
			return nil, transport.ErrConnectionClosed
		}
		if !resp.IsSuccess() {
			msg := string(resp.Status)
			if resp.Error != nil && resp.Error.Message != "" {
				msg = resp.Error.Message
			}
			return nil, fmt.Errorf("callback %q failed: %s", callbackID, msg)
		}
		mctx := marshal.Context{Operation: string(wire.OpInvokeCallback), Parameter: callbackID}
		return h.config.Marshaller.FromWire(resp.Result, anyType, mctx)
	}
}

func (hc *hostConn) expect(id uint32) chan *wire.Response {
	ch := make(chan *wire.Response, 1)
	hc.mu.Lock()
	hc.pending[id] = ch
	hc.mu.Unlock()
	return ch
}

func (hc *hostConn) forget(id uint32) {
	hc.mu.Lock()
	delete(hc.pending, id)
	hc.mu.Unlock()
}

func (hc *hostConn) resolve(resp *wire.Response) {
	hc.mu.Lock()
	ch := hc.pending[resp.MessageID]
	delete(hc.pending, resp.MessageID)
	hc.mu.Unlock()
	if ch != nil {
		ch <- resp
	}
}

// failPending closes every waiting callback channel so in-flight
// callbacks fail instead of hanging after a disconnect.
func (hc *hostConn) failPending() {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for id, ch := range hc.pending {
		close(ch)
		delete(hc.pending, id)
	}
}

type hostConnKey struct{}

func withHostConn(ctx context.Context, hc *hostConn) context.Context {
	return context.WithValue(ctx, hostConnKey{}, hc)
}

func hostConnFrom(ctx context.Context) *hostConn {
	hc, _ := ctx.Value(hostConnKey{}).(*hostConn)
	return hc
}
