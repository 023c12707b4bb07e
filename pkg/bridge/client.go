package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/dispatch"
	"github.com/hostlink-protocol/hostlink-go/pkg/handle"
	"github.com/hostlink-protocol/hostlink-go/pkg/intrinsics"
	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/policy"
	"github.com/hostlink-protocol/hostlink-go/pkg/transport"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// ErrClientClosed indicates the client connection is no longer usable.
var ErrClientClosed = errors.New("bridge client closed")

// ResponseError is a non-ok response surfaced as a Go error.
type ResponseError struct {
	Status  wire.Status
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return string(e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// ClientConfig configures the controller side of the bridge.
type ClientConfig struct {
	// Fingerprint is the expected host certificate fingerprint
	// (lowercase SHA-256 hex). Required.
	Fingerprint string

	// Token is the session token attached to every request.
	Token string

	// AppName tags log events with the application-host name.
	AppName string

	// Logger receives protocol events. Optional.
	Logger log.Logger

	// KeepAlive configures liveness probing. Zero values mean
	// defaults.
	KeepAlive transport.KeepAliveConfig

	// DisableKeepAlive turns off liveness probing.
	DisableKeepAlive bool

	// MaxMessageSize limits frame payloads. Zero means the transport
	// default.
	MaxMessageSize uint32
}

// Client is a connected controller.
type Client struct {
	config     ClientConfig
	conn       *transport.ClientConn
	dispatcher *dispatch.Dispatcher
	keepalive  *transport.KeepAlive

	nextID atomic.Uint32

	pendMu  sync.Mutex
	pending map[uint32]chan *wire.Response

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

// Dial connects to a host and starts the read loop. The host is
// authenticated by certificate fingerprint.
func Dial(ctx context.Context, address string, config ClientConfig) (*Client, error) {
	if config.Fingerprint == "" {
		return nil, errors.New("host fingerprint is required")
	}

	tc, err := transport.NewClient(transport.ClientConfig{
		TLSConfig:      transport.NewPinnedClientTLSConfig(config.Fingerprint),
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.Logger,
	})
	if err != nil {
		return nil, err
	}

	conn, err := tc.Connect(ctx, address)
	if err != nil {
		return nil, err
	}

	// The controller-side dispatcher only serves inbound invokeCallback
	// requests; its surface is empty and stays frozen.
	surface := capability.NewSurface()
	if err := surface.Freeze(); err != nil {
		conn.Close()
		return nil, err
	}
	m := marshal.New(surface, handle.NewRegistry(), intrinsics.NewRegistry())

	c := &Client{
		config:     config,
		conn:       conn,
		dispatcher: dispatch.New(surface, policy.FromSurface(surface), m),
		pending:    make(map[uint32]chan *wire.Response),
		done:       make(chan struct{}),
	}

	if !config.DisableKeepAlive {
		c.keepalive = transport.NewKeepAlive(config.KeepAlive, c.sendPing, func() {
			c.Close()
		})
	}

	go c.readLoop()
	if c.keepalive != nil {
		c.keepalive.Start()
	}
	return c, nil
}

// Callbacks returns the registry serving invokeCallback requests from
// the host. Register callbacks before triggering operations that use
// them.
func (c *Client) Callbacks() *dispatch.CallbackRegistry {
	return c.dispatcher.Callbacks()
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.keepalive != nil {
			c.keepalive.Stop()
		}
		err = c.conn.Close()
	})
	return err
}

// Invoke sends a request and waits for its response. The message id
// and session token are filled in; other fields are the caller's.
// A non-ok status is returned as a *ResponseError.
func (c *Client) Invoke(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	req.MessageID = c.nextID.Add(1)
	if req.Token == "" {
		req.Token = c.config.Token
	}

	ch := make(chan *wire.Response, 1)
	c.pendMu.Lock()
	c.pending[req.MessageID] = ch
	c.pendMu.Unlock()
	defer func() {
		c.pendMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendMu.Unlock()
	}()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.conn.Send(data); err != nil {
		return nil, err
	}
	c.logEvent(requestEvent(log.RoleController, "", c.config.AppName, log.DirectionOut, req))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClientClosed
	case resp := <-ch:
		if resp == nil {
			return nil, ErrClientClosed
		}
		if !resp.IsSuccess() {
			re := &ResponseError{Status: resp.Status}
			if resp.Error != nil {
				re.Message = resp.Error.Message
			}
			return resp, re
		}
		return resp, nil
	}
}

// Ping checks host liveness. Works without a session token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Invoke(ctx, &wire.Request{Op: wire.OpPing})
	return err
}

// CreateObject invokes a declared constructor.
func (c *Client) CreateObject(ctx context.Context, assembly, typeName string, args ...wire.Value) (wire.Value, error) {
	return c.result(c.Invoke(ctx, &wire.Request{
		Op:       wire.OpCreateObject,
		Assembly: assembly,
		TypeName: typeName,
		Args:     args,
	}))
}

// InvokeStatic invokes a declared static method.
func (c *Client) InvokeStatic(ctx context.Context, assembly, typeName, member string, args ...wire.Value) (wire.Value, error) {
	return c.result(c.Invoke(ctx, &wire.Request{
		Op:       wire.OpInvokeStaticMethod,
		Assembly: assembly,
		TypeName: typeName,
		Member:   member,
		Args:     args,
	}))
}

// GetStaticProperty reads a declared static property.
func (c *Client) GetStaticProperty(ctx context.Context, assembly, typeName, member string) (wire.Value, error) {
	return c.result(c.Invoke(ctx, &wire.Request{
		Op:       wire.OpGetStaticProperty,
		Assembly: assembly,
		TypeName: typeName,
		Member:   member,
	}))
}

// SetStaticProperty writes a declared static property.
func (c *Client) SetStaticProperty(ctx context.Context, assembly, typeName, member string, value wire.Value) error {
	_, err := c.Invoke(ctx, &wire.Request{
		Op:       wire.OpSetStaticProperty,
		Assembly: assembly,
		TypeName: typeName,
		Member:   member,
		Value:    value,
	})
	return err
}

// InvokeMethod invokes a method on a handle.
func (c *Client) InvokeMethod(ctx context.Context, handleID, member string, args ...wire.Value) (wire.Value, error) {
	return c.result(c.Invoke(ctx, &wire.Request{
		Op:       wire.OpInvokeMethod,
		HandleID: handleID,
		Member:   member,
		Args:     args,
	}))
}

// GetProperty reads a property on a handle.
func (c *Client) GetProperty(ctx context.Context, handleID, member string) (wire.Value, error) {
	return c.result(c.Invoke(ctx, &wire.Request{
		Op:       wire.OpGetProperty,
		HandleID: handleID,
		Member:   member,
	}))
}

// SetProperty writes a property on a handle.
func (c *Client) SetProperty(ctx context.Context, handleID, member string, value wire.Value) error {
	_, err := c.Invoke(ctx, &wire.Request{
		Op:       wire.OpSetProperty,
		HandleID: handleID,
		Member:   member,
		Value:    value,
	})
	return err
}

// DisposeHandle removes one handle registry entry on the host,
// releasing the object it pinned. Disposing an unknown id succeeds.
func (c *Client) DisposeHandle(ctx context.Context, handleID string) error {
	_, err := c.Invoke(ctx, &wire.Request{
		Op:       wire.OpDisposeHandle,
		HandleID: handleID,
	})
	return err
}

// Cancel aborts an in-flight operation by its operation id. Unknown
// ids are a successful no-op on the host.
func (c *Client) Cancel(ctx context.Context, operationID string) error {
	_, err := c.Invoke(ctx, &wire.Request{
		Op:          wire.OpCancel,
		OperationID: operationID,
	})
	return err
}

func (c *Client) result(resp *wire.Response, err error) (wire.Value, error) {
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// sendPing probes host liveness with a ping request. The pong is the
// ping response; the sequence number only feeds the keep-alive
// bookkeeping.
func (c *Client) sendPing(seq uint32) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), transport.DefaultPongTimeout)
		defer cancel()
		if err := c.Ping(ctx); err == nil {
			c.keepalive.PongReceived(seq)
		}
	}()
	return nil
}

func (c *Client) readLoop() {
	defer func() {
		c.Close()
		close(c.done)
		c.failPending()
	}()

	for {
		payload, err := c.conn.Receive(0)
		if err != nil {
			return
		}

		mt, err := wire.PeekMessageType(payload)
		if err != nil {
			c.logEvent(errorEvent(log.RoleController, "", c.config.AppName, err, "peek message"))
			continue
		}

		switch mt {
		case wire.MessageTypeResponse:
			resp, err := wire.DecodeResponse(payload)
			if err != nil {
				c.logEvent(errorEvent(log.RoleController, "", c.config.AppName, err, "decode response"))
				continue
			}
			c.logEvent(responseEvent(log.RoleController, "", c.config.AppName, log.DirectionIn, resp, 0, log.CategoryMessage))
			c.resolve(resp)

		case wire.MessageTypeRequest:
			req, err := wire.DecodeRequest(payload)
			if err != nil {
				c.logEvent(errorEvent(log.RoleController, "", c.config.AppName, err, "decode request"))
				continue
			}
			c.logEvent(requestEvent(log.RoleController, "", c.config.AppName, log.DirectionIn, req))
			// Callbacks can block on user interaction; keep the read
			// loop free.
			go c.serveCallback(req)
		}
	}
}

// serveCallback answers an inbound invokeCallback from the host.
func (c *Client) serveCallback(req *wire.Request) {
	resp := c.dispatcher.Handle(context.Background(), req)
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		c.logEvent(errorEvent(log.RoleController, "", c.config.AppName, err, "encode callback response"))
		return
	}
	if err := c.conn.Send(data); err != nil {
		return
	}
	c.logEvent(responseEvent(log.RoleController, "", c.config.AppName, log.DirectionOut, resp, 0, log.CategoryMessage))
}

func (c *Client) resolve(resp *wire.Response) {
	c.pendMu.Lock()
	ch := c.pending[resp.MessageID]
	delete(c.pending, resp.MessageID)
	c.pendMu.Unlock()
	if ch != nil {
		ch <- resp
	}
}

func (c *Client) failPending() {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) logEvent(event log.Event) {
	if c.config.Logger != nil {
		c.config.Logger.Log(event)
	}
}
