package bridge

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/cert"
	"github.com/hostlink-protocol/hostlink-go/pkg/dispatch"
	"github.com/hostlink-protocol/hostlink-go/pkg/handle"
	"github.com/hostlink-protocol/hostlink-go/pkg/intrinsics"
	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/marshal"
	"github.com/hostlink-protocol/hostlink-go/pkg/policy"
	"github.com/hostlink-protocol/hostlink-go/pkg/resource"
	"github.com/hostlink-protocol/hostlink-go/pkg/session"
	"github.com/hostlink-protocol/hostlink-go/pkg/transport"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

type bridgeHarness struct {
	host        *Host
	marshaller  *marshal.Marshaller
	sess        *session.Session
	fingerprint string
	address     string
}

// newBridgeHarness starts a host serving a small capability surface
// over loopback TLS.
func newBridgeHarness(t *testing.T) *bridgeHarness {
	t.Helper()

	surface := capability.NewSurface()
	hosting := surface.AddAssembly("HostLink.Hosting")
	hosting.AddType("Builder", reflect.TypeOf((*resource.Builder)(nil))).
		SetConstructor(resource.NewBuilder)
	hosting.AddType("Environment", reflect.TypeOf(struct{}{})).
		AddStaticMethod("greet", func(name string) string {
			return "hello " + name
		}).
		AddStaticMethod("wait", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}).
		AddStaticMethod("confirm", func(ctx context.Context, prompt string) (bool, error) {
			inv, ok := dispatch.CallbacksFrom(ctx)
			if !ok {
				return false, nil
			}
			result, err := inv.InvokeCallback(ctx, "confirm", prompt)
			if err != nil {
				return false, err
			}
			ok, _ = result.(bool)
			return ok, nil
		})
	surface.Allow("HostLink.Hosting")
	require.NoError(t, surface.Freeze())

	m := marshal.New(surface, handle.NewRegistry(), intrinsics.NewRegistry())
	d := dispatch.New(surface, policy.FromSurface(surface), m)

	sess, err := session.NewRandom()
	require.NoError(t, err)
	d.SetAuthenticator(sess)

	identity, err := cert.Generate("test-host", "127.0.0.1")
	require.NoError(t, err)

	host, err := NewHost(HostConfig{
		Dispatcher: d,
		Marshaller: m,
		Identity:   identity,
		Address:    "127.0.0.1:0",
		AppName:    "shop",
	})
	require.NoError(t, err)
	require.NoError(t, host.Start())
	t.Cleanup(func() { host.Stop() })

	return &bridgeHarness{
		host:        host,
		marshaller:  m,
		sess:        sess,
		fingerprint: cert.Fingerprint(identity.Certificate),
		address:     host.Address().String(),
	}
}

func (h *bridgeHarness) dial(t *testing.T) *Client {
	t.Helper()

	client, err := Dial(context.Background(), h.address, ClientConfig{
		Fingerprint:      h.fingerprint,
		Token:            h.sess.Token(),
		AppName:          "shop",
		DisableKeepAlive: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPingWithoutToken(t *testing.T) {
	h := newBridgeHarness(t)

	client, err := Dial(context.Background(), h.address, ClientConfig{
		Fingerprint:      h.fingerprint,
		DisableKeepAlive: true,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestWrongTokenIsUnauthorized(t *testing.T) {
	h := newBridgeHarness(t)

	client, err := Dial(context.Background(), h.address, ClientConfig{
		Fingerprint:      h.fingerprint,
		Token:            "not-the-token",
		DisableKeepAlive: true,
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "greet", wire.String("x"))
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.StatusUnauthorized, re.Status)
}

func TestStaticInvocation(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	result, err := client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "greet", wire.String("world"))
	require.NoError(t, err)
	assert.Equal(t, wire.String("hello world"), result)
}

func TestObjectLifecycleOverBridge(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)
	ctx := context.Background()

	builder, err := client.CreateObject(ctx, "HostLink.Hosting", "Builder", wire.String("shop"))
	require.NoError(t, err)
	builderID, typeID, ok := wire.HandleRef(builder)
	require.True(t, ok)
	assert.Equal(t, "host/Builder", typeID)

	container, err := client.InvokeMethod(ctx, builderID, "addContainer",
		wire.String("cache"), wire.String("redis:7"))
	require.NoError(t, err)
	rbID, _, ok := wire.HandleRef(container)
	require.True(t, ok)

	resourceVal, err := client.GetProperty(ctx, rbID, "resource")
	require.NoError(t, err)
	resourceID, resourceTypeID, ok := wire.HandleRef(resourceVal)
	require.True(t, ok)
	assert.Equal(t, "host/Container", resourceTypeID)

	image, err := client.GetProperty(ctx, resourceID, "image")
	require.NoError(t, err)
	assert.Equal(t, wire.String("redis:7"), image)
}

func TestDisposeHandleOverBridge(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)
	ctx := context.Background()

	builder, err := client.CreateObject(ctx, "HostLink.Hosting", "Builder", wire.String("shop"))
	require.NoError(t, err)
	builderID, _, ok := wire.HandleRef(builder)
	require.True(t, ok)

	require.NoError(t, client.DisposeHandle(ctx, builderID))

	_, err = client.InvokeMethod(ctx, builderID, "addContainer",
		wire.String("cache"), wire.String("redis:7"))
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.StatusContractViolation, re.Status,
		"a disposed handle behaves like one that was never issued")

	assert.NoError(t, client.DisposeHandle(ctx, "never-issued"),
		"disposing an unknown id is a no-op")
}

func TestDisconnectRevokesHandles(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)
	ctx := context.Background()

	builder, err := client.CreateObject(ctx, "HostLink.Hosting", "Builder", wire.String("shop"))
	require.NoError(t, err)
	builderID, _, ok := wire.HandleRef(builder)
	require.True(t, ok)
	require.Equal(t, 1, h.marshaller.Handles().Count())

	require.NoError(t, client.Close())

	// The last controller leaving bulk-revokes the registry.
	require.Eventually(t, func() bool {
		return h.marshaller.Handles().Count() == 0
	}, 5*time.Second, 10*time.Millisecond)

	second := h.dial(t)
	_, err = second.InvokeMethod(ctx, builderID, "addContainer",
		wire.String("cache"), wire.String("redis:7"))
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.StatusContractViolation, re.Status,
		"handle ids do not outlive the session that received them")
}

func TestBlockedAssemblyOverBridge(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	_, err := client.CreateObject(context.Background(), "HostLink.Secrets", "Vault")
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.StatusNotFound, re.Status)
	assert.Equal(t, "target not found", re.Message)
}

func TestCallbackRoundTrip(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	var mu sync.Mutex
	var prompts []string
	require.NoError(t, client.Callbacks().Register("confirm", func(prompt string) bool {
		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()
		return true
	}))

	result, err := client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "confirm", wire.String("delete everything?"))
	require.NoError(t, err)
	assert.Equal(t, wire.Bool(true), result)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"delete everything?"}, prompts)
}

func TestUnregisteredCallbackFails(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	_, err := client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "confirm", wire.String("?"))
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, wire.StatusInternal, re.Status)
}

func TestCancelOverBridge(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Invoke(ctx, &wire.Request{
			Op:          wire.OpInvokeStaticMethod,
			OperationID: "op-1",
			Assembly:    "HostLink.Hosting",
			TypeName:    "Environment",
			Member:      "wait",
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return h.host.config.Dispatcher.Cancels().Pending() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Cancel(ctx, "op-1"))

	select {
	case err := <-errCh:
		var re *ResponseError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, wire.StatusCancelled, re.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked operation did not cancel")
	}
}

func TestConcurrentInvocations(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := client.InvokeStatic(context.Background(),
				"HostLink.Hosting", "Environment", "greet", wire.String("n"))
			assert.NoError(t, err)
			assert.Equal(t, wire.String("hello n"), result)
		}()
	}
	wg.Wait()
}

func TestKeepAliveOverBridge(t *testing.T) {
	h := newBridgeHarness(t)

	client, err := Dial(context.Background(), h.address, ClientConfig{
		Fingerprint: h.fingerprint,
		Token:       h.sess.Token(),
		KeepAlive: transport.KeepAliveConfig{
			PingInterval:   20 * time.Millisecond,
			PongTimeout:    2 * time.Second,
			MaxMissedPongs: 3,
		},
	})
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool {
		return client.keepalive.Stats().PongsReceived >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClientSurfacesDisconnect(t *testing.T) {
	h := newBridgeHarness(t)
	client := h.dial(t)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, h.host.Stop())

	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not observe disconnect")
	}

	err := client.Ping(context.Background())
	assert.Error(t, err)
}

func TestHostLogsWireEvents(t *testing.T) {
	logger := &captureLogger{}

	surface := capability.NewSurface()
	surface.AddAssembly("HostLink.Hosting").
		AddType("Environment", reflect.TypeOf(struct{}{})).
		AddStaticMethod("greet", func() string { return "hi" })
	surface.Allow("HostLink.Hosting")
	require.NoError(t, surface.Freeze())

	m := marshal.New(surface, handle.NewRegistry(), intrinsics.NewRegistry())
	identity, err := cert.Generate("test-host", "127.0.0.1")
	require.NoError(t, err)

	host, err := NewHost(HostConfig{
		Dispatcher: dispatch.New(surface, policy.FromSurface(surface), m),
		Marshaller: m,
		Identity:   identity,
		Address:    "127.0.0.1:0",
		AppName:    "shop",
		Logger:     logger,
	})
	require.NoError(t, err)
	require.NoError(t, host.Start())
	defer host.Stop()

	client, err := Dial(context.Background(), host.Address().String(), ClientConfig{
		Fingerprint:      cert.Fingerprint(identity.Certificate),
		DisableKeepAlive: true,
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "greet")
	require.NoError(t, err)

	var reqEvent, respEvent *log.Event
	for _, event := range logger.snapshot() {
		if event.Layer != log.LayerWire || event.Message == nil {
			continue
		}
		e := event
		switch event.Message.Type {
		case log.MessageTypeRequest:
			if e.Message.Operation != nil && *e.Message.Operation == wire.OpInvokeStaticMethod {
				reqEvent = &e
			}
		case log.MessageTypeResponse:
			if respEvent == nil || e.Message.ProcessingTime != nil {
				respEvent = &e
			}
		}
	}

	require.NotNil(t, reqEvent)
	assert.Equal(t, "HostLink.Hosting", reqEvent.Message.Assembly)
	assert.Equal(t, "greet", reqEvent.Message.Member)
	assert.Equal(t, log.RoleHost, reqEvent.LocalRole)
	assert.Equal(t, "shop", reqEvent.AppName)

	require.NotNil(t, respEvent)
	require.NotNil(t, respEvent.Message.Status)
	assert.Equal(t, wire.StatusOK, *respEvent.Message.Status)
	require.NotNil(t, respEvent.Message.ProcessingTime)
	assert.Greater(t, *respEvent.Message.ProcessingTime, time.Duration(0))
}

func TestControlTrafficCategorized(t *testing.T) {
	h := newBridgeHarness(t)
	logger := &captureLogger{}

	client, err := Dial(context.Background(), h.address, ClientConfig{
		Fingerprint:      h.fingerprint,
		Token:            h.sess.Token(),
		AppName:          "shop",
		Logger:           logger,
		DisableKeepAlive: true,
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	_, err = client.InvokeStatic(context.Background(),
		"HostLink.Hosting", "Environment", "greet", wire.String("x"))
	require.NoError(t, err)

	categories := map[wire.Operation]log.Category{}
	for _, event := range logger.snapshot() {
		if event.Message == nil || event.Message.Type != log.MessageTypeRequest {
			continue
		}
		if event.Message.Operation != nil {
			categories[*event.Message.Operation] = event.Category
		}
	}

	assert.Equal(t, log.CategoryControl, categories[wire.OpPing],
		"liveness traffic is control, so filters can exclude the chatter")
	assert.Equal(t, log.CategoryMessage, categories[wire.OpInvokeStaticMethod])
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(event log.Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *captureLogger) snapshot() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}
