package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/cert"
)

type echoHarness struct {
	server      *Server
	fingerprint string

	mu           sync.Mutex
	connected    []string
	disconnected []string
}

// newEchoHarness starts a server on a random port that echoes every
// frame back to the sender.
func newEchoHarness(t *testing.T) *echoHarness {
	t.Helper()

	identity, err := cert.Generate("test-host", "localhost", "127.0.0.1")
	require.NoError(t, err)

	h := &echoHarness{fingerprint: cert.Fingerprint(identity.Certificate)}

	server, err := NewServer(ServerConfig{
		TLSConfig: NewServerTLSConfig(identity, nil),
		Address:   "127.0.0.1:0",
		OnConnect: func(conn *ServerConn) {
			h.mu.Lock()
			h.connected = append(h.connected, conn.ID())
			h.mu.Unlock()
		},
		OnDisconnect: func(conn *ServerConn, err error) {
			h.mu.Lock()
			h.disconnected = append(h.disconnected, conn.ID())
			h.mu.Unlock()
		},
		OnMessage: func(conn *ServerConn, payload []byte) {
			conn.Send(payload)
		},
	})
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Stop() })

	h.server = server
	return h
}

func (h *echoHarness) dial(t *testing.T) *ClientConn {
	t.Helper()

	client, err := NewClient(ClientConfig{
		TLSConfig: NewPinnedClientTLSConfig(h.fingerprint),
	})
	require.NoError(t, err)

	conn, err := client.Connect(context.Background(), h.server.Address().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerEchoRoundTrip(t *testing.T) {
	h := newEchoHarness(t)
	conn := h.dial(t)

	require.NoError(t, conn.Send([]byte(`{"id":1,"op":"ping"}`)))
	got, err := conn.Receive(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"op":"ping"}`, string(got))

	assert.NoError(t, VerifyConnection(conn.ConnectionState()))
}

func TestServerTracksConnections(t *testing.T) {
	h := newEchoHarness(t)
	conn := h.dial(t)

	require.Eventually(t, func() bool {
		return h.server.ConnectionCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return h.server.ConnectionCount() == 0
	}, 5*time.Second, 10*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.connected, 1)
	require.Len(t, h.disconnected, 1)
	assert.Equal(t, h.connected[0], h.disconnected[0])
}

func TestClientRejectsWrongFingerprint(t *testing.T) {
	h := newEchoHarness(t)

	client, err := NewClient(ClientConfig{
		TLSConfig: NewPinnedClientTLSConfig("deadbeef"),
	})
	require.NoError(t, err)

	_, err = client.Connect(context.Background(), h.server.Address().String())
	require.Error(t, err)
}

func TestClientSendAfterClose(t *testing.T) {
	h := newEchoHarness(t)
	conn := h.dial(t)

	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send([]byte("late")), ErrConnectionClosed)
	_, err := conn.Receive(time.Second)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestClientReceiveTimeout(t *testing.T) {
	h := newEchoHarness(t)
	conn := h.dial(t)

	_, err := conn.Receive(50 * time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiveTimeout)
}

func TestServerStopClosesConnections(t *testing.T) {
	h := newEchoHarness(t)
	conn := h.dial(t)

	require.NoError(t, h.server.Stop())

	_, err := conn.Receive(5 * time.Second)
	require.Error(t, err)
}

func TestServerRequiresConfig(t *testing.T) {
	_, err := NewServer(ServerConfig{Address: ":0"})
	assert.Error(t, err)

	identity, err := cert.Generate("x")
	require.NoError(t, err)
	_, err = NewServer(ServerConfig{TLSConfig: NewServerTLSConfig(identity, nil)})
	assert.Error(t, err)
}
