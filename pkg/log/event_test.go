package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

func TestRequestEventRoundTrip(t *testing.T) {
	op := wire.OpInvokeMethod
	event := Event{
		Timestamp:    time.Now().UTC().Truncate(time.Millisecond),
		ConnectionID: "conn-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleHost,
		RemoteAddr:   "192.168.1.20:52110",
		AppName:      "shop",
		Message: &MessageEvent{
			Type:      MessageTypeRequest,
			MessageID: 42,
			Operation: &op,
			HandleID:  "h-123",
			Member:    "addContainer",
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Layer, decoded.Layer)
	assert.Equal(t, event.LocalRole, decoded.LocalRole)
	assert.Equal(t, event.AppName, decoded.AppName)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, uint32(42), decoded.Message.MessageID)
	require.NotNil(t, decoded.Message.Operation)
	assert.Equal(t, wire.OpInvokeMethod, *decoded.Message.Operation)
	assert.Equal(t, "h-123", decoded.Message.HandleID)
	assert.Equal(t, "addContainer", decoded.Message.Member)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
}

func TestFrameEventRoundTrip(t *testing.T) {
	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-2",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Frame: &FrameEvent{
			Size:      1024,
			Data:      []byte{0x00, 0x00, 0x04, 0x00},
			Truncated: true,
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Frame)
	assert.Equal(t, 1024, decoded.Frame.Size)
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0x00}, decoded.Frame.Data)
	assert.True(t, decoded.Frame.Truncated)
}

func TestEventKind(t *testing.T) {
	status := wire.StatusOK
	tests := []struct {
		name  string
		event Event
		kind  string
	}{
		{"frame", Event{Frame: &FrameEvent{Size: 8}}, KindFrame},
		{"request", Event{Message: &MessageEvent{Type: MessageTypeRequest}}, KindRequest},
		{"response", Event{Message: &MessageEvent{Type: MessageTypeResponse, Status: &status}}, KindResponse},
		{"state", Event{StateChange: &StateChangeEvent{NewState: "ESTABLISHED"}}, KindState},
		{"error", Event{Error: &ErrorEventData{Message: "boom"}}, KindError},
		{"empty", Event{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.event.Kind())
		})
	}
}

func TestMessageEventTarget(t *testing.T) {
	fresh := &MessageEvent{Assembly: "HostLink.Hosting", TypeName: "Builder", Member: "create"}
	assert.Equal(t, "HostLink.Hosting.Builder.create", fresh.Target())

	prop := &MessageEvent{Assembly: "HostLink.Hosting", TypeName: "Environment"}
	assert.Equal(t, "HostLink.Hosting.Environment", prop.Target())

	onHandle := &MessageEvent{HandleID: "h-9", Member: "image"}
	assert.Equal(t, "h-9.image", onHandle.Target())

	response := &MessageEvent{Type: MessageTypeResponse}
	assert.Equal(t, "", response.Target())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "IN", DirectionIn.String())
	assert.Equal(t, "OUT", DirectionOut.String())
	assert.Equal(t, "TRANSPORT", LayerTransport.String())
	assert.Equal(t, "WIRE", LayerWire.String())
	assert.Equal(t, "BRIDGE", LayerBridge.String())
	assert.Equal(t, "MESSAGE", CategoryMessage.String())
	assert.Equal(t, "CONTROL", CategoryControl.String())
	assert.Equal(t, "STATE", CategoryState.String())
	assert.Equal(t, "ERROR", CategoryError.String())
	assert.Equal(t, "HOST", RoleHost.String())
	assert.Equal(t, "CONTROLLER", RoleController.String())
	assert.Equal(t, "REQUEST", MessageTypeRequest.String())
	assert.Equal(t, "RESPONSE", MessageTypeResponse.String())
	assert.Equal(t, "SESSION", StateEntitySession.String())
	assert.Equal(t, "UNKNOWN", Direction(9).String())
}
