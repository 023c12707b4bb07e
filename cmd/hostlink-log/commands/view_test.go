package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      128,
			Data:      []byte{0x7b, 0x22, 0x69, 0x64},
			Truncated: false,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:32.123456Z") {
		t.Errorf("expected timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "OUT") {
		t.Errorf("expected OUT direction, got: %s", output)
	}
	if !strings.Contains(output, "TRANSPORT") {
		t.Errorf("expected TRANSPORT layer, got: %s", output)
	}
	if !strings.Contains(output, "128 bytes") {
		t.Errorf("expected frame size, got: %s", output)
	}
	if !strings.Contains(output, "7b226964") {
		t.Errorf("expected hex frame data, got: %s", output)
	}
}

func TestFormatMessageEventRequest(t *testing.T) {
	op := wire.OpInvokeMethod
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "abc12345",
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MessageID: 42,
			Operation: &op,
			HandleID:  "h-1",
			Member:    "addContainer",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "REQUEST") {
		t.Errorf("expected REQUEST type, got: %s", output)
	}
	if !strings.Contains(output, "MessageID: 42") {
		t.Errorf("expected message id, got: %s", output)
	}
	if !strings.Contains(output, "invokeMethod") {
		t.Errorf("expected operation, got: %s", output)
	}
	if !strings.Contains(output, "Handle: h-1") {
		t.Errorf("expected handle, got: %s", output)
	}
	if !strings.Contains(output, "Member: addContainer") {
		t.Errorf("expected member, got: %s", output)
	}
}

func TestFormatMessageEventFreshLookup(t *testing.T) {
	op := wire.OpInvokeStaticMethod
	event := log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MessageID: 7,
			Operation: &op,
			Assembly:  "HostLink.Hosting",
			TypeName:  "Environment",
			Member:    "greet",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Target: HostLink.Hosting.Environment.greet") {
		t.Errorf("expected fresh-lookup target, got: %s", output)
	}
}

func TestFormatMessageEventResponse(t *testing.T) {
	status := wire.StatusOK
	dur := 1500 * time.Microsecond
	event := log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:           log.MessageTypeResponse,
			MessageID:      42,
			Status:         &status,
			ProcessingTime: &dur,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "RESPONSE") {
		t.Errorf("expected RESPONSE type, got: %s", output)
	}
	if !strings.Contains(output, "Status: ok") {
		t.Errorf("expected status, got: %s", output)
	}
	if !strings.Contains(output, "1.500ms") {
		t.Errorf("expected duration, got: %s", output)
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   "EOF",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "CONNECTION") {
		t.Errorf("expected entity, got: %s", output)
	}
	if !strings.Contains(output, "CONNECTED -> DISCONNECTED") {
		t.Errorf("expected transition, got: %s", output)
	}
	if !strings.Contains(output, "Reason: EOF") {
		t.Errorf("expected reason, got: %s", output)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Nanosecond, "0.500us"},
		{250 * time.Microsecond, "250.000us"},
		{15 * time.Millisecond, "15.000ms"},
		{2 * time.Second, "2.000s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Wire"); err != nil || l != log.LayerWire {
		t.Errorf("ParseLayerFlag(Wire) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("IN"); err != nil || d != log.DirectionIn {
		t.Errorf("ParseDirectionFlag(IN) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("up"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if c, err := ParseCategoryFlag("error"); err != nil || c != log.CategoryError {
		t.Errorf("ParseCategoryFlag(error) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
	if k, err := ParseKindFlag("Request"); err != nil || k != log.KindRequest {
		t.Errorf("ParseKindFlag(Request) = %v, %v", k, err)
	}
	if _, err := ParseKindFlag("packet"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if op, err := ParseOperationFlag("invokemethod"); err != nil || op != wire.OpInvokeMethod {
		t.Errorf("ParseOperationFlag(invokemethod) = %v, %v", op, err)
	}
	if _, err := ParseOperationFlag("teleport"); err == nil {
		t.Error("expected error for unknown operation")
	}
	if s, err := ParseStatusFlag("notfound"); err != nil || s != wire.StatusNotFound {
		t.Errorf("ParseStatusFlag(notfound) = %v, %v", s, err)
	}
	if _, err := ParseStatusFlag("teapot"); err == nil {
		t.Error("expected error for unknown status")
	}
}
