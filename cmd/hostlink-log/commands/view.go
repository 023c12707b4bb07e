// Package commands implements the hostlink-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// RunView pretty-prints matching events from a log file.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes one event as a header line plus indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	// Control traffic (ping, cancel) is marked CTRL in the header so
	// it stands out from application calls.
	layer := event.Layer.String()
	if event.Category == log.CategoryControl {
		layer = "CTRL"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, layer, headerLabel(event))

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// headerLabel is REQUEST/RESPONSE for wire envelopes and the uppercase
// kind for everything else.
func headerLabel(event log.Event) string {
	if event.Message != nil {
		return event.Message.Type.String()
	}
	return strings.ToUpper(event.Kind())
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  MessageID: %d\n", msg.MessageID)

	switch msg.Type {
	case log.MessageTypeRequest:
		if msg.Operation != nil {
			fmt.Fprintf(w, "  Operation: %s\n", string(*msg.Operation))
		}
		if msg.Assembly != "" {
			fmt.Fprintf(w, "  Target: %s\n", msg.Target())
		} else if msg.HandleID != "" {
			fmt.Fprintf(w, "  Handle: %s", msg.HandleID)
			if msg.Member != "" {
				fmt.Fprintf(w, "  Member: %s", msg.Member)
			}
			fmt.Fprintln(w)
		}

	case log.MessageTypeResponse:
		if msg.Status != nil {
			fmt.Fprintf(w, "  Status: %s\n", string(*msg.Status))
		}
		if msg.ProcessingTime != nil {
			fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*msg.ProcessingTime))
		}
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a processing time for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a -layer flag value (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "bridge":
		return log.LayerBridge, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, or bridge)", s)
	}
}

// ParseDirectionFlag parses a -direction flag value (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a -category flag value (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, control, state, or error)", s)
	}
}

// ParseKindFlag parses a -kind flag value (case-insensitive).
func ParseKindFlag(s string) (string, error) {
	kind := strings.ToLower(s)
	switch kind {
	case log.KindFrame, log.KindRequest, log.KindResponse, log.KindState, log.KindError:
		return kind, nil
	default:
		return "", fmt.Errorf("invalid kind: %s (must be frame, request, response, state, or error)", s)
	}
}

// ParseStatusFlag parses a -status flag value against the wire status
// vocabulary (case-insensitive).
func ParseStatusFlag(s string) (wire.Status, error) {
	for _, status := range []wire.Status{
		wire.StatusOK, wire.StatusUnauthorized, wire.StatusNotFound,
		wire.StatusContractViolation, wire.StatusCoercionError,
		wire.StatusCancelled, wire.StatusInternal,
	} {
		if strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// ParseOperationFlag parses a -op flag value against the bridge
// operation vocabulary (case-insensitive).
func ParseOperationFlag(s string) (wire.Operation, error) {
	for _, op := range []wire.Operation{
		wire.OpPing, wire.OpInvokeStaticMethod, wire.OpCreateObject,
		wire.OpGetStaticProperty, wire.OpSetStaticProperty,
		wire.OpInvokeMethod, wire.OpGetProperty, wire.OpSetProperty,
		wire.OpDisposeHandle, wire.OpCancel, wire.OpInvokeCallback,
	} {
		if strings.EqualFold(s, string(op)) {
			return op, nil
		}
	}
	return "", fmt.Errorf("invalid operation: %s", s)
}
