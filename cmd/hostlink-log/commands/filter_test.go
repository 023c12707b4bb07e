package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// writeSampleLog writes a small log file with a known mix of events and
// returns its path.
func writeSampleLog(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.hlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	op := wire.OpPing
	status := wire.StatusOK

	logger.Log(log.Event{
		Timestamp:    base,
		ConnectionID: "conn-a",
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		AppName:      "shop",
		Frame:        &log.FrameEvent{Size: 32, Data: []byte(`{"id":1}`)},
	})
	logger.Log(log.Event{
		Timestamp:    base.Add(time.Millisecond),
		ConnectionID: "conn-a",
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryControl,
		AppName:      "shop",
		Message:      &log.MessageEvent{Type: log.MessageTypeRequest, MessageID: 1, Operation: &op},
	})
	logger.Log(log.Event{
		Timestamp:    base.Add(2 * time.Millisecond),
		ConnectionID: "conn-a",
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryControl,
		AppName:      "shop",
		Message:      &log.MessageEvent{Type: log.MessageTypeResponse, MessageID: 1, Status: &status},
	})
	logger.Log(log.Event{
		Timestamp:    base.Add(3 * time.Millisecond),
		ConnectionID: "conn-b",
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Error:        &log.ErrorEventData{Layer: log.LayerTransport, Message: "frame truncated"},
	})

	return path
}

func countEvents(t *testing.T, path string) int {
	t.Helper()

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		count++
	}
	return count
}

func TestRunFilterByLayer(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Layer: "wire"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 2 {
		t.Errorf("expected 2 wire events, got %d", got)
	}
}

func TestRunFilterByConnection(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, ConnID: "conn-b"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 1 {
		t.Errorf("expected 1 event for conn-b, got %d", got)
	}
}

func TestRunFilterByApp(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, AppName: "shop"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 3 {
		t.Errorf("expected 3 events for app shop, got %d", got)
	}
}

func TestRunFilterTimeRange(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{
		Output:    output,
		TimeStart: "2026-02-10T09:00:00.001Z",
		TimeEnd:   "2026-02-10T09:00:00.003Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 2 {
		t.Errorf("expected 2 events in range, got %d", got)
	}
}

func TestRunFilterByKind(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Kind: "request"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 1 {
		t.Errorf("expected 1 request event, got %d", got)
	}
}

func TestRunFilterByOperation(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Operation: "ping"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 1 {
		t.Errorf("expected 1 ping event, got %d", got)
	}
}

func TestRunFilterByStatus(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Status: "ok"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 1 {
		t.Errorf("expected 1 ok response, got %d", got)
	}
}

func TestRunFilterExcludeControl(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	// The ping exchange is control traffic; filtering on message
	// category leaves the frame only.
	err := RunFilter(path, FilterOptions{Output: output, Category: "message"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	if got := countEvents(t, output); got != 1 {
		t.Errorf("expected 1 message-category event, got %d", got)
	}
}

func TestRunFilterInvalidOperation(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Operation: "teleport"})
	if err == nil {
		t.Error("expected error for invalid operation")
	}
}

func TestRunFilterInvalidTime(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, TimeStart: "yesterday"})
	if err == nil {
		t.Error("expected error for invalid time format")
	}
}

func TestRunFilterInvalidLayer(t *testing.T) {
	path := writeSampleLog(t)
	output := filepath.Join(t.TempDir(), "filtered.hlog")

	err := RunFilter(path, FilterOptions{Output: output, Layer: "session"})
	if err == nil {
		t.Error("expected error for invalid layer")
	}
}
