package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// csvHeader defines the flat CSV projection of an event. The kind,
// operation, status, and target columns carry the bridge-level view;
// frame sizes and state transitions land in the detail column.
var csvHeader = []string{
	"timestamp", "connection_id", "direction", "layer", "category",
	"role", "app", "kind", "message_id", "operation", "status",
	"target", "detail",
}

// RunExport exports matching events as jsonl or csv.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
}

// csvRow projects one event onto the csvHeader columns.
func csvRow(event log.Event) []string {
	var msgID, operation, status, target, detail string

	switch {
	case event.Message != nil:
		msg := event.Message
		msgID = strconv.FormatUint(uint64(msg.MessageID), 10)
		if msg.Operation != nil {
			operation = string(*msg.Operation)
		}
		if msg.Status != nil {
			status = string(*msg.Status)
		}
		target = msg.Target()
		if msg.ProcessingTime != nil {
			detail = formatDuration(*msg.ProcessingTime)
		}
	case event.Frame != nil:
		detail = fmt.Sprintf("%d bytes", event.Frame.Size)
	case event.StateChange != nil:
		sc := event.StateChange
		detail = fmt.Sprintf("%s %s->%s", sc.Entity, sc.OldState, sc.NewState)
	case event.Error != nil:
		detail = event.Error.Message
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ConnectionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.LocalRole.String(),
		event.AppName,
		event.Kind(),
		msgID,
		operation,
		status,
		target,
		detail,
	}
}
