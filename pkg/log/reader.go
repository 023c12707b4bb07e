package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// Filter selects events while reading a .hlog file. Zero fields match
// everything; every set field must match.
type Filter struct {
	// ConnectionID selects one connection.
	ConnectionID string

	// AppName selects one application host.
	AppName string

	// Kind selects by Event.Kind label: "frame", "request",
	// "response", "state", or "error".
	Kind string

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// Operation selects message events carrying this bridge
	// operation, e.g. invokeMethod or createObject.
	Operation *wire.Operation

	// Status selects responses carrying this status tag.
	Status *wire.Status

	// MessageID selects one request/response exchange.
	MessageID *uint32

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

func (f *Filter) matches(event Event) bool {
	if f.ConnectionID != "" && event.ConnectionID != f.ConnectionID {
		return false
	}
	if f.AppName != "" && event.AppName != f.AppName {
		return false
	}
	if f.Kind != "" && event.Kind() != f.Kind {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Operation != nil {
		if event.Message == nil || event.Message.Operation == nil ||
			*event.Message.Operation != *f.Operation {
			return false
		}
	}
	if f.Status != nil {
		if event.Message == nil || event.Message.Status == nil ||
			*event.Message.Status != *f.Status {
			return false
		}
	}
	if f.MessageID != nil {
		if event.Message == nil || event.Message.MessageID != *f.MessageID {
			return false
		}
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events from a .hlog file, skipping events the filter
// rejects.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads every event in the file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at end of file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll loads every matching event from a .hlog file. Intended for
// tooling; streaming callers should use Reader.
func ReadAll(path string, filter Filter) ([]Event, error) {
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
}
