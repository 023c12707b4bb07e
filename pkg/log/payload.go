package log

import (
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// FrameEvent is a raw transport frame. Data may be truncated for large
// frames; Size always reflects the full frame including the length
// prefix.
type FrameEvent struct {
	Size      int    `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint,omitempty"`
	Truncated bool   `cbor:"3,keyasint,omitempty"`
}

// MessageEvent is a decoded envelope at the wire layer. Which fields
// are set depends on the operation: fresh lookups carry Assembly and
// TypeName, handle operations carry HandleID, responses carry Status.
type MessageEvent struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`

	// Request side.
	Operation *wire.Operation `cbor:"3,keyasint,omitempty"`
	Assembly  string          `cbor:"4,keyasint,omitempty"`
	TypeName  string          `cbor:"5,keyasint,omitempty"`
	Member    string          `cbor:"6,keyasint,omitempty"`
	HandleID  string          `cbor:"7,keyasint,omitempty"`

	// Response side. ProcessingTime is receipt-to-send on the serving
	// endpoint, stored as nanoseconds; absent elsewhere.
	Status         *wire.Status   `cbor:"8,keyasint,omitempty"`
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// Target renders the request target: "assembly.type.member" for fresh
// lookups, "handle.member" for handle operations, or "" for responses.
func (m *MessageEvent) Target() string {
	switch {
	case m.Assembly != "":
		s := m.Assembly + "." + m.TypeName
		if m.Member != "" {
			s += "." + m.Member
		}
		return s
	case m.HandleID != "":
		if m.Member != "" {
			return m.HandleID + "." + m.Member
		}
		return m.HandleID
	default:
		return ""
	}
}

// MessageType distinguishes request and response envelopes.
type MessageType uint8

const (
	MessageTypeRequest  MessageType = 0
	MessageTypeResponse MessageType = 1
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent is a lifecycle transition of a connection, a bridge
// session, or the hosted application.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity is what a StateChangeEvent describes.
type StateEntity uint8

const (
	StateEntityConnection StateEntity = 0
	StateEntitySession    StateEntity = 1
	StateEntityApp        StateEntity = 2
)

func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityApp:
		return "APP"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData is a failure at any layer. Context names what was
// being done when the error occurred.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Context string `cbor:"3,keyasint,omitempty"`
}
