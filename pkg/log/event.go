package log

import (
	"time"
)

// Event is one protocol observation: a raw frame on the transport, a
// decoded envelope on the wire, a lifecycle transition in the bridge,
// or an error at any of those layers.
//
// Events encode to CBOR with integer keys. The key assignments are
// part of the .hlog file format; keys of retired fields are never
// reused.
type Event struct {
	Timestamp    time.Time `cbor:"1,keyasint"`
	ConnectionID string    `cbor:"2,keyasint"`
	Direction    Direction `cbor:"3,keyasint"`
	Layer        Layer     `cbor:"4,keyasint"`
	Category     Category  `cbor:"5,keyasint"`
	LocalRole    Role      `cbor:"6,keyasint,omitempty"`
	RemoteAddr   string    `cbor:"7,keyasint,omitempty"`
	AppName      string    `cbor:"8,keyasint,omitempty"`

	// Exactly one payload is set, matching the layer the event was
	// captured at. Key 13 is retired.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Event kinds, as reported by Kind.
const (
	KindFrame    = "frame"
	KindRequest  = "request"
	KindResponse = "response"
	KindState    = "state"
	KindError    = "error"
)

// Kind labels the event by its payload: "frame", "request",
// "response", "state", or "error". Readers and the hostlink-log
// command filter and group on this label.
func (e Event) Kind() string {
	switch {
	case e.Frame != nil:
		return KindFrame
	case e.Message != nil:
		if e.Message.Type == MessageTypeRequest {
			return KindRequest
		}
		return KindResponse
	case e.StateChange != nil:
		return KindState
	case e.Error != nil:
		return KindError
	default:
		return "unknown"
	}
}

// Direction tells whether the local endpoint received or sent the
// traffic the event describes.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer is where the event was captured.
type Layer uint8

const (
	// LayerTransport covers raw length-prefixed frames.
	LayerTransport Layer = 0
	// LayerWire covers decoded request/response envelopes.
	LayerWire Layer = 1
	// LayerBridge covers session and dispatch lifecycle.
	LayerBridge Layer = 2
)

func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// Category groups events for filtering.
type Category uint8

const (
	// CategoryMessage marks application traffic: invocations,
	// property access, object construction, and their responses.
	CategoryMessage Category = 0
	// CategoryControl marks liveness and cancellation traffic (ping,
	// cancel), so it can be excluded when studying application calls.
	CategoryControl Category = 1
	// CategoryState marks lifecycle transitions.
	CategoryState Category = 2
	// CategoryError marks failures at any layer.
	CategoryError Category = 3
)

func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role is the local endpoint's side of the bridge.
type Role uint8

const (
	RoleHost       Role = 0
	RoleController Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "HOST"
	case RoleController:
		return "CONTROLLER"
	default:
		return "UNKNOWN"
	}
}
