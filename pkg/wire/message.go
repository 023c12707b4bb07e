package wire

import (
	"encoding/json"
	"fmt"
)

// Operation identifies a bridge operation.
type Operation string

const (
	// OpPing checks host liveness. The only operation exempt from
	// session authentication.
	OpPing Operation = "ping"

	// OpInvokeStaticMethod invokes a declared static method. Fresh
	// lookup; gated by the security policy.
	OpInvokeStaticMethod Operation = "invokeStaticMethod"

	// OpCreateObject invokes a declared constructor. Fresh lookup;
	// gated by the security policy.
	OpCreateObject Operation = "createObject"

	// OpGetStaticProperty reads a declared static property. Fresh
	// lookup; gated by the security policy.
	OpGetStaticProperty Operation = "getStaticProperty"

	// OpSetStaticProperty writes a declared static property. Fresh
	// lookup; gated by the security policy.
	OpSetStaticProperty Operation = "setStaticProperty"

	// OpInvokeMethod invokes a method on a registered handle. Gated by
	// handle validity only, never by the allowlist.
	OpInvokeMethod Operation = "invokeMethod"

	// OpGetProperty reads a property on a registered handle.
	OpGetProperty Operation = "getProperty"

	// OpSetProperty writes a property on a registered handle.
	OpSetProperty Operation = "setProperty"

	// OpDisposeHandle removes one entry from the handle registry,
	// releasing the native reference it pinned. Disposing an unknown
	// id is a no-op.
	OpDisposeHandle Operation = "disposeHandle"

	// OpCancel cancels an in-flight operation by its client-supplied
	// operation id. Cancelling an unknown id is a no-op.
	OpCancel Operation = "cancel"

	// OpInvokeCallback flows host to controller: the host asks the
	// remote side to run a callback (e.g. an interactive prompt).
	OpInvokeCallback Operation = "invokeCallback"
)

// IsValid reports whether the operation is one of the declared values.
func (op Operation) IsValid() bool {
	switch op {
	case OpPing, OpInvokeStaticMethod, OpCreateObject,
		OpGetStaticProperty, OpSetStaticProperty,
		OpInvokeMethod, OpGetProperty, OpSetProperty,
		OpDisposeHandle, OpCancel, OpInvokeCallback:
		return true
	}
	return false
}

// IsFreshLookup reports whether the operation names a type directly
// rather than operating on a handle. Fresh lookups are the only
// operations gated by the assembly allowlist.
func (op Operation) IsFreshLookup() bool {
	switch op {
	case OpInvokeStaticMethod, OpCreateObject,
		OpGetStaticProperty, OpSetStaticProperty:
		return true
	}
	return false
}

// Request represents a HostLink request envelope.
//
// JSON encoding:
//
//	{
//	  "id": 7,                      // message id, correlates the response
//	  "op": "invokeStaticMethod",
//	  "token": "...",               // session token (absent for ping)
//	  "opId": "client-op-3",        // optional cancellation key
//	  "assembly": "HostLink.Hosting",
//	  "type": "HostLink.Hosting.Builder",
//	  "member": "AddContainer",
//	  "handle": "<uuid>",           // for handle-based operations
//	  "callback": "confirm",        // for invokeCallback
//	  "args": [ ... ],              // wire values
//	  "value": ...                  // for setProperty / setStaticProperty
//	}
type Request struct {
	MessageID  uint32    `json:"id"`
	Op         Operation `json:"op"`
	Token      string    `json:"token,omitempty"`
	OperationID string   `json:"opId,omitempty"`
	Assembly   string    `json:"assembly,omitempty"`
	TypeName   string    `json:"type,omitempty"`
	Member     string    `json:"member,omitempty"`
	HandleID   string    `json:"handle,omitempty"`
	CallbackID string    `json:"callback,omitempty"`
	Args       []Value   `json:"args,omitempty"`
	Value      Value     `json:"value,omitempty"`
}

// Validate checks if the request is well-formed.
func (r *Request) Validate() error {
	if !r.Op.IsValid() {
		return fmt.Errorf("invalid operation: %q", r.Op)
	}
	if r.Op.IsFreshLookup() && r.TypeName == "" {
		return fmt.Errorf("operation %q requires a type name", r.Op)
	}
	switch r.Op {
	case OpInvokeMethod, OpGetProperty, OpSetProperty, OpDisposeHandle:
		if r.HandleID == "" {
			return fmt.Errorf("operation %q requires a handle", r.Op)
		}
	case OpInvokeCallback:
		if r.CallbackID == "" {
			return fmt.Errorf("operation %q requires a callback id", r.Op)
		}
	}
	return nil
}

// UnmarshalJSON decodes the envelope, converting args and value into the
// wire value vocabulary.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		MessageID  uint32            `json:"id"`
		Op         Operation         `json:"op"`
		Token      string            `json:"token"`
		OperationID string           `json:"opId"`
		Assembly   string            `json:"assembly"`
		TypeName   string            `json:"type"`
		Member     string            `json:"member"`
		HandleID   string            `json:"handle"`
		CallbackID string            `json:"callback"`
		Args       []json.RawMessage `json:"args"`
		Value      json.RawMessage   `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.MessageID = raw.MessageID
	r.Op = raw.Op
	r.Token = raw.Token
	r.OperationID = raw.OperationID
	r.Assembly = raw.Assembly
	r.TypeName = raw.TypeName
	r.Member = raw.Member
	r.HandleID = raw.HandleID
	r.CallbackID = raw.CallbackID
	if raw.Args != nil {
		r.Args = make([]Value, len(raw.Args))
		for i, a := range raw.Args {
			v, err := DecodeValue(a)
			if err != nil {
				return fmt.Errorf("arg %d: %w", i, err)
			}
			r.Args[i] = v
		}
	} else {
		r.Args = nil
	}
	if len(raw.Value) > 0 {
		v, err := DecodeValue(raw.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		r.Value = v
	} else {
		r.Value = nil
	}
	return nil
}

// Response represents a HostLink response envelope.
//
// JSON encoding:
//
//	{
//	  "id": 7,                 // matches the request
//	  "status": "ok",          // or an error kind tag
//	  "result": ...,           // wire value (success only)
//	  "error": {"message": "..."}
//	}
type Response struct {
	MessageID uint32        `json:"id"`
	Status    Status        `json:"status"`
	Result    Value         `json:"result,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// UnmarshalJSON decodes the envelope, converting the result into the wire
// value vocabulary.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		MessageID uint32          `json:"id"`
		Status    Status          `json:"status"`
		Result    json.RawMessage `json:"result"`
		Error     *ErrorPayload   `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.MessageID = raw.MessageID
	r.Status = raw.Status
	r.Error = raw.Error
	if len(raw.Result) > 0 {
		v, err := DecodeValue(raw.Result)
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
		r.Result = v
	} else {
		r.Result = nil
	}
	return nil
}

// ErrorPayload carries additional error information in a response.
type ErrorPayload struct {
	Message string `json:"message,omitempty"`
}
