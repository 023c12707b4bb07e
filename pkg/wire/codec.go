package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON implementations let envelopes embed Value fields directly.

// MarshalJSON encodes wire null as JSON null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalJSON encodes a wire boolean.
func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

// MarshalJSON encodes a wire string.
func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// MarshalJSON encodes a wire integer.
func (i Int) MarshalJSON() ([]byte, error) { return json.Marshal(int64(i)) }

// MarshalJSON encodes a wire integer above the int64 range.
func (u Uint) MarshalJSON() ([]byte, error) { return json.Marshal(uint64(u)) }

// MarshalJSON encodes a wire float. Non-finite values encode as null;
// JSON has no representation for them.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON encodes a wire array element-by-element.
func (a Array) MarshalJSON() ([]byte, error) { return json.Marshal([]Value(a)) }

// MarshalJSON encodes a wire object.
func (o Object) MarshalJSON() ([]byte, error) { return json.Marshal(map[string]Value(o)) }

// EncodeValue encodes a wire value to JSON bytes.
func EncodeValue(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// DecodeValue decodes JSON bytes into a wire value. Numbers that parse as
// int64 become Int, larger non-negative integers become Uint, everything
// else becomes Float.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode wire value: %w", err)
	}
	return FromJSONValue(raw)
}

// FromJSONValue converts a json-decoded tree (with json.Number for
// numbers) into the wire value vocabulary.
func FromJSONValue(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberToValue(t)
	case float64:
		// Callers that decoded without UseNumber.
		if t == math.Trunc(t) && t >= math.MinInt64 && t <= math.MaxInt64 {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case []any:
		arr := make(Array, len(t))
		for i, e := range t {
			v, err := FromJSONValue(e)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(t))
		for k, e := range t {
			v, err := FromJSONValue(e)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported JSON value of type %T", raw)
}

func numberToValue(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	// Above int64 range but still integral
	if u, err := parseUint(n); err == nil {
		return Uint(u), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
	}
	return Float(f), nil
}

func parseUint(n json.Number) (uint64, error) {
	var u uint64
	_, err := fmt.Sscanf(n.String(), "%d", &u)
	return u, err
}

// EncodeRequest encodes a request envelope to JSON bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return json.Marshal(req)
}

// DecodeRequest decodes JSON bytes into a request envelope.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response envelope to JSON bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse decodes JSON bytes into a response envelope.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// MessageType represents the type of a decoded message.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeRequest
	MessageTypeResponse
)

// PeekMessageType examines JSON data to determine the envelope type
// without fully decoding it. Requests carry an "op" key; responses carry
// a "status" key.
func PeekMessageType(data []byte) (MessageType, error) {
	var peek struct {
		Op     *string `json:"op"`
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return MessageTypeUnknown, fmt.Errorf("failed to peek message: %w", err)
	}
	switch {
	case peek.Op != nil:
		return MessageTypeRequest, nil
	case peek.Status != nil:
		return MessageTypeResponse, nil
	}
	return MessageTypeUnknown, nil
}
