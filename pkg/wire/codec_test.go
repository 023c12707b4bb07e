package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value Value
	}{
		{"Null", Null{}},
		{"Bool", Bool(true)},
		{"String", String("test")},
		{"Int", Int(42)},
		{"NegativeInt", Int(-7)},
		{"Uint", Uint(18446744073709551615)},
		{"Float", Float(1500.5)},
		{"Array", Array{Int(1), Int(2), Int(3)}},
		{"Object", Object{"name": String("test"), "count": Int(5)}},
		{"Nested", Object{"items": Array{Object{"x": Float(0.5)}, Null{}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeValue(tc.value)
			require.NoError(t, err)

			decoded, err := DecodeValue(data)
			require.NoError(t, err)
			assert.True(t, Equal(tc.value, decoded),
				"round-trip mismatch: %s != %s", Render(tc.value), Render(decoded))
		})
	}
}

func TestHandleRefShape(t *testing.T) {
	ref := NewHandleRef("abc-123", "host/Container")

	id, typeID, ok := HandleRef(ref)
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "host/Container", typeID)

	// A DTO object with the same field count is not a handle reference.
	dto := Object{"name": String("test"), "count": Int(5)}
	assert.False(t, IsHandleRef(dto))

	// Only the $handle key decides; extra keys do not matter.
	withExtra := Object{HandleKey: String("x"), TypeKey: String("t"), "other": Int(1)}
	assert.True(t, IsHandleRef(withExtra))
}

func TestHandleRefSurvivesCodec(t *testing.T) {
	ref := NewHandleRef("id-1", "Dict<string,int>")
	data, err := EncodeValue(ref)
	require.NoError(t, err)

	decoded, err := DecodeValue(data)
	require.NoError(t, err)

	id, typeID, ok := HandleRef(decoded)
	require.True(t, ok)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, "Dict<string,int>", typeID)
}

func TestRequestRoundTrip(t *testing.T) {
	req := &Request{
		MessageID: 7,
		Op:        OpInvokeStaticMethod,
		Token:     "session-token",
		Assembly:  "HostLink.Hosting",
		TypeName:  "HostLink.Hosting.Builder",
		Member:    "AddContainer",
		Args:      []Value{String("cache"), String("redis:7")},
	}

	data, err := EncodeRequest(req)
	require.NoError(t, err)

	decoded, err := DecodeRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req.MessageID, decoded.MessageID)
	assert.Equal(t, req.Op, decoded.Op)
	assert.Equal(t, req.Assembly, decoded.Assembly)
	require.Len(t, decoded.Args, 2)
	assert.Equal(t, String("cache"), decoded.Args[0])
}

func TestRequestValidate(t *testing.T) {
	t.Run("UnknownOp", func(t *testing.T) {
		req := &Request{MessageID: 1, Op: "frobnicate"}
		assert.Error(t, req.Validate())
	})

	t.Run("FreshLookupNeedsType", func(t *testing.T) {
		req := &Request{MessageID: 1, Op: OpCreateObject}
		assert.Error(t, req.Validate())
	})

	t.Run("HandleOpNeedsHandle", func(t *testing.T) {
		req := &Request{MessageID: 1, Op: OpInvokeMethod, Member: "Contains"}
		assert.Error(t, req.Validate())
	})

	t.Run("DisposeNeedsHandle", func(t *testing.T) {
		req := &Request{MessageID: 1, Op: OpDisposeHandle}
		assert.Error(t, req.Validate())
		req.HandleID = "h-1"
		assert.NoError(t, req.Validate())
	})

	t.Run("PingIsBare", func(t *testing.T) {
		req := &Request{MessageID: 1, Op: OpPing}
		assert.NoError(t, req.Validate())
	})
}

func TestResponseRoundTrip(t *testing.T) {
	resp := &Response{
		MessageID: 7,
		Status:    StatusOK,
		Result:    NewHandleRef("h-1", "host/Container"),
	}

	data, err := EncodeResponse(resp)
	require.NoError(t, err)

	decoded, err := DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), decoded.MessageID)
	assert.True(t, decoded.IsSuccess())
	assert.True(t, IsHandleRef(decoded.Result))
}

func TestErrorResponse(t *testing.T) {
	resp := &Response{
		MessageID: 3,
		Status:    StatusNotFound,
		Error:     &ErrorPayload{Message: "target not found"},
	}

	data, err := EncodeResponse(resp)
	require.NoError(t, err)

	decoded, err := DecodeResponse(data)
	require.NoError(t, err)
	assert.True(t, decoded.Status.IsError())
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "target not found", decoded.Error.Message)
}

func TestPeekMessageType(t *testing.T) {
	reqData, err := EncodeRequest(&Request{MessageID: 1, Op: OpPing})
	require.NoError(t, err)
	respData, err := EncodeResponse(&Response{MessageID: 1, Status: StatusOK})
	require.NoError(t, err)

	mt, err := PeekMessageType(reqData)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeRequest, mt)

	mt, err = PeekMessageType(respData)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeResponse, mt)

	mt, err = PeekMessageType([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeUnknown, mt)
}

func TestRenderDiagnostics(t *testing.T) {
	v := Object{"name": String("cache"), "ports": Array{Int(6379)}, "tls": Bool(false)}
	assert.Equal(t, `{"name":"cache","ports":[6379],"tls":false}`, Render(v))
	assert.Equal(t, "null", Render(nil))
	assert.Equal(t, "null", Render(Float(math.Inf(1))), "non-finite floats render as null, like Encode")
}

func TestOperationClassification(t *testing.T) {
	fresh := []Operation{OpInvokeStaticMethod, OpCreateObject, OpGetStaticProperty, OpSetStaticProperty}
	for _, op := range fresh {
		assert.True(t, op.IsFreshLookup(), "%s should be a fresh lookup", op)
	}
	handleBased := []Operation{OpInvokeMethod, OpGetProperty, OpSetProperty, OpDisposeHandle, OpPing, OpCancel, OpInvokeCallback}
	for _, op := range handleBased {
		assert.False(t, op.IsFreshLookup(), "%s should not be a fresh lookup", op)
	}
}
