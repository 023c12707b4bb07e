package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// CBOR modes for the .hlog stream. Encoding is canonical so identical
// events produce identical bytes; decoding is lenient so newer writers
// stay readable by older tools.
var (
	encMode = sync.OnceValue(func() cbor.EncMode {
		em, err := cbor.EncOptions{
			Sort:          cbor.SortCanonical,
			IndefLength:   cbor.IndefLengthForbidden,
			NilContainers: cbor.NilContainerAsNull,
			Time:          cbor.TimeRFC3339Nano,
		}.EncMode()
		if err != nil {
			panic(fmt.Sprintf("log: encode mode: %v", err))
		}
		return em
	})

	decMode = sync.OnceValue(func() cbor.DecMode {
		dm, err := cbor.DecOptions{
			DupMapKey:         cbor.DupMapKeyQuiet,
			IndefLength:       cbor.IndefLengthAllowed,
			ExtraReturnErrors: cbor.ExtraDecErrorNone,
		}.DecMode()
		if err != nil {
			panic(fmt.Sprintf("log: decode mode: %v", err))
		}
		return dm
	})
)

// EncodeEvent encodes one event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode().Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	err := decMode().Unmarshal(data, &event)
	return event, err
}

// NewEncoder returns a CBOR encoder that appends events to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode().NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads events from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode().NewDecoder(r)
}
