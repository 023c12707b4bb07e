package log

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// writeSessionLog records one small bridge session: a ping exchange, a
// method invocation and its failed response, and a transport error on
// a second connection.
func writeSessionLog(t *testing.T, base time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.hlog")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	ping := wire.OpPing
	invoke := wire.OpInvokeMethod
	ok := wire.StatusOK
	notFound := wire.StatusNotFound

	events := []Event{
		{
			Timestamp:    base,
			ConnectionID: "conn-a",
			Direction:    DirectionIn,
			Layer:        LayerWire,
			Category:     CategoryControl,
			AppName:      "shop",
			Message:      &MessageEvent{Type: MessageTypeRequest, MessageID: 1, Operation: &ping},
		},
		{
			Timestamp:    base.Add(1 * time.Second),
			ConnectionID: "conn-a",
			Direction:    DirectionOut,
			Layer:        LayerWire,
			Category:     CategoryControl,
			AppName:      "shop",
			Message:      &MessageEvent{Type: MessageTypeResponse, MessageID: 1, Status: &ok},
		},
		{
			Timestamp:    base.Add(2 * time.Second),
			ConnectionID: "conn-a",
			Direction:    DirectionIn,
			Layer:        LayerWire,
			Category:     CategoryMessage,
			AppName:      "shop",
			Message: &MessageEvent{
				Type: MessageTypeRequest, MessageID: 2,
				Operation: &invoke, HandleID: "h-1", Member: "addContainer",
			},
		},
		{
			Timestamp:    base.Add(3 * time.Second),
			ConnectionID: "conn-a",
			Direction:    DirectionOut,
			Layer:        LayerWire,
			Category:     CategoryMessage,
			AppName:      "shop",
			Message:      &MessageEvent{Type: MessageTypeResponse, MessageID: 2, Status: &notFound},
		},
		{
			Timestamp:    base.Add(4 * time.Second),
			ConnectionID: "conn-b",
			Direction:    DirectionIn,
			Layer:        LayerTransport,
			Category:     CategoryError,
			AppName:      "billing",
			Error:        &ErrorEventData{Layer: LayerTransport, Message: "frame too large"},
		},
	}
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func TestFilterByConnection(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	events, err := ReadAll(path, Filter{ConnectionID: "conn-a"})
	require.NoError(t, err)
	assert.Len(t, events, 4)

	events, err = ReadAll(path, Filter{ConnectionID: "conn-b"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "billing", events[0].AppName)
}

func TestFilterByKind(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	events, err := ReadAll(path, Filter{Kind: KindRequest})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = ReadAll(path, Filter{Kind: KindError})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "frame too large", events[0].Error.Message)
}

func TestFilterByOperation(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	invoke := wire.OpInvokeMethod
	events, err := ReadAll(path, Filter{Operation: &invoke})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "h-1.addContainer", events[0].Message.Target())
}

func TestFilterByStatus(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	notFound := wire.StatusNotFound
	events, err := ReadAll(path, Filter{Status: &notFound})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint32(2), events[0].Message.MessageID)
}

func TestFilterByMessageID(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	id := uint32(2)
	events, err := ReadAll(path, Filter{MessageID: &id})
	require.NoError(t, err)

	// Both sides of the exchange, in order.
	require.Len(t, events, 2)
	assert.Equal(t, KindRequest, events[0].Kind())
	assert.Equal(t, KindResponse, events[1].Kind())
}

func TestFilterByCategoryExcludesControl(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	msg := CategoryMessage
	events, err := ReadAll(path, Filter{Category: &msg})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.NotNil(t, e.Message)
	}
}

func TestFilterByTimeWindow(t *testing.T) {
	base := time.Now().UTC()
	path := writeSessionLog(t, base)

	start := base.Add(1 * time.Second)
	end := base.Add(4 * time.Second)
	events, err := ReadAll(path, Filter{TimeStart: &start, TimeEnd: &end})
	require.NoError(t, err)
	assert.Len(t, events, 3, "start inclusive, end exclusive")
}

func TestFilterCombined(t *testing.T) {
	path := writeSessionLog(t, time.Now())

	dir := DirectionOut
	layer := LayerWire
	events, err := ReadAll(path, Filter{
		ConnectionID: "conn-a",
		Direction:    &dir,
		Layer:        &layer,
		Kind:         KindResponse,
	})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.hlog"))
	assert.Error(t, err)
}
