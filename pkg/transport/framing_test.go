package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramer(&buf)

	payload := []byte(`{"id":1,"op":"ping"}`)
	require.NoError(t, framer.WriteFrame(payload))
	assert.Equal(t, FrameSize(len(payload)), buf.Len())

	got, err := framer.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrameMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	framer := NewFramer(&buf)

	messages := [][]byte{
		[]byte("first"),
		[]byte("second"),
		bytes.Repeat([]byte("x"), 10000),
	}
	for _, msg := range messages {
		require.NoError(t, framer.WriteFrame(msg))
	}
	for _, want := range messages {
		got, err := framer.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := framer.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameWriteRejectsEmpty(t *testing.T) {
	framer := NewFramer(&bytes.Buffer{})
	assert.ErrorIs(t, framer.WriteFrame(nil), ErrMessageEmpty)
	assert.ErrorIs(t, framer.WriteFrame([]byte{}), ErrMessageEmpty)
}

func TestFrameSizeLimits(t *testing.T) {
	t.Run("write too large", func(t *testing.T) {
		framer := NewFramerWithMaxSize(&bytes.Buffer{}, 16)
		err := framer.WriteFrame(bytes.Repeat([]byte("a"), 17))
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("read too large", func(t *testing.T) {
		var buf bytes.Buffer
		var lengthBuf [LengthPrefixSize]byte
		binary.BigEndian.PutUint32(lengthBuf[:], 1024)
		buf.Write(lengthBuf[:])
		buf.Write(bytes.Repeat([]byte("a"), 1024))

		reader := NewFrameReaderWithMaxSize(&buf, 16)
		_, err := reader.ReadFrame()
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("read zero length", func(t *testing.T) {
		var buf bytes.Buffer
		buf.Write([]byte{0, 0, 0, 0})
		reader := NewFrameReader(&buf)
		_, err := reader.ReadFrame()
		assert.ErrorIs(t, err, ErrMessageEmpty)
	})
}

func TestFrameTruncated(t *testing.T) {
	t.Run("partial prefix", func(t *testing.T) {
		reader := NewFrameReader(bytes.NewReader([]byte{0, 0}))
		_, err := reader.ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("partial payload", func(t *testing.T) {
		var buf bytes.Buffer
		var lengthBuf [LengthPrefixSize]byte
		binary.BigEndian.PutUint32(lengthBuf[:], 100)
		buf.Write(lengthBuf[:])
		buf.WriteString("short")

		reader := NewFrameReader(&buf)
		_, err := reader.ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})
}

type collectLogger struct {
	events []log.Event
}

func (l *collectLogger) Log(event log.Event) {
	l.events = append(l.events, event)
}

func TestFrameLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := &collectLogger{}
	framer := NewFramer(&buf)
	framer.SetLogger(logger, "conn-1")

	payload := []byte("hello")
	require.NoError(t, framer.WriteFrame(payload))
	_, err := framer.ReadFrame()
	require.NoError(t, err)

	require.Len(t, logger.events, 2)
	out, in := logger.events[0], logger.events[1]

	assert.Equal(t, log.DirectionOut, out.Direction)
	assert.Equal(t, log.DirectionIn, in.Direction)
	for _, event := range logger.events {
		assert.Equal(t, "conn-1", event.ConnectionID)
		assert.Equal(t, log.LayerTransport, event.Layer)
		require.NotNil(t, event.Frame)
		assert.Equal(t, FrameSize(len(payload)), event.Frame.Size)
		assert.Equal(t, payload, event.Frame.Data)
		assert.False(t, event.Frame.Truncated)
	}
}

func TestFrameLoggingTruncatesLargeFrames(t *testing.T) {
	var buf bytes.Buffer
	logger := &collectLogger{}
	writer := NewFrameWriter(&buf)
	writer.SetLogger(logger, "conn-1")

	payload := bytes.Repeat([]byte("z"), MaxLogFrameDataSize+100)
	require.NoError(t, writer.WriteFrame(payload))

	require.Len(t, logger.events, 1)
	frame := logger.events[0].Frame
	require.NotNil(t, frame)
	assert.True(t, frame.Truncated)
	assert.Len(t, frame.Data, MaxLogFrameDataSize)
	assert.Equal(t, FrameSize(len(payload)), frame.Size)
}
