package log

import (
	"bufio"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a .hlog file as a CBOR stream. Writes
// are buffered; Flush or Close pushes them to disk. Safe for
// concurrent use.
type FileLogger struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	enc    *cbor.Encoder
	err    error
	closed bool
}

// NewFileLogger opens path for appending, creating it with mode 0644
// if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{
		file: f,
		buf:  buf,
		enc:  NewEncoder(buf),
	}, nil
}

// Log appends one event. Failures do not disrupt the caller; the first
// one is retained and reported by Err and Close.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err := l.enc.Encode(event); err != nil && l.err == nil {
		l.err = err
	}
}

// Flush pushes buffered events to disk.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		if err := l.buf.Flush(); err != nil && l.err == nil {
			l.err = err
		}
	}
	return l.err
}

// Err returns the first encode or write failure, if any.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close flushes and closes the file. Later Log calls are ignored.
// Safe to call more than once.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.err
	}
	l.closed = true
	if err := l.buf.Flush(); err != nil && l.err == nil {
		l.err = err
	}
	if err := l.file.Close(); err != nil && l.err == nil {
		l.err = err
	}
	return l.err
}

var _ Logger = (*FileLogger)(nil)
