package log

// Logger receives protocol events. Implementations must be safe for
// concurrent use; Log runs on transport and dispatch paths and must
// not block.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// Tee returns a logger that fans each event out to all given loggers
// in order, skipping nils. It lets a session be recorded to a file
// while mirrored to the console.
func Tee(loggers ...Logger) Logger {
	kept := make(tee, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			kept = append(kept, l)
		}
	}
	return kept
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}
