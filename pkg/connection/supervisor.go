package connection

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// DefaultDialTimeout bounds a single dial attempt, including the TLS
// handshake against the pinned host certificate.
const DefaultDialTimeout = 30 * time.Second

var (
	// ErrClosed is returned when the supervisor has been shut down.
	ErrClosed = errors.New("connection: supervisor closed")

	// ErrSessionActive is returned by Start while a session is already
	// established or being redialed.
	ErrSessionActive = errors.New("connection: session already active")
)

// State of the supervised bridge session.
type State int

const (
	// StateIdle means no session and no redial in progress.
	StateIdle State = iota
	// StateDialing means a dial attempt is in flight.
	StateDialing
	// StateEstablished means the session is authenticated and serving.
	StateEstablished
	// StateRedialing means the session dropped and a redial is pending.
	StateRedialing
	// StateClosed means the supervisor was shut down.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDialing:
		return "DIALING"
	case StateEstablished:
		return "ESTABLISHED"
	case StateRedialing:
		return "REDIALING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes one bridge session. It returns once the session
// is serving, and is called again for every redial attempt. Session
// token rejection should be returned from Start as a permanent error
// by the caller, not reported via SessionDown.
type DialFunc func(ctx context.Context) error

// Supervisor keeps a controller's bridge session alive. After Start
// succeeds, the caller reports a dropped session with SessionDown and
// the supervisor redials on its Schedule until the session is back or
// Shutdown is called.
//
// Configure callbacks and the logger before Start; they are invoked
// from the supervisor's goroutine and must not block.
type Supervisor struct {
	dial        DialFunc
	schedule    Schedule
	dialTimeout time.Duration
	autoRedial  bool
	rng         *rand.Rand

	logger       log.Logger
	connectionID string
	appName      string

	onStateChange func(old, next State)
	onRedial      func(attempt int, delay time.Duration)
	onEstablished func()
	onDown        func()

	mu       sync.Mutex
	state    State
	attempts int

	loopOnce sync.Once
	downCh   chan struct{}
	closeCh  chan struct{}
}

// NewSupervisor creates a supervisor for the given dial function.
// Automatic redial is enabled by default.
func NewSupervisor(dial DialFunc) *Supervisor {
	return &Supervisor{
		dial:        dial,
		dialTimeout: DefaultDialTimeout,
		autoRedial:  true,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		downCh:      make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
	}
}

// SetSchedule replaces the redial schedule.
func (s *Supervisor) SetSchedule(schedule Schedule) {
	s.schedule = schedule
}

// SetDialTimeout bounds each dial attempt.
func (s *Supervisor) SetDialTimeout(d time.Duration) {
	if d > 0 {
		s.dialTimeout = d
	}
}

// SetAutoRedial controls whether a dropped session is redialed. When
// disabled, SessionDown leaves the supervisor idle and Start may be
// called again.
func (s *Supervisor) SetAutoRedial(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRedial = enabled
}

// SetLogger mirrors session lifecycle transitions into a protocol log
// as SESSION state-change events, tagged with the given connection id
// and host application name.
func (s *Supervisor) SetLogger(logger log.Logger, connectionID, appName string) {
	s.logger = logger
	s.connectionID = connectionID
	s.appName = appName
}

// OnStateChange registers a callback for every state transition.
func (s *Supervisor) OnStateChange(cb func(old, next State)) { s.onStateChange = cb }

// OnRedial registers a callback invoked before each redial attempt
// with the attempt number and the delay about to be waited.
func (s *Supervisor) OnRedial(cb func(attempt int, delay time.Duration)) { s.onRedial = cb }

// OnEstablished registers a callback invoked whenever a session comes
// up, including after a redial.
func (s *Supervisor) OnEstablished(cb func()) { s.onEstablished = cb }

// OnDown registers a callback invoked when SessionDown reports a
// dropped session.
func (s *Supervisor) OnDown(cb func()) { s.onDown = cb }

// State returns the current session state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Established reports whether a session is currently up.
func (s *Supervisor) Established() bool {
	return s.State() == StateEstablished
}

// Attempts returns the number of redial attempts since the session
// last dropped. It resets to zero once a session is established.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Start dials the initial session. On success the redial loop is
// armed and Start returns nil; on failure the supervisor returns to
// idle and the dial error is returned so the caller can decide whether
// the failure is permanent (bad token, wrong fingerprint) or worth a
// manual retry.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateIdle:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return ErrSessionActive
	}

	s.setState(StateDialing, "initial dial")
	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	err := s.dial(dialCtx)
	cancel()
	if err != nil {
		s.setState(StateIdle, "initial dial failed")
		return err
	}

	s.setState(StateEstablished, "session established")
	if cb := s.onEstablished; cb != nil {
		cb()
	}
	s.loopOnce.Do(func() { go s.redialLoop(ctx) })
	return nil
}

// SessionDown reports that the established session dropped. With
// automatic redial enabled the supervisor begins redialing; otherwise
// it returns to idle. Calls in any other state are ignored, so the
// session reader can report unconditionally on exit.
func (s *Supervisor) SessionDown() {
	s.mu.Lock()
	if s.state != StateEstablished {
		s.mu.Unlock()
		return
	}
	redial := s.autoRedial
	s.mu.Unlock()

	if cb := s.onDown; cb != nil {
		cb()
	}
	if !redial {
		s.setState(StateIdle, "session lost")
		return
	}
	s.setState(StateRedialing, "session lost")
	select {
	case s.downCh <- struct{}{}:
	default:
	}
}

// Shutdown stops the redial loop and marks the supervisor closed. It
// does not close an established session; that is the caller's client.
// Safe to call more than once.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	old := s.state
	s.state = StateClosed
	s.mu.Unlock()

	close(s.closeCh)
	s.emit(old, StateClosed, "shutdown")
	if cb := s.onStateChange; cb != nil {
		cb(old, StateClosed)
	}
}

func (s *Supervisor) redialLoop(ctx context.Context) {
	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case <-s.downCh:
		}

		for attempt := 1; ; attempt++ {
			s.mu.Lock()
			if s.state != StateRedialing {
				s.mu.Unlock()
				break
			}
			s.attempts = attempt
			s.mu.Unlock()

			delay := s.schedule.Delay(attempt, s.rng)
			if cb := s.onRedial; cb != nil {
				cb(attempt, delay)
			}
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			s.setState(StateDialing, "redial")
			dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
			err := s.dial(dialCtx)
			cancel()
			if err != nil {
				s.setState(StateRedialing, err.Error())
				continue
			}

			s.mu.Lock()
			s.attempts = 0
			s.mu.Unlock()
			s.setState(StateEstablished, "session re-established")
			if cb := s.onEstablished; cb != nil {
				cb()
			}
			break
		}
	}
}

func (s *Supervisor) setState(next State, reason string) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == next {
		s.mu.Unlock()
		return
	}
	old := s.state
	s.state = next
	s.mu.Unlock()

	s.emit(old, next, reason)
	if cb := s.onStateChange; cb != nil {
		cb(old, next)
	}
}

func (s *Supervisor) emit(old, next State, reason string) {
	if s.logger == nil {
		return
	}
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connectionID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerBridge,
		Category:     log.CategoryState,
		LocalRole:    log.RoleController,
		AppName:      s.appName,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}
