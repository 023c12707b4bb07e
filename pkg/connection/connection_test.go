package connection

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

func TestScheduleBaseSequence(t *testing.T) {
	var s Schedule // defaults: 1s first, x2 growth, 60s cap

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, expected := range want {
		assert.Equal(t, expected, s.Base(i+1), "attempt %d", i+1)
	}
}

func TestScheduleBaseClampsAttempt(t *testing.T) {
	var s Schedule
	assert.Equal(t, 1*time.Second, s.Base(0))
	assert.Equal(t, 1*time.Second, s.Base(-3))
}

func TestScheduleCustomTiming(t *testing.T) {
	s := Schedule{
		FirstDelay: 10 * time.Millisecond,
		MaxDelay:   40 * time.Millisecond,
		Growth:     2.0,
	}

	assert.Equal(t, 10*time.Millisecond, s.Base(1))
	assert.Equal(t, 20*time.Millisecond, s.Base(2))
	assert.Equal(t, 40*time.Millisecond, s.Base(3))
	assert.Equal(t, 40*time.Millisecond, s.Base(4))
}

func TestScheduleDelayWithoutRNGIsDeterministic(t *testing.T) {
	var s Schedule
	for n := 1; n <= 8; n++ {
		assert.Equal(t, s.Base(n), s.Delay(n, nil))
	}
}

func TestScheduleDelayJitterBounds(t *testing.T) {
	var s Schedule
	rng := rand.New(rand.NewSource(42))

	for n := 1; n <= 7; n++ {
		base := s.Base(n)
		lo := time.Duration(float64(base) * (1 - DefaultJitter))
		hi := time.Duration(float64(base) * (1 + DefaultJitter))
		for i := 0; i < 50; i++ {
			d := s.Delay(n, rng)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", n)
			assert.LessOrEqual(t, d, hi, "attempt %d", n)
		}
	}
}

// fastSchedule keeps supervisor tests quick.
func fastSchedule() Schedule {
	return Schedule{
		FirstDelay: time.Millisecond,
		MaxDelay:   4 * time.Millisecond,
		Growth:     2.0,
	}
}

func TestSupervisorEstablish(t *testing.T) {
	dials := 0
	sup := NewSupervisor(func(ctx context.Context) error {
		dials++
		return nil
	})
	defer sup.Shutdown()

	require.NoError(t, sup.Start(context.Background()))
	assert.True(t, sup.Established())
	assert.Equal(t, StateEstablished, sup.State())
	assert.Equal(t, 0, sup.Attempts())
	assert.Equal(t, 1, dials)

	// A second Start while the session is up is rejected.
	assert.ErrorIs(t, sup.Start(context.Background()), ErrSessionActive)
}

func TestSupervisorInitialDialFailure(t *testing.T) {
	dialErr := errors.New("connection refused")
	fail := true
	sup := NewSupervisor(func(ctx context.Context) error {
		if fail {
			return dialErr
		}
		return nil
	})
	defer sup.Shutdown()

	// Initial failure surfaces to the caller and leaves the
	// supervisor idle so it can decide whether to retry.
	err := sup.Start(context.Background())
	require.ErrorIs(t, err, dialErr)
	assert.Equal(t, StateIdle, sup.State())

	fail = false
	require.NoError(t, sup.Start(context.Background()))
	assert.True(t, sup.Established())
}

func TestSupervisorRedialsAfterSessionDown(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	sup := NewSupervisor(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		dials++
		// The host stays down for two redial attempts.
		if dials > 1 && dials < 4 {
			return errors.New("host restarting")
		}
		return nil
	})
	sup.SetSchedule(fastSchedule())
	defer sup.Shutdown()

	reestablished := make(chan struct{}, 4)
	sup.OnEstablished(func() { reestablished <- struct{}{} })

	var attempts []int
	sup.OnRedial(func(attempt int, delay time.Duration) {
		mu.Lock()
		attempts = append(attempts, attempt)
		mu.Unlock()
	})

	require.NoError(t, sup.Start(context.Background()))
	<-reestablished

	sup.SessionDown()
	select {
	case <-reestablished:
	case <-time.After(5 * time.Second):
		t.Fatal("session was not re-established")
	}

	assert.True(t, sup.Established())
	assert.Equal(t, 0, sup.Attempts())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, dials)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestSupervisorSessionDownIgnoredWhenNotEstablished(t *testing.T) {
	sup := NewSupervisor(func(ctx context.Context) error { return nil })
	defer sup.Shutdown()

	sup.SessionDown()
	assert.Equal(t, StateIdle, sup.State())
}

func TestSupervisorAutoRedialDisabled(t *testing.T) {
	dials := 0
	sup := NewSupervisor(func(ctx context.Context) error {
		dials++
		return nil
	})
	sup.SetSchedule(fastSchedule())
	sup.SetAutoRedial(false)
	defer sup.Shutdown()

	require.NoError(t, sup.Start(context.Background()))
	sup.SessionDown()

	assert.Equal(t, StateIdle, sup.State())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dials, "no redial should happen")

	// A manual Start brings the session back.
	require.NoError(t, sup.Start(context.Background()))
	assert.True(t, sup.Established())
}

func TestSupervisorShutdown(t *testing.T) {
	sup := NewSupervisor(func(ctx context.Context) error { return nil })
	require.NoError(t, sup.Start(context.Background()))

	sup.Shutdown()
	sup.Shutdown() // idempotent

	assert.Equal(t, StateClosed, sup.State())
	assert.ErrorIs(t, sup.Start(context.Background()), ErrClosed)

	// SessionDown after shutdown is a no-op.
	sup.SessionDown()
	assert.Equal(t, StateClosed, sup.State())
}

// sessionEventRecorder captures state-change events emitted by the
// supervisor.
type sessionEventRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *sessionEventRecorder) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *sessionEventRecorder) transitions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.StateChange != nil {
			out = append(out, e.StateChange.OldState+">"+e.StateChange.NewState)
		}
	}
	return out
}

func TestSupervisorLogsSessionLifecycle(t *testing.T) {
	recorder := &sessionEventRecorder{}

	var fail atomic.Bool
	sup := NewSupervisor(func(ctx context.Context) error {
		if fail.CompareAndSwap(true, false) {
			return errors.New("host restarting")
		}
		return nil
	})
	sup.SetSchedule(fastSchedule())
	sup.SetLogger(recorder, "conn-1", "shop")

	reestablished := make(chan struct{}, 4)
	sup.OnEstablished(func() { reestablished <- struct{}{} })

	require.NoError(t, sup.Start(context.Background()))
	<-reestablished

	fail.Store(true)
	sup.SessionDown()
	select {
	case <-reestablished:
	case <-time.After(5 * time.Second):
		t.Fatal("session was not re-established")
	}
	sup.Shutdown()

	recorder.mu.Lock()
	for _, e := range recorder.events {
		assert.Equal(t, "conn-1", e.ConnectionID)
		assert.Equal(t, "shop", e.AppName)
		assert.Equal(t, log.LayerBridge, e.Layer)
		assert.Equal(t, log.CategoryState, e.Category)
		assert.Equal(t, log.RoleController, e.LocalRole)
		require.NotNil(t, e.StateChange)
		assert.Equal(t, log.StateEntitySession, e.StateChange.Entity)
	}
	recorder.mu.Unlock()

	transitions := recorder.transitions()
	assert.Contains(t, transitions, "IDLE>DIALING")
	assert.Contains(t, transitions, "DIALING>ESTABLISHED")
	assert.Contains(t, transitions, "ESTABLISHED>REDIALING")
	assert.Contains(t, transitions, "DIALING>REDIALING")
	assert.Equal(t, "ESTABLISHED>CLOSED", transitions[len(transitions)-1])
}
