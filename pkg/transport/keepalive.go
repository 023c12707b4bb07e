package transport

import (
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive defaults.
const (
	DefaultPingInterval   = 30 * time.Second
	DefaultPongTimeout    = 5 * time.Second
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures connection liveness probing.
type KeepAliveConfig struct {
	// PingInterval is how often to send a ping.
	PingInterval time.Duration

	// PongTimeout is how long to wait for a pong after a ping.
	PongTimeout time.Duration

	// MaxMissedPongs is the number of consecutive missed pongs before
	// the connection is considered dead.
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// KeepAliveStats holds keep-alive counters.
type KeepAliveStats struct {
	PingsSent     uint64
	PongsReceived uint64
	MissedPongs   int
}

// KeepAlive probes connection liveness. It is transport-payload
// agnostic: sendPing emits whatever the protocol uses as a ping (the
// bridge sends a ping request envelope), and the owner reports replies
// through PongReceived.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	sequence      atomic.Uint32
	pingsSent     atomic.Uint64
	pongsReceived atomic.Uint64

	pongCh chan uint32
	stopCh chan struct{}

	mu          sync.Mutex
	missedPongs int
	running     bool
}

// NewKeepAlive creates a keep-alive prober. sendPing is called on each
// interval tick; onTimeout is called once when MaxMissedPongs
// consecutive pings go unanswered.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = DefaultPongTimeout
	}
	if config.MaxMissedPongs <= 0 {
		config.MaxMissedPongs = DefaultMaxMissedPongs
	}
	return &KeepAlive{
		config:    config,
		sendPing:  sendPing,
		onTimeout: onTimeout,
		pongCh:    make(chan uint32, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start begins probing. No-op if already running.
func (ka *KeepAlive) Start() {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.mu.Unlock()

	go ka.loop()
}

// Stop ends probing. Safe to call multiple times.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	if !ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = false
	ka.mu.Unlock()

	close(ka.stopCh)
}

// PongReceived reports a pong reply for the given sequence number.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// Stats returns a snapshot of the keep-alive counters.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	missed := ka.missedPongs
	ka.mu.Unlock()
	return KeepAliveStats{
		PingsSent:     ka.pingsSent.Load(),
		PongsReceived: ka.pongsReceived.Load(),
		MissedPongs:   missed,
	}
}

func (ka *KeepAlive) loop() {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ka.stopCh:
			return
		case <-ticker.C:
			if !ka.handleTick() {
				return
			}
		}
	}
}

// handleTick sends one ping and waits for its pong. Returns false when
// the connection is declared dead.
func (ka *KeepAlive) handleTick() bool {
	seq := ka.sequence.Add(1)
	if err := ka.sendPing(seq); err != nil {
		return ka.recordMiss()
	}
	ka.pingsSent.Add(1)

	timer := time.NewTimer(ka.config.PongTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ka.stopCh:
			return false
		case got := <-ka.pongCh:
			if got != seq {
				// Stale pong from an earlier ping.
				continue
			}
			ka.pongsReceived.Add(1)
			ka.mu.Lock()
			ka.missedPongs = 0
			ka.mu.Unlock()
			return true
		case <-timer.C:
			return ka.recordMiss()
		}
	}
}

func (ka *KeepAlive) recordMiss() bool {
	ka.mu.Lock()
	ka.missedPongs++
	dead := ka.missedPongs >= ka.config.MaxMissedPongs
	ka.mu.Unlock()

	if dead {
		if ka.onTimeout != nil {
			ka.onTimeout()
		}
		return false
	}
	return true
}
