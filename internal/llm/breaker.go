package llm

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BreakerState is the circuit breaker state
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"    // Normal operation
	BreakerOpen     BreakerState = "open"      // Failing, calls rejected
	BreakerHalfOpen BreakerState = "half_open" // Testing recovery
)

// ErrBreakerOpen is returned when the breaker rejects a call.
type ErrBreakerOpen struct {
	Name       string
	RetryAfter time.Duration
}

func (e *ErrBreakerOpen) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, retry in %s", e.Name, e.RetryAfter.Round(time.Second))
}

// Breaker protects the producer endpoint from being hammered while it is
// failing. Failures trip it open; after a cooldown it half-opens and a run
// of successes closes it again.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	logger           *zap.Logger

	mu           sync.Mutex
	state        BreakerState
	failureCount int
	successCount int
	openedAt     time.Time
}

// NewBreaker creates a closed breaker with the standard thresholds:
// 5 failures to open, 3 successes to close, 60s cooldown.
func NewBreaker(name string, logger *zap.Logger) *Breaker {
	return &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
		timeout:          60 * time.Second,
		logger:           logger,
		state:            BreakerClosed,
	}
}

// Allow reports whether a call may proceed. Returns *ErrBreakerOpen when
// the breaker is open and the cooldown has not elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		elapsed := time.Since(b.openedAt)
		if elapsed < b.timeout {
			return &ErrBreakerOpen{Name: b.name, RetryAfter: b.timeout - elapsed}
		}
		b.logger.Info("circuit breaker half-open", zap.String("breaker", b.name))
		b.state = BreakerHalfOpen
		b.successCount = 0
	}
	return nil
}

// RecordSuccess notes a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.logger.Info("circuit breaker closed", zap.String("breaker", b.name))
			b.state = BreakerClosed
			b.failureCount = 0
			b.successCount = 0
		}
	case BreakerClosed:
		b.failureCount = 0
	}
}

// RecordFailure notes a failed call. A failure while half-open reopens the
// breaker immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.logger.Warn("circuit breaker reopened", zap.String("breaker", b.name))
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.successCount = 0
	case BreakerClosed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.logger.Warn("circuit breaker opened",
				zap.String("breaker", b.name),
				zap.Int("failures", b.failureCount))
			b.state = BreakerOpen
			b.openedAt = time.Now()
		}
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
