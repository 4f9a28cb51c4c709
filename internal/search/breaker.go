package search

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrUnavailable is returned while the breaker is open
var ErrUnavailable = errors.New("search temporarily unavailable")

// CircuitBreaker stops index writes after repeated Meilisearch failures
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time

	consecutiveFailures int
	isOpen              bool
	openedAt            time.Time

	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
	}
}

// RecordSuccess closes the breaker
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.consecutiveFailures = 0
	cb.isOpen = false
}

// RecordFailure counts a failed call and opens the breaker at the threshold
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.consecutiveFailures++
	if !cb.isOpen && cb.consecutiveFailures >= cb.failureThreshold {
		cb.isOpen = true
		cb.openedAt = cb.now()
		log.Printf("Search: circuit breaker open after %d consecutive failures, retrying after %v",
			cb.consecutiveFailures, cb.resetTimeout)
	}
}

// CanProceed reports whether a call may be attempted. Once the reset
// timeout has passed a single trial call is let through.
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
		// half-open: one failure re-opens immediately
		cb.isOpen = false
		cb.consecutiveFailures = cb.failureThreshold - 1
		return true
	}
	return false
}

// IsOpen reports the current breaker state
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.isOpen
}

// guard runs call through the breaker
func (cb *CircuitBreaker) guard(call func() error) error {
	if !cb.CanProceed() {
		return ErrUnavailable
	}
	if err := call(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
