package extract

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Provider failing, attempts refused
	stateHalfOpen                     // One retry allowed
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ProviderStats is a snapshot of one provider's breaker state.
type ProviderStats struct {
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"lastFailure,omitempty"`
}

// circuitBreaker tracks consecutive failures per provider and stops calling
// providers that keep failing
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	lastStateLog     map[string]time.Time
	failureThreshold int
	openDuration     time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 3,
		openDuration:     5 * time.Minute,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		lastStateLog:     make(map[string]time.Time),
		now:              time.Now,
	}
}

// canAttempt reports whether provider may be called. An open circuit turns
// half-open once openDuration has passed since the last failure.
func (cb *circuitBreaker) canAttempt(provider string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.getState(provider) != stateOpen {
		return nil
	}

	lastFail := cb.lastFailure[provider]
	if cb.now().Sub(lastFail) > cb.openDuration {
		cb.state[provider] = stateHalfOpen
		cb.logStateChange(provider, stateHalfOpen)
		return nil
	}

	return fmt.Errorf("%w for provider '%s' (failures: %d, next retry: %s)",
		ErrCircuitOpen,
		provider,
		cb.failures[provider],
		lastFail.Add(cb.openDuration).Format("15:04:05"),
	)
}

func (cb *circuitBreaker) recordSuccess(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.getState(provider)

	delete(cb.failures, provider)
	delete(cb.lastFailure, provider)
	cb.state[provider] = stateClosed

	if oldState != stateClosed {
		cb.logStateChange(provider, stateClosed)
	}
}

func (cb *circuitBreaker) recordFailure(provider string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[provider]++
	cb.lastFailure[provider] = cb.now()
	failCount := cb.failures[provider]

	// A failed half-open retry reopens immediately.
	if failCount >= cb.failureThreshold || cb.getState(provider) == stateHalfOpen {
		oldState := cb.getState(provider)
		cb.state[provider] = stateOpen
		if oldState != stateOpen {
			slog.Warn("[EXTRACT-CIRCUIT] opening circuit",
				"provider", provider,
				"failures", failCount,
				"error", err,
			)
			cb.lastStateLog[provider] = cb.now()
		}
		return
	}

	slog.Info("[EXTRACT-CIRCUIT] provider failure",
		"provider", provider,
		"failures", failCount,
		"threshold", cb.failureThreshold,
		"error", err,
	)
}

// getState must be called with the lock held
func (cb *circuitBreaker) getState(provider string) circuitState {
	if state, exists := cb.state[provider]; exists {
		return state
	}
	return stateClosed
}

// logStateChange must be called with the lock held. At most one line per
// minute per provider.
func (cb *circuitBreaker) logStateChange(provider string, newState circuitState) {
	lastLog, exists := cb.lastStateLog[provider]
	if exists && cb.now().Sub(lastLog) < time.Minute {
		return
	}

	slog.Info("[EXTRACT-CIRCUIT] circuit state changed",
		"provider", provider,
		"state", newState.String(),
	)
	cb.lastStateLog[provider] = cb.now()
}

func (cb *circuitBreaker) stats() map[string]ProviderStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	providers := make(map[string]bool)
	for provider := range cb.state {
		providers[provider] = true
	}
	for provider := range cb.failures {
		providers[provider] = true
	}

	out := make(map[string]ProviderStats, len(providers))
	for provider := range providers {
		out[provider] = ProviderStats{
			State:       cb.getState(provider).String(),
			Failures:    cb.failures[provider],
			LastFailure: cb.lastFailure[provider],
		}
	}
	return out
}
