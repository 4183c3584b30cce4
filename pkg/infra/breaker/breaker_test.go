package breaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNewCircuitBreaker(t *testing.T) {
	tests := []struct {
		name        string
		breakerName string
		timeout     time.Duration
		maxFailures uint32
	}{
		{name: "Valid circuit breaker", breakerName: "telegram", timeout: 30 * time.Second, maxFailures: 3},
		{name: "Zero timeout", breakerName: "zero-timeout", timeout: 0, maxFailures: 1},
		{name: "Zero max failures", breakerName: "zero-failures", timeout: 10 * time.Second, maxFailures: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.breakerName, tt.timeout, tt.maxFailures, nil)

			assert.NotNil(t, cb)
			wrapper, ok := cb.(*circuitBreakerWrapper)
			assert.True(t, ok)
			assert.Equal(t, tt.breakerName, wrapper.breaker.Name())
			assert.Equal(t, gobreaker.StateClosed, cb.State())
		})
	}
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("success", 30*time.Second, 3, nil)
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestCircuitBreaker_ExecuteFailureIsWrapped(t *testing.T) {
	cb := NewCircuitBreaker("failure", 30*time.Second, 3, nil)
	cause := errors.New("bad gateway")

	err := cb.Execute(func() error { return cause })

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failure")
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []gobreaker.State
	)
	cb := NewCircuitBreaker("trip", time.Hour, 2, func(_, to gobreaker.State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, to)
	})
	fail := func() error { return errors.New("boom") }

	_ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	_ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	calls := 0
	err := cb.Execute(func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 0, calls)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("recover", 20*time.Millisecond, 1, nil)

	_ = cb.Execute(func() error { return errors.New("boom") })
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
