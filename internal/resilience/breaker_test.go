package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBreaker(timeout time.Duration) *Breaker {
	return New("test", Settings{
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

func TestBreakerStaysClosed(t *testing.T) {
	b := newTestBreaker(time.Minute)

	for i := 0; i < 10; i++ {
		_, err := b.Execute(func() (interface{}, error) {
			return "ok", nil
		})
		assert.NoError(t, err)
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, b.State())

	// Requests fail fast while open
	_, err := b.Execute(func() (interface{}, error) {
		t.Fatal("request should not execute while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		b.Execute(func() (interface{}, error) {
			return nil, errors.New("boom")
		})
	}
	assert.Equal(t, StateOpen, b.State())

	// After the timeout the breaker probes with one request
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	_, err := b.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		b.Execute(func() (interface{}, error) {
			return nil, errors.New("boom")
		})
	}
	time.Sleep(20 * time.Millisecond)

	b.Execute(func() (interface{}, error) {
		return nil, errors.New("still down")
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
