package openpayu

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(maxFailures uint32) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: maxFailures, Timeout: 10 * time.Second})
	cb.now = func() time.Time { return now }
	cb.changedAt = now
	return cb, &now
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestCircuitBreaker_DefaultConfig(t *testing.T) {
	config := DefaultCircuitBreakerConfig()
	assert.Equal(t, uint32(5), config.MaxFailures)
	assert.Equal(t, 30*time.Second, config.Timeout)
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Call(fail, nil), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(2), cb.Failures())

	assert.ErrorIs(t, cb.Call(fail, nil), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)

	require.Error(t, cb.Call(fail, nil))
	require.Error(t, cb.Call(fail, nil))
	require.NoError(t, cb.Call(succeed, nil))

	assert.Equal(t, uint32(0), cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ClassifierIgnoresErrors(t *testing.T) {
	cb, _ := newTestBreaker(1)
	ignore := func(error) bool { return false }

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(fail, ignore), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	t.Run("probe success closes", func(t *testing.T) {
		cb, now := newTestBreaker(1)
		require.Error(t, cb.Call(fail, nil))
		require.Equal(t, StateOpen, cb.State())

		*now = now.Add(11 * time.Second)
		require.NoError(t, cb.Call(succeed, nil))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("probe failure reopens", func(t *testing.T) {
		cb, now := newTestBreaker(1)
		require.Error(t, cb.Call(fail, nil))

		*now = now.Add(11 * time.Second)
		require.ErrorIs(t, cb.Call(fail, nil), errBoom)
		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Call(succeed, nil), ErrCircuitOpen)
	})

	t.Run("only one probe at a time", func(t *testing.T) {
		cb, now := newTestBreaker(1)
		require.Error(t, cb.Call(fail, nil))
		*now = now.Add(11 * time.Second)

		var inner error
		err := cb.Call(func() error {
			inner = cb.Call(succeed, nil)
			return nil
		}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, inner, ErrCircuitOpen)
		assert.Equal(t, StateClosed, cb.State())
	})
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
