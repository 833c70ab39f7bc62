package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_ClosedState(t *testing.T) {
	config := Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	assert.Equal(t, StateClosed, breaker.State())

	err := breaker.Call(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_OpenOnFailures(t *testing.T) {
	config := Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	for i := 0; i < 3; i++ {
		err := breaker.Call(context.Background(), func(ctx context.Context) error {
			return errors.New("test failure")
		})
		assert.Error(t, err)
	}

	assert.Equal(t, StateOpen, breaker.State())

	err := breaker.Call(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.Equal(t, ErrCircuitOpen, err)
}

func TestBreaker_OnStateChangeFires(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	config := Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          50 * time.Millisecond,
		RequestTimeout:   100 * time.Millisecond,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, transition{from, to})
		},
	}
	breaker := NewBreaker(config)

	for i := 0; i < 2; i++ {
		breaker.Call(context.Background(), func(ctx context.Context) error {
			return errors.New("okx rest 503")
		})
	}
	require.Len(t, transitions, 1, "expected one state change when the breaker trips open")
	assert.Equal(t, StateClosed, transitions[0].from)
	assert.Equal(t, StateOpen, transitions[0].to)

	time.Sleep(60 * time.Millisecond)
	breaker.Call(context.Background(), func(ctx context.Context) error { return nil })
	require.Len(t, transitions, 3, "expected half-open then closed transitions after recovery")
	assert.Equal(t, StateHalfOpen, transitions[1].to)
	assert.Equal(t, StateClosed, transitions[2].to)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	config := Config{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
		RequestTimeout:   100 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	for i := 0; i < 2; i++ {
		breaker.Call(context.Background(), func(ctx context.Context) error {
			return errors.New("failure")
		})
	}
	require.Equal(t, StateOpen, breaker.State())

	time.Sleep(60 * time.Millisecond)

	err := breaker.Call(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, breaker.State())

	err = breaker.Call(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_HalfOpenFailure(t *testing.T) {
	config := Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          50 * time.Millisecond,
		RequestTimeout:   100 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	breaker.Call(context.Background(), func(ctx context.Context) error {
		return errors.New("failure")
	})
	require.Equal(t, StateOpen, breaker.State())

	time.Sleep(60 * time.Millisecond)

	err := breaker.Call(context.Background(), func(ctx context.Context) error {
		return errors.New("half-open failure")
	})
	assert.Error(t, err)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreaker_Timeout(t *testing.T) {
	config := Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	err := breaker.Call(context.Background(), func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	assert.Equal(t, ErrRequestTimeout, err)

	stats := breaker.Stats()
	assert.NotZero(t, stats.TotalTimeouts)
}

func TestBreaker_Stats(t *testing.T) {
	config := Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	breaker.Call(context.Background(), func(ctx context.Context) error { return nil })
	breaker.Call(context.Background(), func(ctx context.Context) error { return errors.New("fail") })
	breaker.Call(context.Background(), func(ctx context.Context) error { return nil })

	stats := breaker.Stats()

	assert.EqualValues(t, 3, stats.TotalRequests)
	assert.EqualValues(t, 2, stats.TotalSuccesses)
	assert.EqualValues(t, 1, stats.TotalFailures)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 0.01)
	assert.Equal(t, StateClosed, stats.State)
	assert.False(t, stats.IsHealthy(), "should not be healthy below a 90% success rate")
}

func TestBreaker_Reset(t *testing.T) {
	config := Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	breaker := NewBreaker(config)

	breaker.Call(context.Background(), func(ctx context.Context) error { return errors.New("fail") })
	breaker.Call(context.Background(), func(ctx context.Context) error { return errors.New("fail") })
	require.Equal(t, StateOpen, breaker.State())

	breaker.Reset()

	assert.Equal(t, StateClosed, breaker.State())
	stats := breaker.Stats()
	assert.Zero(t, stats.TotalRequests)
}

func TestBreaker_ForceStates(t *testing.T) {
	breaker := NewBreaker(Config{})

	breaker.ForceOpen()
	assert.Equal(t, StateOpen, breaker.State())

	breaker.ForceHalfOpen()
	assert.Equal(t, StateHalfOpen, breaker.State())

	breaker.ForceClosed()
	assert.Equal(t, StateClosed, breaker.State())
}

func TestManager_AddProvider(t *testing.T) {
	manager := NewManager()
	config := Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}

	manager.AddProvider("binance_spot", config)

	breaker, exists := manager.GetBreaker("binance_spot")
	require.True(t, exists)
	require.NotNil(t, breaker)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestManager_Call(t *testing.T) {
	manager := NewManager()

	err := manager.Call(context.Background(), "unconfigured_source", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err, "should execute directly for an unconfigured provider")

	config := Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          100 * time.Millisecond,
		RequestTimeout:   50 * time.Millisecond,
	}
	manager.AddProvider("okx_spot", config)

	err = manager.Call(context.Background(), "okx_spot", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	err = manager.Call(context.Background(), "okx_spot", func(ctx context.Context) error {
		return errors.New("failure")
	})
	assert.Error(t, err)

	err = manager.Call(context.Background(), "okx_spot", func(ctx context.Context) error {
		return nil
	})
	assert.Equal(t, ErrCircuitOpen, err)
}

func TestManager_Stats(t *testing.T) {
	manager := NewManager()

	config1 := Config{FailureThreshold: 3, SuccessThreshold: 2, Timeout: 100 * time.Millisecond, RequestTimeout: 50 * time.Millisecond}
	config2 := Config{FailureThreshold: 5, SuccessThreshold: 3, Timeout: 200 * time.Millisecond, RequestTimeout: 100 * time.Millisecond}

	manager.AddProvider("binance_spot", config1)
	manager.AddProvider("bybit_futures", config2)

	manager.Call(context.Background(), "binance_spot", func(ctx context.Context) error { return nil })
	manager.Call(context.Background(), "bybit_futures", func(ctx context.Context) error { return errors.New("fail") })

	allStats := manager.Stats()
	require.Len(t, allStats, 2)

	binanceStats, exists := allStats["binance_spot"]
	require.True(t, exists)
	assert.EqualValues(t, 1, binanceStats.TotalRequests)

	bybitStats, exists := allStats["bybit_futures"]
	require.True(t, exists)
	assert.EqualValues(t, 1, bybitStats.TotalFailures)
}

func TestManager_IsHealthy(t *testing.T) {
	manager := NewManager()
	assert.True(t, manager.IsHealthy(), "manager with no providers should be healthy")

	config := Config{FailureThreshold: 5, SuccessThreshold: 2, Timeout: 100 * time.Millisecond, RequestTimeout: 50 * time.Millisecond}
	manager.AddProvider("mexc_spot", config)

	for i := 0; i < 10; i++ {
		manager.Call(context.Background(), "mexc_spot", func(ctx context.Context) error { return nil })
	}
	assert.True(t, manager.IsHealthy())

	manager.AddProvider("mexc_futures", config)
	for i := 0; i < 5; i++ {
		manager.Call(context.Background(), "mexc_futures", func(ctx context.Context) error { return errors.New("fail") })
	}
	assert.False(t, manager.IsHealthy(), "manager should be unhealthy with an open circuit")
}

func TestManager_GetUnhealthyProviders(t *testing.T) {
	manager := NewManager()

	config := Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: 100 * time.Millisecond, RequestTimeout: 50 * time.Millisecond}

	manager.AddProvider("binance_spot", config)
	manager.AddProvider("okx_futures", config)

	manager.Call(context.Background(), "binance_spot", func(ctx context.Context) error { return nil })

	manager.Call(context.Background(), "okx_futures", func(ctx context.Context) error { return errors.New("fail") })
	manager.Call(context.Background(), "okx_futures", func(ctx context.Context) error { return errors.New("fail") })

	unhealthy := manager.GetUnhealthyProviders()
	require.Len(t, unhealthy, 1)
	assert.Contains(t, unhealthy[0], "okx_futures")
}
