package waiter_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/pageprobe/probe"
	"gitlab.com/pageprobe/waiter"
)

func always(v bool) waiter.Condition {
	return func(ctx context.Context) (bool, error) {
		return v, nil
	}
}

func TestUntilSatisfiedAfterSettle(t *testing.T) {
	w := waiter.New()
	start := time.Now()
	err := w.Until(context.Background(), always(true))
	elapsed := time.Since(start)

	require.NoError(t, err)
	// settle pause plus one interval before the first evaluation
	assert.GreaterOrEqual(t, int64(elapsed), int64(200*time.Millisecond))
	assert.Less(t, int64(elapsed), int64(time.Second))
}

func TestUntilTimesOut(t *testing.T) {
	w := waiter.New(waiter.WithTimeout(time.Second))
	start := time.Now()
	err := w.Until(context.Background(), always(false))
	elapsed := time.Since(start)

	var timeout *probe.TimeoutErr
	require.True(t, errors.As(err, &timeout), "expected timeout got %v", err)
	assert.Equal(t, "Waited 1 seconds for callback.", err.Error())
	assert.Equal(t, time.Second, timeout.Timeout)
	assert.GreaterOrEqual(t, int64(elapsed), int64(time.Second))
	assert.Less(t, int64(elapsed), int64(1600*time.Millisecond))
}

func TestUntilSwallowsErrors(t *testing.T) {
	var calls int32
	cond := func(ctx context.Context) (bool, error) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			return false, errors.New("stale element")
		}
		return true, nil
	}

	var got *waiter.Outcome
	w := waiter.New(waiter.WithInterval(10 * time.Millisecond))
	w.OnOutcome(func(ctx context.Context, o *waiter.Outcome) { got = o })

	require.NoError(t, w.Until(context.Background(), cond))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.NotNil(t, got)
	assert.True(t, got.Satisfied)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, 2, got.Failures)
}

func TestUntilErrorsUntilTimeout(t *testing.T) {
	cond := func(ctx context.Context) (bool, error) {
		return false, errors.New("no such element")
	}
	w := waiter.New(waiter.WithTimeout(200*time.Millisecond), waiter.WithInterval(20*time.Millisecond))
	err := w.Until(context.Background(), cond, waiter.WithMessage("Waited %s seconds for selector on the URL [#x]."))
	assert.True(t, probe.IsTimeout(err))
	assert.Equal(t, "Waited 0.2 seconds for selector on the URL [#x].", err.Error())
}

func TestUntilEvaluatesAtLeastOnce(t *testing.T) {
	var calls int32
	cond := func(ctx context.Context) (bool, error) {
		atomic.AddInt32(&calls, 1)
		return false, nil
	}
	w := waiter.New(waiter.WithTimeout(0), waiter.WithInterval(5*time.Millisecond))
	err := w.Until(context.Background(), cond)
	assert.True(t, probe.IsTimeout(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "Waited 0 seconds for callback.", err.Error())
}

func TestUntilPerCallOverrides(t *testing.T) {
	w := waiter.New()
	start := time.Now()
	err := w.Until(context.Background(), always(false),
		waiter.WithTimeout(500*time.Millisecond),
		waiter.WithInterval(50*time.Millisecond),
		waiter.WithMessage("Waited %s seconds for text [a%%b]."))
	elapsed := time.Since(start)

	assert.Equal(t, "Waited 0.5 seconds for text [a%b].", err.Error())
	assert.Less(t, int64(elapsed), int64(time.Second))
	// instance defaults unchanged
	assert.Equal(t, 5*time.Second, w.Timeout())
	assert.Equal(t, 100*time.Millisecond, w.Interval())
}

func TestUntilIntervalSpacing(t *testing.T) {
	var stamps []time.Time
	cond := func(ctx context.Context) (bool, error) {
		stamps = append(stamps, time.Now())
		return len(stamps) == 4, nil
	}
	w := waiter.New(waiter.WithInterval(30 * time.Millisecond))
	require.NoError(t, w.Until(context.Background(), cond))
	require.Len(t, stamps, 4)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, int64(stamps[i].Sub(stamps[i-1])), int64(30*time.Millisecond))
	}
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var outcome *waiter.Outcome
	w := waiter.New(waiter.WithTimeout(5 * time.Second))
	w.OnOutcome(func(ctx context.Context, o *waiter.Outcome) { outcome = o })

	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := w.Until(ctx, always(false), waiter.WithSubject("never"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, probe.IsTimeout(err))
	assert.Less(t, int64(time.Since(start)), int64(time.Second))

	require.NotNil(t, outcome)
	assert.True(t, outcome.Cancelled)
	assert.False(t, outcome.TimedOut())
	assert.Equal(t, "never", outcome.Subject)
}

func TestUntilTimeoutOutcome(t *testing.T) {
	var outcome *waiter.Outcome
	w := waiter.New(waiter.WithTimeout(100*time.Millisecond), waiter.WithInterval(20*time.Millisecond))
	w.OnOutcome(func(ctx context.Context, o *waiter.Outcome) { outcome = o })

	_ = w.Until(context.Background(), always(false), waiter.WithSubject("#late"))
	require.NotNil(t, outcome)
	assert.True(t, outcome.TimedOut())
	assert.Equal(t, "#late", outcome.Subject)
	assert.Equal(t, "Waited 0.1 seconds for callback.", outcome.Message)
	assert.GreaterOrEqual(t, outcome.Attempts, 2)
	assert.Greater(t, int64(outcome.Elapsed), int64(100*time.Millisecond))
}

func TestFromConfig(t *testing.T) {
	cfg := probe.DefaultConfig()
	cfg.WaitSeconds = 2
	cfg.IntervalMillis = 250
	w := waiter.FromConfig(cfg)
	assert.Equal(t, 2*time.Second, w.Timeout())
	assert.Equal(t, 250*time.Millisecond, w.Interval())
}
