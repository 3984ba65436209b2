package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/pageprobe/metrics"
	"gitlab.com/pageprobe/waiter"
)

func TestObserveWait(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveWait(&waiter.Outcome{Satisfied: true, Attempts: 3, Failures: 2, Elapsed: 300 * time.Millisecond})
	m.ObserveWait(&waiter.Outcome{Attempts: 10, Elapsed: time.Second})
	m.ObserveWait(&waiter.Outcome{Cancelled: true, Attempts: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Waits.WithLabelValues(waiter.ResultSatisfied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Waits.WithLabelValues(waiter.ResultTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Waits.WithLabelValues(waiter.ResultCancelled)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConditionErrors))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pageprobe_waits_total")
	assert.Contains(t, names, "pageprobe_wait_duration_seconds")
	assert.Contains(t, names, "pageprobe_wait_attempts")
}

func TestObserver(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	w := waiter.New(waiter.WithInterval(5 * time.Millisecond))
	w.OnOutcome(m.Observer())

	require.NoError(t, w.Until(context.Background(), func(ctx context.Context) (bool, error) { return true, nil }))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Waits.WithLabelValues(waiter.ResultSatisfied)))
}
