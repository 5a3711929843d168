package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScheduler(reg)

	m.Runs.WithLabelValues("ok").Inc()
	m.Reminders.Add(3)
	m.Dispatches.WithLabelValues("email", "reminder", "ok").Inc()
	m.RunDuration.Observe(0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Reminders))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "billing_daily_pass_runs_total")
	assert.Contains(t, names, "billing_notify_dispatches_total")
	assert.Contains(t, names, "billing_daily_pass_duration_seconds")

	assert.Panics(t, func() { NewScheduler(reg) })
}

func TestNewScheduler_NilRegistry(t *testing.T) {
	m := NewScheduler(nil)
	m.Deactivations.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deactivations))
}
