package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterNotifications.WithLabelValues("goals_updated").Add(2)
	m.GaugeStreamSubscribers.Set(3)
	m.HistRequestDuration.Observe(0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterNotifications.WithLabelValues("goals_updated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.GaugeStreamSubscribers))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["fithub_test_request"])
	assert.True(t, names["fithub_test_request_duration_seconds"])
	assert.True(t, names["fithub_test_stream_subscribers"])
}

func TestManagersUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewTestManager()
		NewTestManager()
	})
}
