package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(InstanceInfo{InstanceID: "test"}).(*metrics)

	m.IncrementHTTPRequests()
	m.IncrementHTTPRequests()
	m.IncrementHTTPErrors()
	m.ObserveInference(0.01, false)
	m.ObserveInference(0.02, true)
	m.SetModelInfo("sentence-transformers/all-MiniLM-L6-v2", "huggingface", 384)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpErrorsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inferenceFailuresTotal))
	assert.Equal(t, 384.0, testutil.ToFloat64(
		m.modelInfo.WithLabelValues("sentence-transformers/all-MiniLM-L6-v2", "huggingface"),
	))
}

func TestMetricsRegistryGathers(t *testing.T) {
	m := NewMetrics(InstanceInfo{})
	m.ObserveAPIEndpointDuration("/embed", "POST", "200", 0.05)

	families, err := m.GetRegistry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["embed_api_time_seconds"])
	assert.True(t, names["embed_system_start_timestamp_seconds"])
	assert.True(t, names["embed_inference_failures_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.IncrementHTTPRequests()
		m.IncrementHTTPErrors()
		m.ObserveInference(1, true)
		m.ObserveAPIEndpointDuration("/embed", "POST", "500", 1)
		m.SetModelInfo("m", "p", 1)
	})
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	m.IncrementHTTPRequests()
	m.ObserveInference(1, false)

	families, err := m.GetRegistry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
