// ABOUTME: Tests for session metrics
// ABOUTME: Reads collector values back through testutil
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordFrames(16384)
	m.RecordFrames(0)
	m.RecordFrames(100)
	m.RecordMessage()
	m.RecordMessage()
	m.RecordTruncated()
	m.RecordReadError()
	m.SetState(3)
	m.ObserveListen(1500 * time.Millisecond)

	assert.Equal(t, float64(16484), testutil.ToFloat64(m.FramesRead))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MessagesReceived))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PayloadsTruncated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReadErrors))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SessionState))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "heywifi_frames_read_total")
	assert.Contains(t, names, "heywifi_listen_duration_seconds")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFrames(10)
		m.RecordMessage()
		m.RecordTruncated()
		m.RecordReadError()
		m.SetState(1)
		m.ObserveListen(time.Second)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
