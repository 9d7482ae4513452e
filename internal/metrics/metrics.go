// ABOUTME: Prometheus metrics for the listen loop
// ABOUTME: Counts frames, messages, truncated payloads and read errors and exposes them over HTTP
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics contains the receiver's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	FramesRead        prometheus.Counter
	MessagesReceived  prometheus.Counter
	PayloadsTruncated prometheus.Counter
	ReadErrors        prometheus.Counter
	SessionState      prometheus.Gauge
	ListenDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "heywifi_frames_read_total",
			Help: "Total number of audio frames read from the capture device",
		}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "heywifi_messages_received_total",
			Help: "Total number of messages returned by the modem decoder",
		}),
		PayloadsTruncated: factory.NewCounter(prometheus.CounterOpts{
			Name: "heywifi_payloads_truncated_total",
			Help: "Total number of decoded messages discarded as truncated credential records",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "heywifi_read_errors_total",
			Help: "Total number of fatal capture read errors",
		}),
		SessionState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heywifi_session_state",
			Help: "Current session state (0 idle, 1 device ready, 2 decoder ready, 3 listening, 4 extracted, 5 aborted, 6 closed)",
		}),
		ListenDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "heywifi_listen_duration_seconds",
			Help:    "Time spent listening before the session ended",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
	}
}

// RecordFrames adds n frames read
func (m *Metrics) RecordFrames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FramesRead.Add(float64(n))
}

// RecordMessage counts one decoded message
func (m *Metrics) RecordMessage() {
	if m == nil {
		return
	}
	m.MessagesReceived.Inc()
}

// RecordTruncated counts one discarded payload
func (m *Metrics) RecordTruncated() {
	if m == nil {
		return
	}
	m.PayloadsTruncated.Inc()
}

// RecordReadError counts one fatal read error
func (m *Metrics) RecordReadError() {
	if m == nil {
		return
	}
	m.ReadErrors.Inc()
}

// SetState publishes the numeric session state
func (m *Metrics) SetState(state int) {
	if m == nil {
		return
	}
	m.SessionState.Set(float64(state))
}

// ObserveListen records how long the read loop ran
func (m *Metrics) ObserveListen(d time.Duration) {
	if m == nil {
		return
	}
	m.ListenDuration.Observe(d.Seconds())
}

// Serve exposes reg on addr at /metrics until ctx is done
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
