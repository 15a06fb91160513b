// Package metrics exposes session and channel counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codeflow_tui"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	// ChannelEvents counts events received from the push channel.
	// Labels: event
	ChannelEvents *prometheus.CounterVec

	// Refetches counts session query refetches.
	// Labels: reason (reconnect, projects, manual, token)
	Refetches *prometheus.CounterVec

	// SessionStates counts transitions into each session state.
	// Labels: state
	SessionStates *prometheus.CounterVec

	// QueryDuration measures session query latency.
	// Labels: outcome (ok, error)
	QueryDuration *prometheus.HistogramVec

	// ChannelConnected is 1 while the push channel is connected.
	ChannelConnected prometheus.Gauge
}

// New registers the collectors on reg. Pass a fresh registry in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		ChannelEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "events_total",
			Help:      "Push channel events received",
		}, []string{"event"}),
		Refetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refetches_total",
			Help:      "Session query refetches by reason",
		}, []string{"reason"}),
		SessionStates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state_transitions_total",
			Help:      "Transitions into each session state",
		}, []string{"state"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "query_duration_seconds",
			Help:      "Session query latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		ChannelConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "connected",
			Help:      "1 while the push channel is connected",
		}),
	}
}

// Event records a channel event.
func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.ChannelEvents.WithLabelValues(name).Inc()
}

// Refetch records a session refetch.
func (m *Metrics) Refetch(reason string) {
	if m == nil {
		return
	}
	m.Refetches.WithLabelValues(reason).Inc()
}

// State records a transition into state.
func (m *Metrics) State(state string) {
	if m == nil {
		return
	}
	m.SessionStates.WithLabelValues(state).Inc()
}

// Query records a session query that took d.
func (m *Metrics) Query(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.QueryDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Connected sets the channel gauge.
func (m *Metrics) Connected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.ChannelConnected.Set(1)
	} else {
		m.ChannelConnected.Set(0)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen binds addr for Serve. Binding early lets a bad address fail the
// command before the terminal is taken over.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	return ln, nil
}

// Serve exposes /metrics on ln until ctx is done. ln is closed on return.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("metrics listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
