package watch

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes poll counters for long-running watch sessions.
type Metrics struct {
	registry *prometheus.Registry

	polls    prometheus.Counter
	changes  prometheus.Counter
	errors   prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics builds a self-contained registry so watch metrics never
// collide with anything else in the process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linear_watch_polls_total",
			Help: "Number of issue polls performed.",
		}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linear_watch_changes_total",
			Help: "Number of issue updates observed.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linear_watch_poll_errors_total",
			Help: "Number of polls that failed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linear_watch_poll_duration_seconds",
			Help:    "Latency of issue polls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.polls, m.changes, m.errors, m.duration)
	return m
}

// ObservePoll records one poll attempt.
func (m *Metrics) ObservePoll(d time.Duration, err error) {
	m.polls.Inc()
	m.duration.Observe(d.Seconds())
	if err != nil {
		m.errors.Inc()
	}
}

// ObserveChange records an observed issue update.
func (m *Metrics) ObserveChange() {
	m.changes.Inc()
}

// Handler returns the HTTP surface served while watching.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errs:
		return err
	}
}
