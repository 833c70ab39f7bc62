// Package obs exposes optional Prometheus metrics for a pairdisco run.
// Unlike the pipeline's own artifacts, this is pure ambient
// observability: the run produces correct output whether or not a scrape
// target is listening.
package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry holds the metrics a single pairdisco run reports.
type Registry struct {
	StageDuration   *prometheus.HistogramVec
	SourceSuccess   *prometheus.GaugeVec
	SymbolsEmitted  prometheus.Gauge
	ValidationYield *prometheus.GaugeVec
	RunResult       *prometheus.CounterVec
}

// NewRegistry constructs and registers the metric set.
func NewRegistry() *Registry {
	r := &Registry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairdisco_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		SourceSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairdisco_source_up",
				Help: "1 if a source succeeded its stage, 0 otherwise",
			},
			[]string{"source", "stage"},
		),
		SymbolsEmitted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pairdisco_symbols_emitted",
				Help: "Number of symbol records in the most recent publication",
			},
		),
		ValidationYield: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairdisco_validation_yield_ratio",
				Help: "Fraction of attempted symbols that validated per source",
			},
			[]string{"source"},
		),
		RunResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairdisco_run_total",
				Help: "Total pipeline runs by exit code",
			},
			[]string{"exit_code"},
		),
	}

	prometheus.MustRegister(r.StageDuration, r.SourceSuccess, r.SymbolsEmitted, r.ValidationYield, r.RunResult)
	return r
}

// ObserveStage records how long a named pipeline stage took.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Serve starts a blocking HTTP server exposing /metrics; it returns when
// ctx is cancelled or the listener fails.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
