package telemetry

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depscan_pipeline_runs_total",
		Help: "Completed pipeline runs by outcome.",
	}, []string{"outcome"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depscan_pipeline_duration_seconds",
		Help:    "End-to-end pipeline duration.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	vulnerabilitiesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depscan_vulnerabilities_found_total",
		Help: "Vulnerability findings returned by the scanner.",
	})
)

// ObservePipeline records one finished pipeline run.
func ObservePipeline(d time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	pipelineRuns.WithLabelValues(outcome).Inc()
	pipelineDuration.Observe(d.Seconds())
}

// CountVulnerabilities records scanner findings.
func CountVulnerabilities(n int) {
	vulnerabilitiesFound.Add(float64(n))
}

// StartMetricsServer starts a HTTP server exposing Prometheus metrics.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("starting metrics server", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
