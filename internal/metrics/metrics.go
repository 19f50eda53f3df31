// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus instrumentation for the export
// pipeline. The worker process serves these on /metrics.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChainsDispatched counts chains handed to the queue transport.
	ChainsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_chains_dispatched_total",
		Help: "The total number of export chains dispatched",
	})

	// JobsProcessed counts job executions by kind and status.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_processed_total",
		Help: "The total number of processed export jobs",
	}, []string{"kind", "status"}) // status: completed, failed

	// ChainsFailed counts chains that entered a terminal failed state.
	ChainsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_chains_failed_total",
		Help: "The total number of export chains aborted by a job failure",
	})

	// JobDuration tracks job execution time by kind.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "export_job_duration_seconds",
		Help:    "Duration of export job execution.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"kind"})
)

// StartServer runs an HTTP server exposing Prometheus metrics.
func StartServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()
}
