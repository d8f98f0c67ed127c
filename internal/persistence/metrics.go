// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package persistence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for statement execution.
var (
	statementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authms_db_statements_total",
		Help: "Total number of database statements by operation and status",
	}, []string{"op", "status"})

	statementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authms_db_statement_duration_seconds",
		Help:    "Histogram of database statement latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// RegisterMetrics registers the persistence metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(statementsTotal, statementDuration)
}

// observe records one finished statement.
func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	statementsTotal.WithLabelValues(op, status).Inc()
	statementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
