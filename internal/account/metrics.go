// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package account

import "github.com/prometheus/client_golang/prometheus"

// Login and provisioning outcomes used as metric labels.
const (
	outcomeSuccess   = "success"
	outcomeRejected  = "rejected"
	outcomeInvalid   = "invalid"
	outcomeDuplicate = "duplicate"
	outcomeError     = "error"
)

var (
	loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authms_logins_total",
		Help: "Total number of login attempts by mode and outcome",
	}, []string{"mode", "outcome"})

	creationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authms_account_creations_total",
		Help: "Total number of account creation attempts by outcome",
	}, []string{"outcome"})
)

// RegisterMetrics registers the account metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(loginsTotal, creationsTotal)
}
