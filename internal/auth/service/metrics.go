package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AccountOperations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// AccountOperations counts account operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AccountOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "realmauth_account_operations_total",
		Help: "Total number of account operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// CredentialDerivation times SRP6 verifier derivations.
// Use RegisterMetrics to register this with a Prometheus registry.
var CredentialDerivation = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "realmauth_credential_derivation_seconds",
		Help:    "SRP6 verifier derivation duration in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	},
	[]string{"mode"},
)

// RegisterMetrics registers the service metrics with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AccountOperations)
	reg.MustRegister(CredentialDerivation)
}

// RecordOperation counts one operation, classifying err into an outcome.
func RecordOperation(operation string, err error) {
	AccountOperations.WithLabelValues(operation, outcomeOf(err)).Inc()
}

// RecordDerivation records how long a derivation took. mode is "generate"
// or "verify".
func RecordDerivation(mode string, d time.Duration) {
	CredentialDerivation.WithLabelValues(mode).Observe(d.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsRejection(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
