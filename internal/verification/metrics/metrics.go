// Package metrics exposes Prometheus collectors for the verification workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Transitions by operation and outcome ("applied" or "noop").
	Transitions *prometheus.CounterVec

	// Lockouts started by step 3 or step 4 failures.
	Lockouts *prometheus.CounterVec

	// Registrations refused because an identifier belongs to a locked applicant.
	RegistrationsBlocked *prometheus.CounterVec

	CodesIssued       *prometheus.CounterVec
	CodeVerifications *prometheus.CounterVec

	// Notification sends that did not succeed. Issuance is never rolled back.
	NotificationFailures *prometheus.CounterVec

	OperationLatency *prometheus.HistogramVec

	ApplicantsByStatus *prometheus.GaugeVec
	LockedApplicants   prometheus.Gauge
}

// New registers the verification collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_verification_transitions_total",
			Help: "Verification workflow transitions by operation and outcome",
		}, []string{"operation", "outcome"}),

		Lockouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_verification_lockouts_total",
			Help: "Applicant lockouts started, by the step that triggered them",
		}, []string{"step"}),

		RegistrationsBlocked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_registrations_blocked_total",
			Help: "Registrations refused because an identifier matched a locked applicant",
		}, []string{"field"}),

		CodesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_verification_codes_issued_total",
			Help: "One-time codes issued by channel and trigger",
		}, []string{"channel", "trigger"}),

		CodeVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_verification_code_checks_total",
			Help: "One-time code verification attempts by result",
		}, []string{"result"}),

		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "irdesk_notification_failures_total",
			Help: "Notification sends that failed, by channel",
		}, []string{"channel"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "irdesk_verification_operation_duration_seconds",
			Help:    "Duration of verification service operations including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		ApplicantsByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irdesk_applicants",
			Help: "Applicants by coarse status, refreshed periodically",
		}, []string{"status"}),

		LockedApplicants: f.NewGauge(prometheus.GaugeOpts{
			Name: "irdesk_applicants_locked",
			Help: "Applicants currently locked out, refreshed periodically",
		}),
	}
}

func (m *Metrics) IncTransition(operation string, applied bool) {
	if m == nil {
		return
	}
	outcome := "noop"
	if applied {
		outcome = "applied"
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncLockout(step string) {
	if m != nil {
		m.Lockouts.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncRegistrationBlocked(field string) {
	if m != nil {
		m.RegistrationsBlocked.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) IncCodeIssued(channel, trigger string) {
	if m != nil {
		m.CodesIssued.WithLabelValues(channel, trigger).Inc()
	}
}

func (m *Metrics) IncCodeVerification(success bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if success {
		result = "verified"
	}
	m.CodeVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncNotificationFailure(channel string) {
	if m != nil {
		m.NotificationFailures.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// SetStatusCounts replaces the per-status gauge values. Statuses missing from
// counts but listed in known are reset to zero.
func (m *Metrics) SetStatusCounts(counts map[string]int, known []string) {
	if m == nil {
		return
	}
	for _, s := range known {
		m.ApplicantsByStatus.WithLabelValues(s).Set(float64(counts[s]))
	}
	for s, n := range counts {
		m.ApplicantsByStatus.WithLabelValues(s).Set(float64(n))
	}
}

func (m *Metrics) SetLocked(n int) {
	if m != nil {
		m.LockedApplicants.Set(float64(n))
	}
}
