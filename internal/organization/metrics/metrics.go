package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the organization module.
type Metrics struct {
	OrganizationsCreated prometheus.Counter
	TokensIssued         prometheus.Counter
	AuthenticateDuration prometheus.Histogram
}

// New creates and registers the organization metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		OrganizationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_organizations_created_total",
			Help: "Total number of organizations created",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "launchpad_organization_tokens_issued_total",
			Help: "Total number of API tokens issued to organizations",
		}),
		AuthenticateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "launchpad_organization_authenticate_duration_seconds",
			Help:    "Duration of Authenticate operations (bcrypt verification path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementOrganizationCreated records a successful organization creation.
func (m *Metrics) IncrementOrganizationCreated() {
	if m == nil {
		return
	}
	m.OrganizationsCreated.Inc()
}

// IncrementTokenIssued records a successful token issuance.
func (m *Metrics) IncrementTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

// ObserveAuthenticate records the duration of an Authenticate operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAuthenticate(start time.Time) {
	if m == nil {
		return
	}
	m.AuthenticateDuration.Observe(time.Since(start).Seconds())
}
