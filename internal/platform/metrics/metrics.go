package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	PatientsCreated   prometheus.Counter
	PatientsUpdated   prometheus.Counter
	AnonymizationRuns prometheus.Counter
	RowsPurged        prometheus.Counter
	LoginFailures     prometheus.Counter
}

// New creates and registers all metrics against the given registerer. main
// passes prometheus.DefaultRegisterer; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PatientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "medvault_patients_created_total",
			Help: "Total number of patient records created",
		}),
		PatientsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "medvault_patients_updated_total",
			Help: "Total number of patient record updates",
		}),
		AnonymizationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "medvault_anonymization_runs_total",
			Help: "Total number of completed anonymization runs",
		}),
		RowsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "medvault_rows_purged_total",
			Help: "Total number of rows deleted by retention purges",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "medvault_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
	}
}
