package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "zenora"

// Metrics holds the provisioning metric instruments.
type Metrics struct {
	EmployeesProvisioned metric.Int64Counter
	SequenceConflicts    metric.Int64Counter
	ImportRows           metric.Int64Counter
	ImportDuration       metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EmployeesProvisioned, err = meter.Int64Counter("zenora.employees.provisioned",
		metric.WithDescription("Number of employees provisioned"))
	if err != nil {
		return nil, err
	}

	m.SequenceConflicts, err = meter.Int64Counter("zenora.sequence.conflicts",
		metric.WithDescription("Number of employee-number allocation conflicts retried"))
	if err != nil {
		return nil, err
	}

	m.ImportRows, err = meter.Int64Counter("zenora.import.rows",
		metric.WithDescription("Number of bulk import rows processed"))
	if err != nil {
		return nil, err
	}

	m.ImportDuration, err = meter.Float64Histogram("zenora.import.duration_seconds",
		metric.WithDescription("Bulk import duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
