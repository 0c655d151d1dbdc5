package pubcontent

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eringen/pubcontent/schema"
)

const metricsNamespace = "pubcontent"

// Metrics holds the Prometheus collectors for content validation.
type Metrics struct {
	FilesValidated     *prometheus.CounterVec
	FieldErrors        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	CollectionEntries  prometheus.Gauge
	CollectionErrors   prometheus.Gauge
	APIRequests        *prometheus.CounterVec
}

// DefaultMetrics is registered with the default Prometheus registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FilesValidated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_validated_total",
			Help:      "Content files validated, by result",
		}, []string{"result"}),
		FieldErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "field_errors_total",
			Help:      "Front-matter field errors, by field and kind",
		}, []string{"field", "kind"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "file_validation_seconds",
			Help:      "Time spent parsing and validating a single content file",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		CollectionEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "collection_entries",
			Help:      "Valid entries in the most recent collection load",
		}),
		CollectionErrors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "collection_invalid_files",
			Help:      "Invalid files in the most recent collection load",
		}),
		APIRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "api_validations_total",
			Help:      "Validation API requests, by result",
		}, []string{"result"}),
	}
}

// ObserveFile records the outcome of validating one content file.
func (m *Metrics) ObserveFile(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationDuration.Observe(d.Seconds())
	if err == nil {
		m.FilesValidated.WithLabelValues("valid").Inc()
		return
	}
	m.FilesValidated.WithLabelValues("invalid").Inc()
	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			m.FieldErrors.WithLabelValues(fe.Field, fe.Kind.String()).Inc()
		}
	}
}

// ObserveCollection records the size of a loaded collection.
func (m *Metrics) ObserveCollection(c *Collection) {
	if m == nil {
		return
	}
	m.CollectionEntries.Set(float64(len(c.Entries)))
	m.CollectionErrors.Set(float64(len(c.Errors)))
}

func (m *Metrics) observeAPI(result string) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(result).Inc()
}
