package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace          = "embed"
	MetricsSubsystemSystem    = "system"
	MetricsSubsystemHTTP      = "http"
	MetricsSubsystemAPI       = "api"
	MetricsSubsystemInference = "inference"

	MetricsInstanceLabel = "instanceId"
	MetricsModelLabel    = "model"
	MetricsProviderLabel = "provider"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64)

	IncrementHTTPRequests()
	IncrementHTTPErrors()

	ObserveInference(elapsed float64, failed bool)
	SetModelInfo(model, provider string, dimensions int)
}

type InstanceInfo struct {
	InstanceID string
}

// metrics holds the prometheus collectors for one service process.
type metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge
	modelInfo *prometheus.GaugeVec

	apiTime *prometheus.HistogramVec

	httpRequestsTotal prometheus.Counter
	httpErrorsTotal   prometheus.Counter

	inferenceTime          prometheus.Histogram
	inferenceFailuresTotal prometheus.Counter
}

// NewMetrics Factory method to create a new metrics collector.
func NewMetrics(info InstanceInfo) Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	options := collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}
	m.registry.MustRegister(collectors.NewProcessCollector(options))
	m.registry.MustRegister(collectors.NewGoCollector())

	additionalLabels := map[string]string{}
	if info.InstanceID != "" {
		additionalLabels[MetricsInstanceLabel] = info.InstanceID
	}

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemSystem,
		Name:        "start_timestamp_seconds",
		Help:        "The time the service started.",
		ConstLabels: additionalLabels,
	})
	m.startTime.SetToCurrentTime()
	m.registry.MustRegister(m.startTime)

	m.modelInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemSystem,
		Name:        "model_dimensions",
		Help:        "Embedding dimensionality of the loaded model.",
		ConstLabels: additionalLabels,
	}, []string{MetricsModelLabel, MetricsProviderLabel})
	m.registry.MustRegister(m.modelInfo)

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   MetricsNamespace,
			Subsystem:   MetricsSubsystemAPI,
			Name:        "time_seconds",
			Help:        "Time to execute the api handler",
			ConstLabels: additionalLabels,
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.httpRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemHTTP,
		Name:        "requests_total",
		Help:        "The total number of http API requests.",
		ConstLabels: additionalLabels,
	})
	m.registry.MustRegister(m.httpRequestsTotal)

	m.httpErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemHTTP,
		Name:        "errors_total",
		Help:        "The total number of http API errors.",
		ConstLabels: additionalLabels,
	})
	m.registry.MustRegister(m.httpErrorsTotal)

	m.inferenceTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemInference,
		Name:        "time_seconds",
		Help:        "Time spent in the model inference call.",
		ConstLabels: additionalLabels,
	})
	m.registry.MustRegister(m.inferenceTime)

	m.inferenceFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemInference,
		Name:        "failures_total",
		Help:        "The total number of failed inference calls.",
		ConstLabels: additionalLabels,
	})
	m.registry.MustRegister(m.inferenceFailuresTotal)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	if m != nil {
		m.apiTime.With(prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}).Observe(elapsed)
	}
}

func (m *metrics) IncrementHTTPRequests() {
	if m != nil {
		m.httpRequestsTotal.Inc()
	}
}

func (m *metrics) IncrementHTTPErrors() {
	if m != nil {
		m.httpErrorsTotal.Inc()
	}
}

func (m *metrics) ObserveInference(elapsed float64, failed bool) {
	if m == nil {
		return
	}
	m.inferenceTime.Observe(elapsed)
	if failed {
		m.inferenceFailuresTotal.Inc()
	}
}

func (m *metrics) SetModelInfo(model, provider string, dimensions int) {
	if m != nil {
		m.modelInfo.With(prometheus.Labels{MetricsModelLabel: model, MetricsProviderLabel: provider}).Set(float64(dimensions))
	}
}
