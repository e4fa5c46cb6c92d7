// Package telemetry exports barometer readings and bus activity as
// prometheus metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mklimuk/barometer/environment"
)

const namespace = "bmp280"

type Metrics struct {
	temperature  *prometheus.GaugeVec
	pressure     *prometheus.GaugeVec
	samples      *prometheus.CounterVec
	sampleErrors *prometheus.CounterVec
	lastSample   *prometheus.GaugeVec
	transactions *prometheus.CounterVec
	busDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last compensated temperature.",
		}, []string{"device"}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pressure_pascals",
			Help:      "Last compensated pressure.",
		}, []string{"device"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Successful temperature and pressure readings.",
		}, []string{"device"}),
		sampleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_errors_total",
			Help:      "Failed readings.",
		}, []string{"device"}),
		lastSample: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sample_timestamp_seconds",
			Help:      "Unix time of the last successful reading.",
		}, []string{"device"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_transactions_total",
			Help:      "I2C transactions by operation and result.",
		}, []string{"bus", "op", "result"}),
		busDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_transaction_duration_seconds",
			Help:      "I2C transaction latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"bus", "op"}),
	}
	reg.MustRegister(m.temperature, m.pressure, m.samples, m.sampleErrors, m.lastSample, m.transactions, m.busDuration)
	return m
}

// Observe records a successful reading.
func (m *Metrics) Observe(device string, r environment.Reading, at time.Time) {
	m.temperature.WithLabelValues(device).Set(r.Temperature)
	m.pressure.WithLabelValues(device).Set(r.Pressure)
	m.samples.WithLabelValues(device).Inc()
	m.lastSample.WithLabelValues(device).Set(float64(at.Unix()))
}

func (m *Metrics) ObserveError(device string) {
	m.sampleErrors.WithLabelValues(device).Inc()
}

func (m *Metrics) observeTransaction(bus, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transactions.WithLabelValues(bus, op, result).Inc()
	m.busDuration.WithLabelValues(bus, op).Observe(time.Since(start).Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	})
}
