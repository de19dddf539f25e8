package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swing_sentinel_scans_total",
			Help: "Total number of scan cycles by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swing_sentinel_scan_duration_seconds",
			Help:    "Duration of scan cycles",
			Buckets: prometheus.DefBuckets,
		},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swing_sentinel_signals_total",
			Help: "Total number of breakout signals emitted",
		},
		[]string{"symbol", "direction"},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swing_sentinel_current_price",
			Help: "Last sampled price of the monitored symbol",
		},
		[]string{"symbol"},
	)

	levelValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swing_sentinel_level",
			Help: "Current reference level by side",
		},
		[]string{"symbol", "side"},
	)

	fetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swing_sentinel_fetch_errors_total",
			Help: "Total number of failed provider calls",
		},
		[]string{"source", "kind"},
	)

	notifyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swing_sentinel_notify_failures_total",
			Help: "Total number of failed signal notifications",
		},
		[]string{"sink"},
	)

	valueScanSymbols = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swing_sentinel_value_scan_symbols_total",
			Help: "Symbols processed by the value scanner by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(scansTotal)
	prometheus.MustRegister(scanDuration)
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(levelValue)
	prometheus.MustRegister(fetchErrorsTotal)
	prometheus.MustRegister(notifyFailuresTotal)
	prometheus.MustRegister(valueScanSymbols)
}

// Handler serves the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScan records one scan cycle.
func RecordScan(trigger, outcome string, seconds float64) {
	scansTotal.WithLabelValues(trigger, outcome).Inc()
	scanDuration.Observe(seconds)
}

// RecordSignal records an emitted signal.
func RecordSignal(symbol, direction string) {
	signalsTotal.WithLabelValues(symbol, direction).Inc()
}

// UpdatePrice updates the current price gauge.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdateLevel updates a level gauge; side is "high" or "low".
func UpdateLevel(symbol, side string, value float64) {
	levelValue.WithLabelValues(symbol, side).Set(value)
}

// RecordFetchError counts a failed provider call.
func RecordFetchError(source, kind string) {
	fetchErrorsTotal.WithLabelValues(source, kind).Inc()
}

// RecordNotifyFailure counts a failed notification.
func RecordNotifyFailure(sink string) {
	notifyFailuresTotal.WithLabelValues(sink).Inc()
}

// RecordValueScan counts a value-scanner unit of work.
func RecordValueScan(outcome string) {
	valueScanSymbols.WithLabelValues(outcome).Inc()
}
