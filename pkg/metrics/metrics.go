package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "floreria"

var (
	// Registry holds the service collectors; it is what /metrics exposes.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	feeCalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "fee_calculations_total",
			Help:      "Delivery fees computed, by zone and whether delivery was free.",
		},
		[]string{"zone", "free"},
	)

	quotesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "quotes_created_total",
			Help:      "Delivery quotes created, by zone and delivery type.",
		},
		[]string{"zone", "delivery_type"},
	)

	quotesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "quotes_rejected_total",
			Help:      "Delivery quote requests rejected, by cause.",
		},
		[]string{"cause"},
	)

	geocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "lookups_total",
			Help:      "Address lookups, by where the answer came from.",
		},
		[]string{"source"},
	)

	communeResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "commune_resolutions_total",
			Help:      "Address to commune resolutions, by method.",
		},
		[]string{"method"},
	)

	catalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "catalog_reloads_total",
			Help:      "Catalog file reload attempts, by result.",
		},
		[]string{"result"},
	)
)

// Geocode lookup sources.
const (
	SourceCache    = "cache"
	SourceProvider = "provider"
	SourceError    = "error"
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		feeCalculations,
		quotesCreated,
		quotesRejected,
		geocodeLookups,
		communeResolutions,
		catalogReloads,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTPRequest records one finished request. path must be the route
// template, never the raw URL.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordFeeCalculation(zoneID string, free bool) {
	feeCalculations.WithLabelValues(zoneID, strconv.FormatBool(free)).Inc()
}

func RecordQuoteCreated(zoneID, deliveryType string) {
	quotesCreated.WithLabelValues(zoneID, deliveryType).Inc()
}

func RecordQuoteRejected(cause string) {
	quotesRejected.WithLabelValues(cause).Inc()
}

func RecordGeocodeLookup(source string) {
	geocodeLookups.WithLabelValues(source).Inc()
}

func RecordCommuneResolution(method string) {
	communeResolutions.WithLabelValues(method).Inc()
}

func RecordCatalogReload(err error) {
	result := "success"
	if err != nil {
		result = "rejected"
	}
	catalogReloads.WithLabelValues(result).Inc()
}
