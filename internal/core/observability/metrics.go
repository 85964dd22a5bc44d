// Package observability holds the Prometheus instruments shared by the
// catalog client and the fake GeoServer.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	restRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoserver_rest_requests_total",
			Help: "Total number of GeoServer REST calls.",
		},
		[]string{"method", "collection", "status"},
	)

	restRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoserver_rest_request_duration_seconds",
			Help:    "Duration of GeoServer REST calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "collection"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_published_total",
			Help: "Catalog change events handed to the event sink, by outcome.",
		},
		[]string{"op", "outcome"},
	)

	eventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_consumed_total",
			Help: "Catalog change events read back from Kafka, by outcome.",
		},
		[]string{"outcome"},
	)
)

// Init registers every instrument with r. Registering twice with the same
// registry is a no-op.
func Init(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		restRequestsTotal, restRequestDurationSeconds, httpRequestsTotal, eventsPublishedTotal, eventsConsumedTotal,
	} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveREST records one outbound REST call. status is 0 when no response
// was received.
func ObserveREST(method, collection string, status int, durationSeconds float64) {
	if collection == "" {
		collection = "other"
	}
	restRequestsTotal.WithLabelValues(method, collection, strconv.Itoa(status)).Inc()
	restRequestDurationSeconds.WithLabelValues(method, collection).Observe(durationSeconds)
}

// RESTRequestsCounter exposes one series of the outbound-calls counter.
func RESTRequestsCounter(method, collection string, status int) prometheus.Counter {
	return restRequestsTotal.WithLabelValues(method, collection, strconv.Itoa(status))
}

func ObserveHTTP(method, route string, status int) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// HTTPRequestsCounter exposes one series of the served-requests counter.
func HTTPRequestsCounter(method, route string, status int) prometheus.Counter {
	return httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status))
}

func IncEventPublished(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	eventsPublishedTotal.WithLabelValues(op, outcome).Inc()
}

// EventsPublishedCounter exposes one series of the published-events counter.
func EventsPublishedCounter(op, outcome string) prometheus.Counter {
	return eventsPublishedTotal.WithLabelValues(op, outcome)
}

// IncEventConsumed counts one consumed message; outcome is ok, decode or
// handler.
func IncEventConsumed(outcome string) {
	eventsConsumedTotal.WithLabelValues(outcome).Inc()
}

func EventsConsumedCounter(outcome string) prometheus.Counter {
	return eventsConsumedTotal.WithLabelValues(outcome)
}
