package main

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "http_requests_total",
			Help:      "Number of processed http requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	bookValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "book_validation_failures_total",
			Help:      "Number of rejected book forms by failing field.",
		},
		[]string{"field"},
	)

	recommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcatalog",
			Name:      "recommendations_total",
			Help:      "Number of recommendation requests by outcome.",
		},
		[]string{"outcome"},
	)
)

func observeRequest(method string, code int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func observeValidationFailures(errs FieldErrors) {
	for field := range errs {
		bookValidationFailuresTotal.WithLabelValues(field).Inc()
	}
}

func observeRecommendation(found bool) {
	outcome := "none"
	if found {
		outcome = "found"
	}
	recommendationsTotal.WithLabelValues(outcome).Inc()
}

// GetMetrics exposes the prometheus metrics of the service.
func (api *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	promhttp.Handler().ServeHTTP(w, r)
}
