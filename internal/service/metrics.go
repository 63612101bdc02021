package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_operations_total",
			Help: "Total number of wishlist operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	storeRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_store_retries_total",
			Help: "Total number of store retries after transient errors",
		},
		[]string{"operation"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_cache_lookups_total",
			Help: "Membership cache lookups by result",
		},
		[]string{"result"},
	)

	eventFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_event_publish_failures_total",
			Help: "Domain events that could not be published",
		},
		[]string{"event"},
	)
)

func observe(operation string, err error) {
	operationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case apperrors.IsTransient(err):
		return "unavailable"
	default:
		return "error"
	}
}
