package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ufund",
		Subsystem: "checkout",
		Name:      "lines_total",
		Help:      "Checkout line outcomes.",
	}, []string{"outcome"})

	checkoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ufund",
		Subsystem: "checkout",
		Name:      "duration_seconds",
		Help:      "End-to-end checkout duration, fan-out to final basket fetch.",
		Buckets:   prometheus.DefBuckets,
	})

	receiptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ufund",
		Subsystem: "checkout",
		Name:      "receipt_publish_failures_total",
		Help:      "Receipt events that could not be handed to the notifier.",
	})
)
