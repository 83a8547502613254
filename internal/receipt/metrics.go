package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcomes
const (
	scanOK         = "ok"
	scanUnreadable = "unreadable"
	scanFailed     = "failed"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "receipt_saver",
		Name:      "scans_total",
		Help:      "Receipt uploads processed, by outcome.",
	}, []string{"outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "receipt_saver",
		Name:      "scan_duration_seconds",
		Help:      "Time from upload to saved receipt, text recognition included.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	extractedItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "receipt_saver",
		Name:      "extracted_items",
		Help:      "Line items found per scanned receipt.",
		Buckets:   prometheus.LinearBuckets(0, 5, 8),
	})
)
