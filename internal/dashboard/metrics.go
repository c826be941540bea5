package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK      = "ok"
	resultPartial = "partial"
	resultError   = "error"
)

var (
	projections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_dashboard_projections_total",
		Help: "The total number of welcome dashboard projections by result",
	}, []string{"result"})
	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookstore_dashboard_fetch_seconds",
		Help:    "Time spent waiting for the dashboard record sets",
		Buckets: prometheus.DefBuckets,
	})
)
