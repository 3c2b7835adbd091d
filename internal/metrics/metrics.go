package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Purchase outcomes used as the "outcome" label.
const (
	OutcomeSold        = "sold"
	OutcomeUnavailable = "unavailable"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Purchase kinds used as the "kind" label.
const (
	KindSingle = "single"
	KindPair   = "pair"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// PurchasesTotal counts purchase attempts by kind and outcome.
	PurchasesTotal *prometheus.CounterVec

	// PurchaseDuration covers the purchase transaction including lock wait.
	PurchaseDuration *prometheus.HistogramVec

	SeatsSoldTotal prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		PurchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_purchases_total",
				Help: "Total number of seat purchase attempts",
			},
			[]string{"kind", "outcome"},
		),
		PurchaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seat_purchase_duration_seconds",
				Help:    "Time spent in seat purchase transactions",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		SeatsSoldTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_sold_total",
				Help: "Total number of seats sold",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PurchasesTotal,
		m.PurchaseDuration,
		m.SeatsSoldTotal,
	)

	return m
}

// ObservePurchase records one purchase attempt. A nil receiver is a no-op.
func (m *Metrics) ObservePurchase(kind, outcome string, seconds float64, seats int) {
	if m == nil {
		return
	}

	m.PurchasesTotal.WithLabelValues(kind, outcome).Inc()
	m.PurchaseDuration.WithLabelValues(kind).Observe(seconds)
	if seats > 0 {
		m.SeatsSoldTotal.Add(float64(seats))
	}
}
