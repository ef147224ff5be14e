package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Checkouts *prometheus.CounterVec // result: created | rejected | failed
	Webhooks  *prometheus.CounterVec // outcome: reconciler terminal state or "error"
}

func New(service string) *Metrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkout payment creations by result.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "webhooks_total",
		Help:      "Gateway webhook deliveries by outcome.",
	}, []string{"outcome"})

	prometheus.MustRegister(checkouts, webhooks)
	return &Metrics{Checkouts: checkouts, Webhooks: webhooks}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
