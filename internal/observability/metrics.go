// Package observability holds the process-wide Prometheus collectors.
// Collectors are registered once at construction; exposition happens on the
// shared /metrics handler.
package observability

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	IngestsTotal      *prometheus.CounterVec
	BroadcastsTotal   prometheus.Counter
	DeliveryFailures  prometheus.Counter
	EchoMessagesTotal prometheus.Counter
	LiveSubscribers   prometheus.Gauge
}

func NewMetrics() *Metrics {
	ingests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "humidity_ingests_total",
		Help: "Board readings processed, labelled by outcome.",
	}, []string{"outcome"})
	broadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "humidity_broadcasts_total",
		Help: "Chart series fan-outs triggered by ingests.",
	})
	deliveryFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "humidity_delivery_failures_total",
		Help: "Subscriber sends that failed and caused removal.",
	})
	echoes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "humidity_echo_messages_total",
		Help: "Client-pushed messages echoed on the live channel.",
	})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "humidity_live_subscribers",
		Help: "Currently connected live-channel subscribers.",
	})

	prometheus.MustRegister(ingests, broadcasts, deliveryFailures, echoes, subscribers)

	return &Metrics{
		IngestsTotal:      ingests,
		BroadcastsTotal:   broadcasts,
		DeliveryFailures:  deliveryFailures,
		EchoMessagesTotal: echoes,
		LiveSubscribers:   subscribers,
	}
}

// NopMetrics returns unregistered collectors for tests.
func NopMetrics() *Metrics {
	return &Metrics{
		IngestsTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_ingests_total"}, []string{"outcome"}),
		BroadcastsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Name: "test_broadcasts_total"}),
		DeliveryFailures:  prometheus.NewCounter(prometheus.CounterOpts{Name: "test_delivery_failures_total"}),
		EchoMessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_echo_messages_total"}),
		LiveSubscribers:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_live_subscribers"}),
	}
}
