package node

import (
	"time"

	"github.com/NethermindEth/incrementer/contract"
	"github.com/NethermindEth/incrementer/controller"
	"github.com/NethermindEth/incrementer/counter"
	"github.com/prometheus/client_golang/prometheus"
)

func makeCounterMetrics(reg prometheus.Registerer) counter.EventListener {
	latencyBuckets := []float64{
		.005,
		.01,
		.025,
		.05,
		.1,
		.25,
		.5,
		1,
		2.5,
		5,
		15, // a slow block
		30,
		60,
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incrementer",
		Subsystem: "contract",
		Name:      "calls",
	}, []string{"method", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "incrementer",
		Subsystem: "contract",
		Name:      "call_latency_seconds",
		Buckets:   latencyBuckets,
	}, []string{"method"})

	reg.MustRegister(calls, latency)
	observe := func(method string, took time.Duration, err error) {
		calls.WithLabelValues(method, resultLabel(err)).Inc()
		latency.WithLabelValues(method).Observe(took.Seconds())
	}
	return &counter.SelectiveListener{
		OnReadCb: func(took time.Duration, err error) {
			observe(contract.MethodGetValue, took, err)
		},
		OnIncrementCb: func(took time.Duration, err error) {
			observe(contract.MethodIncrement, took, err)
		},
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return controller.Classify(err).String()
}

func makeControllerMetrics(reg prometheus.Registerer, c *controller.Controller) {
	state := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "incrementer",
		Subsystem: "controller",
		Name:      "state",
		Help:      "0 disconnected, 1 connecting, 2 idle, 3 submitting.",
	}, func() float64 {
		return float64(c.State())
	})
	reg.MustRegister(state)
}
