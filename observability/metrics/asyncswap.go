package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type AsyncSwapMetrics struct {
	swapsIntercepted prometheus.Counter
	swapsExecuted    prometheus.Counter
	swapsCancelled   prometheus.Counter
	pendingSwaps     prometheus.Gauge
	executionErrors  *prometheus.CounterVec
}

var (
	asyncSwapOnce     sync.Once
	asyncSwapRegistry *AsyncSwapMetrics
)

func AsyncSwap() *AsyncSwapMetrics {
	asyncSwapOnce.Do(func() {
		asyncSwapRegistry = &AsyncSwapMetrics{
			swapsIntercepted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "asyncswap_swaps_intercepted_total",
				Help: "Count of large swaps intercepted and escrowed.",
			}),
			swapsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "asyncswap_swaps_executed_total",
				Help: "Count of pending swaps settled by an executor.",
			}),
			swapsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "asyncswap_swaps_cancelled_total",
				Help: "Count of expired pending swaps refunded to their owner.",
			}),
			pendingSwaps: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "asyncswap_pending_swaps",
				Help: "Number of pending swaps currently escrowed.",
			}),
			executionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "asyncswap_execution_errors_total",
				Help: "Count of failed execute attempts by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			asyncSwapRegistry.swapsIntercepted,
			asyncSwapRegistry.swapsExecuted,
			asyncSwapRegistry.swapsCancelled,
			asyncSwapRegistry.pendingSwaps,
			asyncSwapRegistry.executionErrors,
		)
	})
	return asyncSwapRegistry
}

func (m *AsyncSwapMetrics) ObserveIntercepted() {
	if m == nil {
		return
	}
	m.swapsIntercepted.Inc()
	m.pendingSwaps.Inc()
}

func (m *AsyncSwapMetrics) ObserveExecuted() {
	if m == nil {
		return
	}
	m.swapsExecuted.Inc()
	m.pendingSwaps.Dec()
}

func (m *AsyncSwapMetrics) ObserveCancelled() {
	if m == nil {
		return
	}
	m.swapsCancelled.Inc()
	m.pendingSwaps.Dec()
}

func (m *AsyncSwapMetrics) ObserveExecutionError(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.executionErrors.WithLabelValues(reason).Inc()
}
