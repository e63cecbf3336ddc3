// Package middleware carries the ambient HTTP and matching-engine metrics,
// kept on the teacher's promauto/gin pattern and extended with series for
// the matching engine itself.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nathanyu/limitbook/internal/domain"
)

var (
	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// OrdersTotal counts order events by action: "add" for each order that
	// comes to rest, "cancel" for each cancel, "modify" for each modify that
	// leaves the order resting. Adds and modifies that fill completely are
	// not counted.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "book_orders_total",
			Help: "Total number of order commands by action that left an order resting or cancelled one",
		},
		[]string{"action"},
	)

	// RejectsTotal counts rejected order commands by reason.
	RejectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "book_order_rejects_total",
			Help: "Total number of rejected order commands by reason",
		},
		[]string{"reason"},
	)

	// TradesTotal counts executed trades.
	TradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "book_trades_total",
			Help: "Total number of trades executed",
		},
	)

	// OrderBookDepth tracks resting quantity at the best price on each
	// side of the book.
	OrderBookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "book_best_level_qty",
			Help: "Resting quantity at the best price by side",
		},
		[]string{"side"},
	)

	// CrossLoopLatency tracks how long a single sequencer command
	// (add/cancel/modify) takes to apply, including any matching it
	// triggers.
	CrossLoopLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "book_cross_loop_latency_seconds",
			Help:    "Time to apply one sequenced command, including matching",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
	)

	// SequencerInboundSeq tracks the current inbound sequence number.
	SequencerInboundSeq = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "book_sequencer_inbound_seq",
			Help: "Current inbound sequence number",
		},
	)
)

// PrometheusMiddleware records HTTP request latency.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}

// TimeCrossLoop returns a func to be deferred around one sequencer command
// application; it records CrossLoopLatency on return.
func TimeCrossLoop() func() {
	start := time.Now()
	return func() {
		CrossLoopLatency.Observe(time.Since(start).Seconds())
	}
}

// EngineObserver is an events.Observer translating matching-engine
// callbacks into the series above, so the engine itself stays free of any
// metrics dependency.
type EngineObserver struct{}

func (EngineObserver) OnOrderAcknowledged(domain.Order) {
	OrdersTotal.WithLabelValues("add").Inc()
}

func (EngineObserver) OnOrderCancelled(uint64) {
	OrdersTotal.WithLabelValues("cancel").Inc()
}

func (EngineObserver) OnOrderModified(domain.Order) {
	OrdersTotal.WithLabelValues("modify").Inc()
}

func (EngineObserver) OnOrderRejected(_ uint64, reason domain.RejectReason) {
	RejectsTotal.WithLabelValues(reason.String()).Inc()
}

func (EngineObserver) OnTradeExecuted(domain.Trade) {
	TradesTotal.Inc()
}

func (EngineObserver) OnTopOfBookUpdate(tob domain.TopOfBook) {
	if tob.HasBid {
		OrderBookDepth.WithLabelValues("bid").Set(float64(tob.BidQty))
	} else {
		OrderBookDepth.WithLabelValues("bid").Set(0)
	}
	if tob.HasAsk {
		OrderBookDepth.WithLabelValues("ask").Set(float64(tob.AskQty))
	} else {
		OrderBookDepth.WithLabelValues("ask").Set(0)
	}
}
