package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the bot's Prometheus collectors on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	ticks        *prometheus.CounterVec
	tickSkipped  *prometheus.CounterVec
	tickDuration *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	orders       *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cache        *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	inFlight     prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_ticks_total", Help: "Instrument evaluations started"},
			[]string{"symbol"},
		),
		tickSkipped: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_ticks_skipped_total", Help: "Ticks skipped because the previous one was still running"},
			[]string{"symbol"},
		),
		tickDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mtf_tick_duration_seconds",
				Help:    "Duration of one instrument evaluation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_decisions_total", Help: "Decisions by outcome"},
			[]string{"symbol", "action"},
		),
		orders: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_orders_total", Help: "Orders submitted"},
			[]string{"symbol", "side"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_errors_total", Help: "Errors by kind"},
			[]string{"kind"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{Name: "mtf_candle_cache_lookups_total", Help: "Candle cache lookups"},
			[]string{"timeframe", "result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{Name: "mtf_last_price", Help: "Last evaluated price"},
			[]string{"symbol"},
		),
		inFlight: f.NewGauge(
			prometheus.GaugeOpts{Name: "mtf_ticks_in_flight", Help: "Instrument evaluations currently running"},
		),
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Recorder) TickStarted(symbol string) {
	r.ticks.WithLabelValues(symbol).Inc()
	r.inFlight.Inc()
}

func (r *Recorder) TickFinished(symbol string, seconds float64) {
	r.inFlight.Dec()
	r.tickDuration.WithLabelValues(symbol).Observe(seconds)
}

func (r *Recorder) TickSkipped(symbol string) {
	r.tickSkipped.WithLabelValues(symbol).Inc()
}

func (r *Recorder) Decision(symbol, action string) {
	r.decisions.WithLabelValues(symbol, action).Inc()
}

func (r *Recorder) Order(symbol, side string) {
	r.orders.WithLabelValues(symbol, side).Inc()
}

func (r *Recorder) Error(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) LastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) CacheLookup(tf string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(tf, result).Inc()
}
