// Package metrics exposes prometheus counters for the decision engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradealgo_bars_total", Help: "Bars evaluated per strategy instance"},
		[]string{"symbol", "strategy"},
	)
	RejectedBarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradealgo_rejected_bars_total", Help: "Bars rejected at the series boundary"},
		[]string{"symbol", "reason"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradealgo_intents_total", Help: "Trade intents submitted"},
		[]string{"symbol", "strategy", "action"},
	)
	SinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tradealgo_sink_errors_total", Help: "Intent submissions that failed"},
		[]string{"sink"},
	)
	OpenLayers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "tradealgo_open_layers", Help: "Layers currently held per strategy instance"},
		[]string{"symbol", "strategy"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, RejectedBarsTotal, IntentsTotal, SinkErrorsTotal, OpenLayers)
}

// Serve starts a /metrics endpoint on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
