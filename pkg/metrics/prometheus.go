package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of requests to the health server.",
	},
	[]string{"path"},
)

var ProviderRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "Number of public ip lookups per provider.",
	},
	[]string{"provider"},
)

var Cycles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cfddns_cycles_total",
		Help: "Number of reconciliation cycles by result.",
	},
	[]string{"result"},
)

var RecordUpdates = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cfddns_record_updates_total",
		Help: "Number of DNS record updates by result.",
	},
	[]string{"result"},
)

var LastSuccess = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "cfddns_last_success_timestamp_seconds",
		Help: "Unix time of the last successful reconciliation cycle.",
	},
)

func InitMetrics() {
	prometheus.Register(TotalRequests)
	prometheus.Register(ProviderRequests)
	prometheus.Register(Cycles)
	prometheus.Register(RecordUpdates)
	prometheus.Register(LastSuccess)
}

func IncrementProvider(provider string) {
	ProviderRequests.WithLabelValues(provider).Inc()
}

func IncrementReqs(r *http.Request) {
	TotalRequests.WithLabelValues(r.URL.Path).Inc()
}

func CycleSucceeded(at time.Time) {
	Cycles.WithLabelValues("success").Inc()
	LastSuccess.Set(float64(at.Unix()))
}

func CycleFailed() {
	Cycles.WithLabelValues("failure").Inc()
}

func RecordUpdated(ok bool) {
	if ok {
		RecordUpdates.WithLabelValues("success").Inc()
		return
	}
	RecordUpdates.WithLabelValues("failure").Inc()
}
