package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}

var (
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_geocode_requests_total",
		Help: "Geocode calls by outcome (hit, miss_ok, miss_fail)",
	}, []string{"outcome"})
	GeocodeCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_geocode_cache_hits_total",
		Help: "Geocode cache hits by tier",
	}, []string{"tier"})
	GeocodeCacheErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_geocode_cache_errors_total",
		Help: "Geocode cache backend errors by tier and op",
	}, []string{"tier", "op"})
	GeocodeAPIRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wahlkreis_geocode_api_requests_total",
		Help: "Outbound geocoding API requests",
	})
	GeocodeAPIFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_geocode_api_fail_total",
		Help: "Outbound geocoding API failures by reason",
	}, []string{"reason"})
	GeocodeAPIDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wahlkreis_geocode_api_duration_ms",
		Help:    "Geocoding API call duration in milliseconds",
		Buckets: msBuckets,
	})
	GeocodeThrottleWaitMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wahlkreis_geocode_throttle_wait_ms",
		Help:    "Time spent waiting for the outbound geocoding throttle",
		Buckets: msBuckets,
	})
	LocateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wahlkreis_locate_duration_ms",
		Help:    "Point-in-polygon lookup duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50},
	})
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_resolve_total",
		Help: "District resolutions by winning strategy",
	}, []string{"strategy"})
	CatalogMissTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_catalog_miss_total",
		Help: "Resolved districts without a matching constituency record",
	}, []string{"scope"})
	ClassifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wahlkreis_classify_total",
		Help: "Topic classifications by inferred level",
	}, []string{"level"})
	SuggestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wahlkreis_suggest_duration_ms",
		Help:    "Recommendation duration in milliseconds",
		Buckets: msBuckets,
	})
	SuggestCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wahlkreis_suggest_candidates",
		Help:    "Number of candidates returned per suggestion",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wahlkreis_http_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
)

func init() {
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheErrorsTotal)
	prometheus.MustRegister(GeocodeAPIRequestsTotal)
	prometheus.MustRegister(GeocodeAPIFailTotal)
	prometheus.MustRegister(GeocodeAPIDurationMs)
	prometheus.MustRegister(GeocodeThrottleWaitMs)
	prometheus.MustRegister(LocateDurationMs)
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(CatalogMissTotal)
	prometheus.MustRegister(ClassifyTotal)
	prometheus.MustRegister(SuggestDurationMs)
	prometheus.MustRegister(SuggestCandidates)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标处理器，在主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
