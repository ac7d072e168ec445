// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	prom.New(reg).Install()
//	mux.Handle("/metrics", prom.Handler(reg))
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/observability"
)

const namespace = "gradlayer"

var stageBuckets = []float64{0.0001, 0.001, 0.01, 0.1, 1, 10}

// Hooks records pipeline, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	stageDuration *prometheus.HistogramVec
	inputNodes    *prometheus.HistogramVec
	maxRank       prometheus.Histogram
	cacheOps      *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	failures      *prometheus.CounterVec
	inflight      prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   stageBuckets,
		}, []string{"stage", "variant", "outcome"}),
		inputNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "input_nodes",
			Help:      "Node count of loaded inputs",
			Buckets:   []float64{1, 10, 100, 1000, 10000},
		}, []string{"variant"}),
		maxRank: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "max_rank",
			Help:      "Largest rank assigned per ranked graph",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Failed HTTP requests by error code",
		}, []string{"method", "route", "code"}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Requests currently being served",
		}),
	}
}

// Install registers h as the global pipeline, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) observe(stage, variant string, d time.Duration, err error) {
	h.stageDuration.WithLabelValues(stage, variant, outcome(err)).Observe(d.Seconds())
}

// OnLoadStart implements [observability.PipelineHooks].
func (h *Hooks) OnLoadStart(context.Context, string) {}

// OnLoadComplete implements [observability.PipelineHooks].
func (h *Hooks) OnLoadComplete(_ context.Context, variant string, nodes int, d time.Duration, err error) {
	h.observe("load", variant, d, err)
	if err == nil {
		h.inputNodes.WithLabelValues(variant).Observe(float64(nodes))
	}
}

// OnReverseComplete implements [observability.PipelineHooks].
func (h *Hooks) OnReverseComplete(_ context.Context, _ int, d time.Duration, err error) {
	h.observe("reverse", "tree", d, err)
}

// OnRankComplete implements [observability.PipelineHooks].
func (h *Hooks) OnRankComplete(_ context.Context, maxRank int, d time.Duration, err error) {
	h.observe("rank", "acyclic", d, err)
	if err == nil {
		h.maxRank.Observe(float64(maxRank))
	}
}

// OnLayoutStart implements [observability.PipelineHooks].
func (h *Hooks) OnLayoutStart(context.Context, string, int) {}

// OnLayoutComplete implements [observability.PipelineHooks].
func (h *Hooks) OnLayoutComplete(_ context.Context, variant string, d time.Duration, err error) {
	h.observe("layout", variant, d, err)
}

// OnRenderStart implements [observability.PipelineHooks].
func (h *Hooks) OnRenderStart(context.Context, string) {}

// OnRenderComplete implements [observability.PipelineHooks].
func (h *Hooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	h.observe("render", format, d, err)
}

// OnCacheHit implements [observability.CacheHooks].
func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements [observability.CacheHooks].
func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements [observability.CacheHooks].
func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements [observability.HTTPHooks].
func (h *Hooks) OnRequest(context.Context, string, string) {
	h.inflight.Inc()
}

// OnResponse implements [observability.HTTPHooks].
func (h *Hooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.inflight.Dec()
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// OnError implements [observability.HTTPHooks].
func (h *Hooks) OnError(_ context.Context, method, route string, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	h.failures.WithLabelValues(method, route, code).Inc()
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
