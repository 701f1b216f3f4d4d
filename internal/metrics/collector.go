// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector exposes Prometheus metrics for the executor, cache, and
// plugin host.
type Collector struct {
	stepOutcomesTotal *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	stepRetries       *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	pluginsLoaded      prometheus.Gauge
	pluginLoadFailures prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a metrics collector under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.stepOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_outcomes_total",
			Help:      "Total number of steps reaching each terminal state",
		},
		[]string{"state"},
	)

	c.stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Step execution duration in seconds, including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"plugin"},
	)

	c.stepRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Total number of step retry attempts",
		},
		[]string{"plugin"},
	)

	c.cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	})

	c.cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	})

	c.pluginsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plugins_loaded",
		Help:      "Number of plugins currently loaded",
	})

	c.pluginLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plugin_load_failures_total",
		Help:      "Total number of plugin library load failures",
	})

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 执行器指标记录
// =============================================================================

// RecordStepOutcome records a step's terminal state. Safe to call on a
// nil Collector, so callers can wire it unconditionally without an
// enabled/disabled branch at every call site.
func (c *Collector) RecordStepOutcome(state string) {
	if c == nil {
		return
	}
	c.stepOutcomesTotal.WithLabelValues(state).Inc()
}

// RecordStepDuration records how long a step took, plugin-keyed.
func (c *Collector) RecordStepDuration(plugin string, duration time.Duration) {
	if c == nil {
		return
	}
	c.stepDuration.WithLabelValues(plugin).Observe(duration.Seconds())
}

// RecordStepRetry records a single retry attempt for plugin.
func (c *Collector) RecordStepRetry(plugin string) {
	if c == nil {
		return
	}
	c.stepRetries.WithLabelValues(plugin).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// =============================================================================
// 🔌 插件宿主指标记录
// =============================================================================

// SetPluginsLoaded sets the current count of loaded plugins.
func (c *Collector) SetPluginsLoaded(n int) {
	if c == nil {
		return
	}
	c.pluginsLoaded.Set(float64(n))
}

// RecordPluginLoadFailure records a single plugin library load failure.
func (c *Collector) RecordPluginLoadFailure() {
	if c == nil {
		return
	}
	c.pluginLoadFailures.Inc()
}
