// Package metrics exports supervisor activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelpath.ai/internal/sim/path/runtime"
)

const namespace = "voxelpath"

type Collector struct {
	reg *prometheus.Registry

	searches     *prometheus.CounterVec
	visited      prometheus.Histogram
	searchTime   prometheus.Histogram
	pathLen      prometheus.Histogram
	resets       *prometheus.CounterVec
	goalOutcomes *prometheus.CounterVec
	ticks        prometheus.Counter
	tickTime     prometheus.Histogram
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Collector{
		reg: reg,
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Finished path searches by status",
		}, []string{"status"}),
		visited: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_visited_nodes",
			Help:      "Nodes closed per search",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		searchTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time spent per search across ticks",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.04, 0.1, 0.5, 1, 5},
		}),
		pathLen: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_length_moves",
			Help:      "Moves in each planned path",
			Buckets:   prometheus.LinearBuckets(0, 8, 10),
		}),
		resets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_resets_total",
			Help:      "Path resets by reason",
		}, []string{"reason"}),
		goalOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_outcomes_total",
			Help:      "Goals ended by outcome",
		}, []string{"outcome"}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Tick loop iterations",
		}),
		tickTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one tick",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.04, 0.05, 0.1},
		}),
	}
}

// Observe is a runtime.Observer.
func (c *Collector) Observe(ev runtime.Event) {
	switch ev.Type {
	case runtime.EventPathUpdate:
		if r := ev.Result; r != nil {
			c.searches.WithLabelValues(string(r.Status)).Inc()
			c.visited.Observe(float64(r.Visited))
			c.searchTime.Observe(r.Elapsed.Seconds())
			c.pathLen.Observe(float64(len(r.Path)))
		}
	case runtime.EventPathReset:
		c.resets.WithLabelValues(ev.Reason).Inc()
	case runtime.EventGoalReached, runtime.EventGoalUnreachable, runtime.EventPathStop:
		c.goalOutcomes.WithLabelValues(string(ev.Type)).Inc()
	}
}

func (c *Collector) ObserveTick(d time.Duration) {
	c.ticks.Inc()
	c.tickTime.Observe(d.Seconds())
}

// Gauge exports fn as a gauge read at scrape time.
func (c *Collector) Gauge(name, help string, fn func() float64) {
	promauto.With(c.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
