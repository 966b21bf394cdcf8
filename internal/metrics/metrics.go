// Package metrics provides Prometheus collectors for the file session engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessionkit"

// Metrics holds the session engine collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	loads          *prometheus.CounterVec
	saves          *prometheus.CounterVec
	saveDuration   prometheus.Histogram
	openTabs       prometheus.Gauge
	dirtyTabs      prometheus.Gauge
	arbitrations   *prometheus.CounterVec
	searchDuration prometheus.Histogram
	searchResults  prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "File loads by result (hit, read, error).",
		}, []string{"result"}),
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "File saves by result (ok, error, invalid).",
		}, []string{"result"}),
		saveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Time spent writing a file.",
			Buckets:   prometheus.DefBuckets,
		}),
		openTabs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_tabs",
			Help:      "Number of open tabs.",
		}),
		dirtyTabs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dirty_tabs",
			Help:      "Number of tabs with unsaved changes.",
		}),
		arbitrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arbitrations_total",
			Help:      "Unsaved-changes arbitrations by resolution.",
		}, []string{"resolution"}),
		searchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Quick-open search duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		searchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Result count per quick-open search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50},
		}),
	}
}

// Load results.
const (
	LoadHit   = "hit"
	LoadRead  = "read"
	LoadError = "error"
)

// Save results.
const (
	SaveOK      = "ok"
	SaveError   = "error"
	SaveInvalid = "invalid"
)

// ObserveLoad counts one load.
func (m *Metrics) ObserveLoad(result string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
}

// ObserveSave counts one save attempt and, for attempted writes, its duration.
func (m *Metrics) ObserveSave(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result).Inc()
	if result != SaveInvalid {
		m.saveDuration.Observe(d.Seconds())
	}
}

// SetTabs records the current open and dirty tab counts.
func (m *Metrics) SetTabs(open, dirty int) {
	if m == nil {
		return
	}
	m.openTabs.Set(float64(open))
	m.dirtyTabs.Set(float64(dirty))
}

// ObserveArbitration counts one resolved arbitration.
func (m *Metrics) ObserveArbitration(resolution string) {
	if m == nil {
		return
	}
	m.arbitrations.WithLabelValues(resolution).Inc()
}

// ObserveSearch records a completed search.
func (m *Metrics) ObserveSearch(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
	m.searchResults.Observe(float64(results))
}
