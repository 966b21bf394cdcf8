package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLoad(LoadHit)
	m.ObserveLoad(LoadHit)
	m.ObserveLoad(LoadError)
	m.ObserveSave(SaveOK, 10*time.Millisecond)
	m.ObserveSave(SaveInvalid, 0)
	m.ObserveArbitration("discard")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loads.WithLabelValues(LoadHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loads.WithLabelValues(LoadError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues(SaveOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues(SaveInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.arbitrations.WithLabelValues("discard")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.saveDuration))
}

func TestMetrics_Gauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetTabs(4, 1)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.openTabs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dirtyTabs))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLoad(LoadHit)
	m.ObserveSave(SaveOK, time.Second)
	m.SetTabs(1, 1)
	m.ObserveArbitration("cancel")
	m.ObserveSearch(time.Millisecond, 3)
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
