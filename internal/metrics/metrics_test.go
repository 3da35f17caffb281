package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCommand("mod", nil)
	m.ObserveCommand("mod", nil)
	m.ObserveCommand("mod", errors.New("boom"))
	m.StrikeRecorded()
	m.Escalated("ban")
	m.ObserveSweep(true, nil)
	m.ObserveSweep(false, nil)
	m.ObserveSweep(false, errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CommandsExecuted.WithLabelValues("mod", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsExecuted.WithLabelValues("mod", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StrikesRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Escalations.WithLabelValues("ban")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sweeps.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sweeps.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerFailures))
}

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "duplicate registration")
}
