package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RoundStarted()
	m.RoundFinished("solved")
	m.RoundFinished("solved")
	m.CluePublished()
	m.RepliesChecked(3)
	m.OwnerCommand("die")
	m.State("", "WAIT")
	m.State("WAIT", "CHECK_RESPONSES")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.roundsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.roundsFinished.WithLabelValues("solved")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.repliesChecked))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("WAIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("CHECK_RESPONSES")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RoundStarted()
		m.RoundFinished("unsolved")
		m.CluePublished()
		m.RepliesChecked(1)
		m.OwnerCommand("next")
		m.State("A", "B")
	})
}
