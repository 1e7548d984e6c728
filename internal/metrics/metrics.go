// Package metrics holds the prometheus collectors of the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer: every method is then a no-op.
type Metrics struct {
	roundsStarted  prometheus.Counter
	roundsFinished *prometheus.CounterVec
	cluesPublished prometheus.Counter
	repliesChecked prometheus.Counter
	ownerCommands  *prometheus.CounterVec
	state          *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizbot",
			Name:      "rounds_started_total",
			Help:      "Rounds started.",
		}),
		roundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizbot",
			Name:      "rounds_finished_total",
			Help:      "Rounds finished, by outcome.",
		}, []string{"outcome"}),
		cluesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizbot",
			Name:      "clues_published_total",
			Help:      "Clue posts published.",
		}),
		repliesChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizbot",
			Name:      "replies_checked_total",
			Help:      "Replies fetched and evaluated.",
		}),
		ownerCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizbot",
			Name:      "owner_commands_total",
			Help:      "Owner commands received, by command.",
		}, []string{"command"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quizbot",
			Name:      "state",
			Help:      "1 for the current state machine state.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.roundsStarted, m.roundsFinished, m.cluesPublished, m.repliesChecked, m.ownerCommands, m.state)
	return m
}

func (m *Metrics) RoundStarted() {
	if m == nil {
		return
	}
	m.roundsStarted.Inc()
}

func (m *Metrics) RoundFinished(outcome string) {
	if m == nil {
		return
	}
	m.roundsFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CluePublished() {
	if m == nil {
		return
	}
	m.cluesPublished.Inc()
}

func (m *Metrics) RepliesChecked(n int) {
	if m == nil {
		return
	}
	m.repliesChecked.Add(float64(n))
}

func (m *Metrics) OwnerCommand(cmd string) {
	if m == nil {
		return
	}
	m.ownerCommands.WithLabelValues(cmd).Inc()
}

// State marks current as the active state and clears previous.
func (m *Metrics) State(previous, current string) {
	if m == nil {
		return
	}
	if previous != "" {
		m.state.WithLabelValues(previous).Set(0)
	}
	m.state.WithLabelValues(current).Set(1)
}
