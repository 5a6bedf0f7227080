package tablefsm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects transition and timer counters. A single Metrics value may
// be shared by any number of machines. A nil *Metrics records nothing.
type Metrics struct {
	transitions     *prometheus.CounterVec
	unknownTriggers prometheus.Counter
	timerFires      prometheus.Counter
	staleTimers     prometheus.Counter
	timerErrors     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fsm",
			Name:      "transitions_total",
			Help:      "Committed transitions by kind.",
		}, []string{"kind"}),
		unknownTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fsm",
			Name:      "unknown_triggers_total",
			Help:      "Events no transition matched.",
		}),
		timerFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fsm",
			Name:      "timer_fires_total",
			Help:      "Timeout timers that fired for the current state.",
		}),
		staleTimers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fsm",
			Name:      "stale_timers_total",
			Help:      "Timer callbacks ignored because the state was already left or the machine closed.",
		}),
		timerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fsm",
			Name:      "timer_errors_total",
			Help:      "Timeout transitions that failed.",
		}),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.unknownTriggers, m.timerFires, m.staleTimers, m.timerErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) transition(kind TransitionKind) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) unknownTrigger() {
	if m == nil {
		return
	}
	m.unknownTriggers.Inc()
}

func (m *Metrics) timerFired() {
	if m == nil {
		return
	}
	m.timerFires.Inc()
}

func (m *Metrics) staleTimer() {
	if m == nil {
		return
	}
	m.staleTimers.Inc()
}

func (m *Metrics) timerError() {
	if m == nil {
		return
	}
	m.timerErrors.Inc()
}
