package tablefsm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// TimeoutError reports a failed timeout transition. The timer path has no
// caller to return errors to, so they go to the error handler instead.
type TimeoutError struct {
	State string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout transition from state [%s]: %v", e.State, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// armTimer replaces the pending timer with one for the current state's
// timeout, if it declares one. Must be called with mu held.
func (m *Machine[S, E, L, G]) armTimer() {
	m.disarmTimer()

	tr, ok := m.tables[m.current.Ordinal()].Timeout()
	if !ok {
		return
	}

	gen := m.timerGen
	m.timer = m.clock.AfterFunc(tr.After, func() {
		m.onTimer(gen)
	})
	m.logger.Debug("timer armed", stateField("state", m.current), zap.Duration("after", tr.After))
}

// disarmTimer invalidates and stops the pending timer. A timer whose callback
// already started cannot be stopped; it will find its generation stale.
func (m *Machine[S, E, L, G]) disarmTimer() {
	m.timerGen++
	if m.timer == nil {
		return
	}
	if !m.timer.Stop() {
		m.logger.Debug("timer already fired", stateField("state", m.current))
	}
	m.timer = nil
}

// onTimer is the timer callback. It only acts if it is still the machine's
// authoritative timer. The error handler runs after the lock is released.
func (m *Machine[S, E, L, G]) onTimer(gen uint64) {
	if err := m.timeout(gen); err != nil && m.errorHandler != nil {
		m.errorHandler(err)
	}
}

// timeout fires the timeout transition under the lock and returns the
// failure to report, if any
func (m *Machine[S, E, L, G]) timeout(gen uint64) *TimeoutError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.timerGen {
		m.metrics.staleTimer()
		m.logger.Debug("stale timer ignored", stateField("state", m.current))
		return nil
	}
	m.timer = nil
	m.metrics.timerFired()
	m.logger.Debug("timer fired", stateField("state", m.current))

	from := m.current
	err := m.step(timeoutInput[E]())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeoutVetoed):
		m.logger.Debug("timeout guard vetoed transition", stateField("state", from))
		return nil
	default:
		m.metrics.timerError()
		m.logger.Error("timeout transition failed", stateField("state", from), zap.Error(err))
		return &TimeoutError{State: fmt.Sprint(from), Err: err}
	}
}
