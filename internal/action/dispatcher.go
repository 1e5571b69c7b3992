package action

import (
	"fmt"
	"log/slog"
)

// Dispatcher executes actions by id. Failures never escape the dispatch
// boundary: an unknown id, an execution error, or a panicking action is
// logged and swallowed so input processing keeps running.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch looks up actionID and executes it with trigger as the
// originating event id.
func (d *Dispatcher) Dispatch(actionID, trigger string) {
	a, err := d.registry.Get(actionID)
	if err != nil {
		slog.Warn("action dispatch skipped", "action", actionID, "trigger", trigger, "error", err)
		return
	}

	if err := execute(a, trigger); err != nil {
		slog.Error("action failed", "action", actionID, "trigger", trigger, "error", err)
	}
}

// execute runs the action, converting a panic into an error so one
// misbehaving action cannot take down the dispatch worker.
func execute(a Action, trigger string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return a.Execute(trigger)
}
