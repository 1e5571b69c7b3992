// Package action maps abstract action identifiers to executable system
// actions and dispatches them in response to input events.
package action

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownAction is returned when an action id has no registered action.
var ErrUnknownAction = errors.New("unknown action")

// Action performs one system-level effect. The trigger is the id of the
// event that caused the dispatch, so implementations can record or vary on
// it.
type Action interface {
	Execute(trigger string) error
}

// Func adapts a plain function to the Action interface.
type Func func(trigger string) error

// Execute implements Action.
func (f Func) Execute(trigger string) error { return f(trigger) }

// Registry holds the known actions by id.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds or replaces the action for id.
func (r *Registry) Register(id string, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[id] = a
}

// Get returns the action for id, or an error wrapping ErrUnknownAction.
func (r *Registry) Get(id string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return a, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[id]
	return ok
}

// IDs returns all registered action ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
