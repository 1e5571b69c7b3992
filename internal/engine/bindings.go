package engine

import (
	"log/slog"
	"strings"

	"github.com/ayusman/abhinaya/internal/detector"
)

// Binding maps one (modality, event) pair to an action id.
type Binding struct {
	TriggerType  detector.Modality
	TriggerEvent string
	ActionID     string
}

type bindingKey struct {
	modality detector.Modality
	event    string
}

// bindingTable is an immutable lookup from (modality, lowercased event id)
// to action id. A loaded table is never mutated; reloads build a fresh one
// and swap it in wholesale.
type bindingTable struct {
	entries map[bindingKey]string
}

// newBindingTable validates bindings against knownAction and builds the
// table. Invalid bindings are skipped individually so a partially valid
// configuration still runs. Duplicate keys resolve last-loaded wins.
func newBindingTable(bindings []Binding, knownAction func(string) bool) *bindingTable {
	entries := make(map[bindingKey]string, len(bindings))

	for _, b := range bindings {
		if !b.TriggerType.IsValid() {
			slog.Warn("binding skipped: unknown modality",
				"modality", string(b.TriggerType), "event", b.TriggerEvent, "action", b.ActionID)
			continue
		}
		if !knownAction(b.ActionID) {
			slog.Warn("binding skipped: unknown action",
				"modality", string(b.TriggerType), "event", b.TriggerEvent, "action", b.ActionID)
			continue
		}

		key := bindingKey{modality: b.TriggerType, event: strings.ToLower(b.TriggerEvent)}
		if prev, dup := entries[key]; dup {
			slog.Warn("duplicate binding, last one wins",
				"modality", string(b.TriggerType), "event", b.TriggerEvent,
				"replaced", prev, "action", b.ActionID)
		}
		entries[key] = b.ActionID
	}

	return &bindingTable{entries: entries}
}

// lookup returns the action id bound to (modality, event). Event matching
// is case-insensitive.
func (t *bindingTable) lookup(modality detector.Modality, event string) (string, bool) {
	actionID, ok := t.entries[bindingKey{modality: modality, event: strings.ToLower(event)}]
	return actionID, ok
}

// size returns the number of loaded bindings.
func (t *bindingTable) size() int { return len(t.entries) }

// triggerWords returns the event ids bound for a modality, used to derive
// the voice trigger-word set.
func (t *bindingTable) triggerWords(modality detector.Modality) []string {
	var words []string
	for key := range t.entries {
		if key.modality == modality {
			words = append(words, key.event)
		}
	}
	return words
}
