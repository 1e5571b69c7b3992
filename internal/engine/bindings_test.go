package engine

import (
	"sort"
	"testing"

	"github.com/ayusman/abhinaya/internal/detector"
)

func allKnown(string) bool { return true }

func TestBindingTable(t *testing.T) {
	t.Run("lookup hit and miss", func(t *testing.T) {
		table := newBindingTable([]Binding{
			{TriggerType: detector.ModalityVoice, TriggerEvent: "go", ActionID: "PRESS_RIGHT"},
			{TriggerType: detector.ModalityFace, TriggerEvent: "MOUTH_OPEN_START", ActionID: "PRESS_K_DOWN"},
		}, allKnown)

		if got, ok := table.lookup(detector.ModalityVoice, "go"); !ok || got != "PRESS_RIGHT" {
			t.Errorf("expected PRESS_RIGHT, got %q (ok=%v)", got, ok)
		}
		if _, ok := table.lookup(detector.ModalityVoice, "stop"); ok {
			t.Error("expected miss for unbound event")
		}
		if _, ok := table.lookup(detector.ModalityHand, "go"); ok {
			t.Error("expected miss for wrong modality")
		}
	})

	t.Run("event matching is case-insensitive", func(t *testing.T) {
		table := newBindingTable([]Binding{
			{TriggerType: detector.ModalityFace, TriggerEvent: "MOUTH_OPEN_START", ActionID: "PRESS_K_DOWN"},
		}, allKnown)

		for _, event := range []string{"MOUTH_OPEN_START", "mouth_open_start", "Mouth_Open_Start"} {
			if got, ok := table.lookup(detector.ModalityFace, event); !ok || got != "PRESS_K_DOWN" {
				t.Errorf("lookup(%q): expected PRESS_K_DOWN, got %q (ok=%v)", event, got, ok)
			}
		}
	})

	t.Run("unknown modality is skipped", func(t *testing.T) {
		table := newBindingTable([]Binding{
			{TriggerType: "telepathy", TriggerEvent: "think", ActionID: "PRESS_SPACE"},
			{TriggerType: detector.ModalityVoice, TriggerEvent: "go", ActionID: "PRESS_SPACE"},
		}, allKnown)

		if table.size() != 1 {
			t.Errorf("expected 1 binding, got %d", table.size())
		}
	})

	t.Run("unknown action is skipped, rest kept", func(t *testing.T) {
		known := func(id string) bool { return id != "DOES_NOT_EXIST" }
		table := newBindingTable([]Binding{
			{TriggerType: detector.ModalityVoice, TriggerEvent: "go", ActionID: "DOES_NOT_EXIST"},
			{TriggerType: detector.ModalityVoice, TriggerEvent: "stop", ActionID: "PRESS_ESC"},
		}, known)

		if _, ok := table.lookup(detector.ModalityVoice, "go"); ok {
			t.Error("expected binding with unknown action to be excluded")
		}
		if got, ok := table.lookup(detector.ModalityVoice, "stop"); !ok || got != "PRESS_ESC" {
			t.Errorf("expected PRESS_ESC, got %q (ok=%v)", got, ok)
		}
	})

	t.Run("duplicate key resolves last-loaded wins", func(t *testing.T) {
		table := newBindingTable([]Binding{
			{TriggerType: detector.ModalityHand, TriggerEvent: "THUMBS_UP", ActionID: "PRESS_SPACE"},
			{TriggerType: detector.ModalityHand, TriggerEvent: "thumbs_up", ActionID: "PRESS_ENTER"},
		}, allKnown)

		if got, _ := table.lookup(detector.ModalityHand, "THUMBS_UP"); got != "PRESS_ENTER" {
			t.Errorf("expected last-loaded PRESS_ENTER, got %q", got)
		}
		if table.size() != 1 {
			t.Errorf("expected duplicates to collapse to 1 entry, got %d", table.size())
		}
	})

	t.Run("trigger words collect one modality", func(t *testing.T) {
		table := newBindingTable([]Binding{
			{TriggerType: detector.ModalityVoice, TriggerEvent: "Go", ActionID: "PRESS_RIGHT"},
			{TriggerType: detector.ModalityVoice, TriggerEvent: "stop", ActionID: "PRESS_ESC"},
			{TriggerType: detector.ModalityHand, TriggerEvent: "FIST", ActionID: "PRESS_SPACE"},
		}, allKnown)

		words := table.triggerWords(detector.ModalityVoice)
		sort.Strings(words)
		if len(words) != 2 || words[0] != "go" || words[1] != "stop" {
			t.Errorf("expected [go stop], got %v", words)
		}
	})
}
